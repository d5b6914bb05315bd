// Package usi reads engine commands and writes engine responses in the USI
// text protocol.
package usi

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	sg "shogi-engine/shogimg"
)

var (
	// ErrUnknownCommand is returned for lines whose keyword is not a USI
	// command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMalformed is returned when a known command has bad arguments.
	ErrMalformed = errors.New("malformed command")
)

// Kind identifies a command type. Event queues are keyed by it.
type Kind int

const (
	KindUsi Kind = iota
	KindIsReady
	KindSetOption
	KindUsiNewGame
	KindPosition
	KindGo
	KindStop
	KindPonderHit
	KindGameOver
	KindQuit

	NumKinds
)

var kindNames = [NumKinds]string{
	"usi", "isready", "setoption", "usinewgame", "position", "go", "stop", "ponderhit", "gameover", "quit",
}

func (k Kind) String() string {
	if k < 0 || k >= NumKinds {
		return "unknown"
	}
	return kindNames[k]
}

// Command is one parsed input line.
type Command interface {
	Kind() Kind
}

type (
	Usi        struct{}
	IsReady    struct{}
	UsiNewGame struct{}
	Stop       struct{}
	PonderHit  struct{}
	Quit       struct{}
)

func (Usi) Kind() Kind        { return KindUsi }
func (IsReady) Kind() Kind    { return KindIsReady }
func (UsiNewGame) Kind() Kind { return KindUsiNewGame }
func (Stop) Kind() Kind       { return KindStop }
func (PonderHit) Kind() Kind  { return KindPonderHit }
func (Quit) Kind() Kind       { return KindQuit }

// SetOption is "setoption name <Name> [value <Value>]". Names and values
// may contain spaces.
type SetOption struct {
	Name     string
	Value    string
	HasValue bool
}

func (SetOption) Kind() Kind { return KindSetOption }

// Position is "position startpos|sfen <sfen> [moves ...]". SFEN is always
// the full SFEN string, startpos included. Moves are in wire form and have
// not been checked for legality.
type Position struct {
	SFEN  string
	Moves []sg.Move
}

func (Position) Kind() Kind { return KindPosition }

// String renders the command line.
func (p Position) String() string {
	var sb strings.Builder
	if p.SFEN == sg.StartSFEN {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position sfen ")
		sb.WriteString(p.SFEN)
	}
	if len(p.Moves) > 0 {
		sb.WriteString(" moves")
		for _, m := range p.Moves {
			sb.WriteByte(' ')
			sb.WriteString(m.String())
		}
	}
	return sb.String()
}

// Board replays the position, failing with shogimg.ErrIllegalMove on the
// first move that is not legal.
func (p Position) Board() (*sg.Board, error) {
	b, err := sg.ParseSFEN(p.SFEN)
	if err != nil {
		return nil, err
	}
	for i, m := range p.Moves {
		if _, err := b.ApplyMove(m); err != nil {
			return b, errors.Wrapf(err, "move %d", i+1)
		}
	}
	return b, nil
}

// Go carries the search limits of a "go" line. Zero values mean "not given".
type Go struct {
	BTime, WTime time.Duration
	BInc, WInc   time.Duration
	Byoyomi      time.Duration
	MoveTime     time.Duration
	Depth        int
	Infinite     bool
	Ponder       bool

	// Mate is set by "go mate"; MateTime is its limit unless MateInfinite.
	Mate         bool
	MateTime     time.Duration
	MateInfinite bool
}

func (Go) Kind() Kind { return KindGo }

// Remaining returns the clock and increment of side c.
func (g Go) Remaining(c sg.Color) (clock, inc time.Duration) {
	if c == sg.First {
		return g.BTime, g.BInc
	}
	return g.WTime, g.WInc
}

func (g Go) String() string {
	parts := []string{"go"}
	if g.Ponder {
		parts = append(parts, "ponder")
	}
	ms := func(name string, d time.Duration) {
		if d > 0 {
			parts = append(parts, name, strconv.FormatInt(d.Milliseconds(), 10))
		}
	}
	ms("btime", g.BTime)
	ms("wtime", g.WTime)
	ms("binc", g.BInc)
	ms("winc", g.WInc)
	ms("byoyomi", g.Byoyomi)
	ms("movetime", g.MoveTime)
	if g.Depth > 0 {
		parts = append(parts, "depth", strconv.Itoa(g.Depth))
	}
	if g.Infinite {
		parts = append(parts, "infinite")
	}
	if g.Mate {
		if g.MateInfinite {
			parts = append(parts, "mate", "infinite")
		} else {
			parts = append(parts, "mate", strconv.FormatInt(g.MateTime.Milliseconds(), 10))
		}
	}
	return strings.Join(parts, " ")
}

// GameResult is the outcome reported by "gameover".
type GameResult int

const (
	Win GameResult = iota
	Lose
	Draw
)

func (r GameResult) String() string {
	switch r {
	case Win:
		return "win"
	case Lose:
		return "lose"
	case Draw:
		return "draw"
	}
	return "?"
}

// Opposite returns the result seen by the other player.
func (r GameResult) Opposite() GameResult {
	switch r {
	case Win:
		return Lose
	case Lose:
		return Win
	}
	return r
}

// GameOver is "gameover win|lose|draw".
type GameOver struct {
	Result GameResult
}

func (GameOver) Kind() Kind { return KindGameOver }

// ParseCommand parses one input line.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.Wrap(ErrUnknownCommand, "empty line")
	}
	args := fields[1:]
	switch fields[0] {
	case "usi":
		return Usi{}, nil
	case "isready":
		return IsReady{}, nil
	case "usinewgame":
		return UsiNewGame{}, nil
	case "stop":
		return Stop{}, nil
	case "ponderhit":
		return PonderHit{}, nil
	case "quit":
		return Quit{}, nil
	case "setoption":
		return parseSetOption(args)
	case "position":
		return parsePosition(args)
	case "go":
		return parseGo(args)
	case "gameover":
		return parseGameOver(args)
	}
	return nil, errors.Wrapf(ErrUnknownCommand, "%q", fields[0])
}

func parseSetOption(args []string) (Command, error) {
	if len(args) < 2 || args[0] != "name" {
		return nil, errors.Wrap(ErrMalformed, "setoption: want name")
	}
	var name, value []string
	cur := &name
	hasValue := false
	for _, a := range args[1:] {
		if a == "value" && !hasValue {
			hasValue = true
			cur = &value
			continue
		}
		*cur = append(*cur, a)
	}
	if len(name) == 0 {
		return nil, errors.Wrap(ErrMalformed, "setoption: empty name")
	}
	return SetOption{Name: strings.Join(name, " "), Value: strings.Join(value, " "), HasValue: hasValue}, nil
}

func parsePosition(args []string) (Command, error) {
	if len(args) == 0 {
		return nil, errors.Wrap(ErrMalformed, "position: missing startpos or sfen")
	}
	var pos Position
	rest := args[1:]
	switch args[0] {
	case "startpos":
		pos.SFEN = sg.StartSFEN
	case "sfen":
		i := 0
		for i < len(rest) && rest[i] != "moves" {
			i++
		}
		b, err := sg.ParseSFEN(strings.Join(rest[:i], " "))
		if err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
		pos.SFEN = b.SFEN()
		rest = rest[i:]
	default:
		return nil, errors.Wrapf(ErrMalformed, "position: unexpected %q", args[0])
	}
	if len(rest) == 0 {
		return pos, nil
	}
	if rest[0] != "moves" {
		return nil, errors.Wrapf(ErrMalformed, "position: unexpected %q", rest[0])
	}
	pos.Moves = make([]sg.Move, 0, len(rest)-1)
	for _, s := range rest[1:] {
		m, err := sg.ParseMove(s)
		if err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
		pos.Moves = append(pos.Moves, m)
	}
	return pos, nil
}

func parseGo(args []string) (Command, error) {
	var g Go
	for i := 0; i < len(args); i++ {
		tok := args[i]
		switch tok {
		case "infinite":
			g.Infinite = true
			continue
		case "ponder":
			g.Ponder = true
			continue
		case "mate":
			g.Mate = true
			if i+1 < len(args) && args[i+1] == "infinite" {
				g.MateInfinite = true
				i++
				continue
			}
		}

		if i+1 >= len(args) {
			return nil, errors.Wrapf(ErrMalformed, "go: %s needs a value", tok)
		}
		n, err := strconv.ParseInt(args[i+1], 10, 64)
		if err != nil || n < 0 {
			return nil, errors.Wrapf(ErrMalformed, "go: bad %s value %q", tok, args[i+1])
		}
		i++
		d := time.Duration(n) * time.Millisecond
		switch tok {
		case "btime":
			g.BTime = d
		case "wtime":
			g.WTime = d
		case "binc":
			g.BInc = d
		case "winc":
			g.WInc = d
		case "byoyomi":
			g.Byoyomi = d
		case "movetime":
			g.MoveTime = d
		case "depth":
			g.Depth = int(n)
		case "mate":
			g.MateTime = d
		default:
			return nil, errors.Wrapf(ErrMalformed, "go: unknown subcommand %q", tok)
		}
	}
	return g, nil
}

func parseGameOver(args []string) (Command, error) {
	if len(args) != 1 {
		return nil, errors.Wrap(ErrMalformed, "gameover: want win, lose or draw")
	}
	switch args[0] {
	case "win":
		return GameOver{Win}, nil
	case "lose":
		return GameOver{Lose}, nil
	case "draw":
		return GameOver{Draw}, nil
	}
	return nil, errors.Wrapf(ErrMalformed, "gameover: bad result %q", args[0])
}
