package usi

import (
	"strings"

	"github.com/pkg/errors"

	sg "shogi-engine/shogimg"
)

// ErrInvalidInfo is returned when a response cannot be rendered because a
// required field is missing or fields conflict. The line is not sent.
var ErrInvalidInfo = errors.New("invalid engine output")

// Response is one or more engine output lines.
type Response interface {
	Format() (string, error)
}

// ID renders the "id name" and "id author" lines.
type ID struct {
	Name   string
	Author string
}

func (id ID) Format() (string, error) {
	if id.Name == "" {
		return "", errors.Wrap(ErrInvalidInfo, "id without name")
	}
	s := "id name " + id.Name
	if id.Author != "" {
		s += "\nid author " + id.Author
	}
	return s, nil
}

type USIOK struct{}

func (USIOK) Format() (string, error) { return "usiok", nil }

type ReadyOK struct{}

func (ReadyOK) Format() (string, error) { return "readyok", nil }

// BestMove is the answer to a "go".
type BestMove struct {
	Move   sg.Move
	Ponder sg.Move
	Resign bool
	Win    bool
}

// MoveOf returns a BestMove playing m.
func MoveOf(m sg.Move) BestMove { return BestMove{Move: m} }

// Resign returns "bestmove resign".
func Resign() BestMove { return BestMove{Resign: true} }

// DeclareWin returns "bestmove win", the entering-king declaration.
func DeclareWin() BestMove { return BestMove{Win: true} }

func (b BestMove) Format() (string, error) {
	switch {
	case b.Resign && b.Win:
		return "", errors.Wrap(ErrInvalidInfo, "bestmove: both resign and win")
	case b.Resign:
		return "bestmove resign", nil
	case b.Win:
		return "bestmove win", nil
	case b.Move == sg.NullMove:
		return "", errors.Wrap(ErrInvalidInfo, "bestmove: no move")
	}
	s := "bestmove " + b.Move.String()
	if b.Ponder != sg.NullMove {
		s += " ponder " + b.Ponder.String()
	}
	return s, nil
}

func (b BestMove) String() string {
	s, err := b.Format()
	if err != nil {
		return "bestmove ?"
	}
	return s
}

// CheckmateKind distinguishes the "checkmate" answers to "go mate".
type CheckmateKind int

const (
	CheckmateFound CheckmateKind = iota
	CheckmateNoMate
	CheckmateTimeout
	CheckmateNotImplemented
)

// Checkmate is the answer to "go mate".
type Checkmate struct {
	Kind  CheckmateKind
	Moves []sg.Move
}

func (c Checkmate) Format() (string, error) {
	switch c.Kind {
	case CheckmateNoMate:
		return "checkmate nomate", nil
	case CheckmateTimeout:
		return "checkmate timeout", nil
	case CheckmateNotImplemented:
		return "checkmate notimplemented", nil
	case CheckmateFound:
		if len(c.Moves) == 0 {
			return "", errors.Wrap(ErrInvalidInfo, "checkmate: no moves")
		}
		parts := make([]string, len(c.Moves))
		for i, m := range c.Moves {
			parts[i] = m.String()
		}
		return "checkmate " + strings.Join(parts, " "), nil
	}
	return "", errors.Wrap(ErrInvalidInfo, "checkmate: unknown kind")
}

// OptionDecl adapts an Option declaration to Response.
type OptionDecl Option

func (o OptionDecl) Format() (string, error) { return Option(o).Format() }
