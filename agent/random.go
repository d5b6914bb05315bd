// Package agent holds reference agents for the engine host and the
// self-match driver.
package agent

import (
	"log"
	"math/rand"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"shogi-engine/engine"
	sg "shogi-engine/shogimg"
	"shogi-engine/usi"
)

const (
	StyleRandom     = "Random"
	StyleAggressive = "Aggressive"
)

// Random plays a uniformly random legal move. It still follows the whole
// agent contract: it polls for stop, reports info lines, declares
// nyugyoku, resigns when mated and steers clear of perpetual-check losses.
type Random struct {
	name   string
	logger *log.Logger

	hashMB    int
	seed      int64
	mateFirst bool
	style     string

	rng     *rand.Rand
	board   *sg.Board
	history *sg.History
	games   int

	stopped  bool
	ponderAt time.Time
}

var _ engine.Agent = (*Random)(nil)

// NewRandom returns a Random agent. A zero Seed option seeds from the
// clock when TakeReady runs.
func NewRandom(name string, logger *log.Logger) *Random {
	if name == "" {
		name = "shogi-engine random"
	}
	return &Random{
		name:      name,
		logger:    logger,
		hashMB:    16,
		mateFirst: true,
		style:     StyleRandom,
	}
}

func (r *Random) Identity() usi.ID {
	return usi.ID{Name: r.name, Author: "shogi-engine authors"}
}

func (r *Random) Options() []usi.Option {
	hash, err := usi.SpinOption("USI_Hash", r.hashMB, 1, 1024)
	if err != nil {
		panic(err)
	}
	seed, err := usi.SpinOption("Seed", int(r.seed), 0, 1<<31-1)
	if err != nil {
		panic(err)
	}
	style, err := usi.ComboOption("Style", r.style, []string{StyleRandom, StyleAggressive})
	if err != nil {
		panic(err)
	}
	return []usi.Option{hash, seed, usi.CheckOption("MateFirst", r.mateFirst), style}
}

func (r *Random) SetOption(name, value string) error {
	switch name {
	case "USI_Hash":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrap(err, name)
		}
		r.hashMB = n
	case "Seed":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return errors.Wrap(err, name)
		}
		r.seed = n
		r.rng = nil
	case "MateFirst":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrap(err, name)
		}
		r.mateFirst = b
	case "Style":
		r.style = value
	default:
		return errors.Errorf("unknown option %q", name)
	}
	return nil
}

func (r *Random) TakeReady() error {
	if r.rng == nil {
		seed := r.seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		r.rng = rand.New(rand.NewSource(seed))
	}
	return nil
}

func (r *Random) NewGame() {
	r.games++
	r.board, r.history = nil, nil
}

func (r *Random) SetPosition(b *sg.Board, h *sg.History) error {
	r.board, r.history = b, h
	return nil
}

// losesByPerpetualCheck reports whether playing m repeats a position for
// the fourth time while we have been checking all along.
func losesByPerpetualCheck(h *sg.History, next *sg.Board) bool {
	if h == nil || !next.InCheck(next.SideToMove()) {
		return false
	}
	return h.IsSennichiteByOute(next.Hash())
}

func (r *Random) Think(s *engine.Search) usi.BestMove {
	if err := r.TakeReady(); err != nil {
		return usi.Resign()
	}
	r.stopped = false
	b := s.Board
	if b.IsNyugyokuWin(time.Time{}) {
		s.Info(usi.InfoString("entering king declaration"))
		return usi.DeclareWin()
	}

	moves := b.LegalMoves()
	if len(moves) == 0 {
		s.Info(usi.InfoString("no legal moves"))
		return usi.Resign()
	}
	r.rng.Shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })

	best := sg.NullMove
	bestScore := -1
	var reply sg.Move
	for i, m := range moves {
		if i%8 == 0 && (s.Poll() || s.TimeUp()) && best != sg.NullMove {
			break
		}
		next, _ := b.Next(m)
		s.AddNodes(1)
		if losesByPerpetualCheck(s.History, &next) {
			continue
		}
		if r.mateFirst && next.IsMate() {
			s.Info(usi.NewInfo().Depth(1).Score(usi.MateIn(1)).Nodes(s.Nodes()).PV(m))
			return usi.BestMove{Move: m}
		}
		score := 0
		if r.style == StyleAggressive {
			if m.IsCapture() {
				score += 2
			}
			if next.InCheck(next.SideToMove()) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = m, score
			if replies := next.LegalMoves(); len(replies) > 0 {
				reply = replies[r.rng.Intn(len(replies))]
			} else {
				reply = sg.NullMove
			}
		}
	}
	if best == sg.NullMove {
		// every move loses by perpetual check
		best = moves[0]
		reply = sg.NullMove
	}

	s.Info(usi.NewInfo().
		Depth(1).
		Time(s.Elapsed()).
		Nodes(s.Nodes()).
		Score(usi.Cp(0)).
		PV(best))
	return usi.BestMove{Move: best, Ponder: reply}
}

// ThinkMate answers mate-in-one problems. Deeper mates are reported as
// not implemented.
func (r *Random) ThinkMate(s *engine.Search) usi.Checkmate {
	b := s.Board
	checks := 0
	for _, m := range b.LegalMoves() {
		if s.Poll() {
			return usi.Checkmate{Kind: usi.CheckmateTimeout}
		}
		if !b.GivesCheck(m) {
			continue
		}
		checks++
		next, _ := b.Next(m)
		if next.IsMate() {
			return usi.Checkmate{Moves: []sg.Move{m}}
		}
	}
	if checks == 0 {
		return usi.Checkmate{Kind: usi.CheckmateNoMate}
	}
	return usi.Checkmate{Kind: usi.CheckmateNotImplemented}
}

func (r *Random) OnStop() { r.stopped = true }

func (r *Random) OnPonderHit(at time.Time) { r.ponderAt = at }

func (r *Random) OnQuit() { r.stopped = true }

func (r *Random) GameOver(res usi.GameResult) {
	if r.logger != nil {
		r.logger.Printf("%s: game %d %s", r.name, r.games, res)
	}
}

func (r *Random) Quit() {}

// PonderHitAt is the anchor time of the last ponderhit.
func (r *Random) PonderHitAt() time.Time { return r.ponderAt }

// Stopped reports whether the last search was told to stop.
func (r *Random) Stopped() bool { return r.stopped }

// Games is the number of usinewgame calls seen.
func (r *Random) Games() int { return r.games }
