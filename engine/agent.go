package engine

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	sg "shogi-engine/shogimg"
	"shogi-engine/usi"
)

// Agent is a search implementation driven by the host. Think and ThinkMate
// run on the think worker; every other method runs on the dispatch
// goroutine while no think is in flight, except OnStop, OnPonderHit and
// OnQuit which are delivered through Search.Poll on the think worker.
type Agent interface {
	Identity() usi.ID
	Options() []usi.Option
	// SetOption receives values already validated against Options.
	SetOption(name, value string) error
	// TakeReady does any slow setup. The host answers readyok after it.
	TakeReady() error
	NewGame()
	SetPosition(b *sg.Board, h *sg.History) error

	Think(s *Search) usi.BestMove
	ThinkMate(s *Search) usi.Checkmate

	OnStop()
	OnPonderHit(at time.Time)
	OnQuit()

	GameOver(r usi.GameResult)
	Quit()
}

// Search is the agent's handle on one "go". The agent owns Board and
// History for the duration of the call.
type Search struct {
	Board   *sg.Board
	History *sg.History
	Limits  usi.Go

	started   time.Time
	th        *TimeHandler
	pondering atomic.Bool
	stopped   atomic.Bool
	quit      atomic.Bool

	agent Agent
	user  *EventQueue
	disp  *Dispatcher
	out   InfoSink
	nodes atomic.Uint64
}

// InfoSink receives the info lines of a search. OutputWorker is one.
type InfoSink interface {
	Send(r usi.Response) error
}

// NewSearch prepares a search over b for the limits g. User events for
// the search are read from user; info lines go to sink.
func NewSearch(a Agent, b *sg.Board, h *sg.History, g usi.Go, user *EventQueue, sink InfoSink, logger *log.Logger) *Search {
	now := time.Now()
	th := &TimeHandler{}
	th.StartTime(b, g, now)
	s := &Search{
		Board:   b,
		History: h,
		Limits:  g,
		started: now,
		th:      th,
		agent:   a,
		user:    user,
		out:     sink,
		disp:    NewDispatcher(logger),
	}
	s.pondering.Store(g.Ponder)
	s.disp.On(usi.KindStop, func(usi.Command) error {
		s.stopped.Store(true)
		s.agent.OnStop()
		return nil
	})
	s.disp.On(usi.KindPonderHit, func(usi.Command) error {
		now := time.Now()
		if s.pondering.Swap(false) {
			s.th.Update(now)
		}
		s.agent.OnPonderHit(now)
		return nil
	})
	s.disp.On(usi.KindQuit, func(usi.Command) error {
		s.stopped.Store(true)
		s.quit.Store(true)
		s.agent.OnQuit()
		return nil
	})
	return s
}

// Poll drains pending user events (stop, ponderhit, quit) and hands each
// to the agent. It returns true once the search has been told to stop.
// Agents call it at whatever cadence suits them; it never blocks.
func (s *Search) Poll() bool {
	if cmds := s.user.Drain(); len(cmds) > 0 {
		_ = s.disp.Dispatch(cmds)
	}
	return s.stopped.Load()
}

// Stopped reports a stop or quit seen by Poll.
func (s *Search) Stopped() bool { return s.stopped.Load() }

// QuitRequested reports a quit seen by Poll.
func (s *Search) QuitRequested() bool { return s.quit.Load() }

// Pondering is true until a ponderhit arrives for a "go ponder".
func (s *Search) Pondering() bool { return s.pondering.Load() }

// Started is when the go arrived.
func (s *Search) Started() time.Time { return s.started }

// Deadline is the soft time limit. It is unset while pondering.
func (s *Search) Deadline() (time.Time, bool) {
	if s.Pondering() {
		return time.Time{}, false
	}
	return s.th.Deadline()
}

// TimeUp reports whether the deadline has passed. Pondering searches
// never time out.
func (s *Search) TimeUp() bool {
	return !s.Pondering() && s.th.TimeStatus(time.Now())
}

// Elapsed is the time since the go arrived.
func (s *Search) Elapsed() time.Duration { return time.Since(s.started) }

// AddNodes accumulates the node counter reported by Info.
func (s *Search) AddNodes(n uint64) uint64 { return s.nodes.Add(n) }

// Nodes returns the node counter.
func (s *Search) Nodes() uint64 { return s.nodes.Load() }

// Info queues an info line. Lines are written in the order they are
// queued and always before the bestmove that ends this search.
func (s *Search) Info(i *usi.Info) {
	_ = s.out.Send(i)
}

// Budget is the time allotted to this move.
func (s *Search) Budget() time.Duration { return s.th.Budget() }

// AwaitPonderEnd blocks after an early return from a ponder search until
// stop, ponderhit or quit arrives.
func (s *Search) AwaitPonderEnd() {
	for s.Pondering() && !s.Stopped() {
		cmds, err := s.user.Wait(context.Background())
		if err != nil {
			return
		}
		_ = s.disp.Dispatch(cmds)
	}
}
