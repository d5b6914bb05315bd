package selfmatch

import (
	"fmt"
	"log"
	"time"

	"github.com/pkg/errors"

	"shogi-engine/engine"
	sg "shogi-engine/shogimg"
	"shogi-engine/usi"
)

// ErrUnresponsive is reported for an agent that ignored stop.
var ErrUnresponsive = errors.New("agent unresponsive")

// settleLimit bounds the wait for a stopped think to return.
const settleLimit = 5 * time.Second

// Player names an agent taking part in a match.
type Player struct {
	Name  string
	Agent engine.Agent
}

type thinkResult struct {
	best usi.BestMove
	err  error
}

// runner drives one agent. Think runs on its own goroutine; every other
// agent call is made by the driver while no think is in flight.
type runner struct {
	name     string
	agent    engine.Agent
	user     *engine.EventQueue
	sink     engine.InfoSink
	logger   *log.Logger
	inflight chan thinkResult
	broken   bool
}

func newRunner(p Player, logInfo bool, logger *log.Logger) *runner {
	name := p.Name
	if name == "" {
		name = p.Agent.Identity().Name
	}
	return &runner{
		name:   name,
		agent:  p.Agent,
		user:   engine.NewEventQueue(engine.DefaultQueueLimit),
		sink:   &logSink{name: name, enabled: logInfo, logger: logger},
		logger: logger,
	}
}

// configure applies options, validated against the agent's declarations,
// and waits for the agent to get ready.
func (r *runner) configure(values map[string]string) error {
	opts := usi.NewOptions(r.agent.Options()...)
	for name, value := range values {
		if err := opts.Set(name, value); err != nil {
			return errors.Wrapf(err, "%s", r.name)
		}
		d, _ := opts.Lookup(name)
		if err := r.agent.SetOption(d.Name, opts.Get(d.Name)); err != nil {
			return errors.Wrapf(err, "%s: setoption %s", r.name, d.Name)
		}
	}
	return errors.Wrapf(r.agent.TakeReady(), "%s: isready", r.name)
}

// think starts a search on its own goroutine. A panic in the agent is
// returned as the result's error.
func (r *runner) think(b *sg.Board, h *sg.History, g usi.Go) <-chan thinkResult {
	ch := make(chan thinkResult, 1)
	r.inflight = ch
	if r.broken {
		ch <- thinkResult{err: ErrUnresponsive}
		return ch
	}
	r.user.Drain()
	s := engine.NewSearch(r.agent, b, h, g, r.user, r.sink, r.logger)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- thinkResult{err: errors.Errorf("panic: %v", p)}
			}
		}()
		best := r.agent.Think(s)
		s.AwaitPonderEnd()
		ch <- thinkResult{best: best}
	}()
	return ch
}

// collected marks the in-flight think as finished.
func (r *runner) collected() { r.inflight = nil }

// send delivers stop, ponderhit or quit to the running search.
func (r *runner) send(cmd usi.Command) {
	if err := r.user.Push(cmd); err != nil {
		r.logger.Printf("%s: %s not delivered: %v", r.name, cmd.Kind(), err)
	}
}

// settle stops any in-flight think and waits for it to return.
func (r *runner) settle() {
	if r.inflight == nil {
		return
	}
	r.send(usi.Stop{})
	select {
	case <-r.inflight:
	case <-time.After(settleLimit):
		r.logger.Printf("%s did not stop within %v", r.name, settleLimit)
		r.broken = true
	}
	r.inflight = nil
}

func (r *runner) gameOver(res usi.GameResult) {
	r.settle()
	if !r.broken {
		r.agent.GameOver(res)
	}
}

func (r *runner) quit() {
	if r.inflight != nil {
		r.send(usi.Quit{})
		r.settle()
	}
	r.user.Close()
	if !r.broken {
		r.agent.Quit()
	}
}

// logSink writes an agent's info lines to the log when enabled.
type logSink struct {
	name    string
	enabled bool
	logger  *log.Logger
}

func (l *logSink) Send(resp usi.Response) error {
	line, err := resp.Format()
	if err != nil {
		return err
	}
	if l.enabled {
		_ = l.logger.Output(2, fmt.Sprintf("[%s] %s", l.name, line))
	}
	return nil
}
