// Package engine runs a search agent behind the USI protocol: an input
// reader, an event dispatcher, a think worker and an output writer.
package engine

import (
	"bufio"
	"context"
	"io"
	"log"
	"sync"

	"github.com/pkg/errors"

	sg "shogi-engine/shogimg"
	"shogi-engine/usi"
)

// MaxLineLength is the longest input line kept; the rest is discarded.
const MaxLineLength = 4096

// ErrUnexpected is returned by a handler when a command arrives in a state
// that does not accept it. The command is ignored.
var ErrUnexpected = errors.New("command not valid in this state")

// State is the host session state.
type State int

const (
	Idle State = iota
	Booting
	Ready
	Positioning
	Thinking
	Pondering
	// GameOver is not entered; gameover returns the host to Ready.
	GameOver
	Quitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Booting:
		return "booting"
	case Ready:
		return "ready"
	case Positioning:
		return "positioning"
	case Thinking:
		return "thinking"
	case Pondering:
		return "pondering"
	case GameOver:
		return "gameover"
	case Quitting:
		return "quitting"
	}
	return "?"
}

// Host drives one Agent over a USI session.
type Host struct {
	agent  Agent
	opts   *usi.Options
	in     io.Reader
	out    *OutputWorker
	logger *log.Logger

	events *EventQueue
	disp   *Dispatcher
	user   *EventQueue

	mu        sync.Mutex
	state     State
	board     *sg.Board
	history   *sg.History
	posErr    error
	thinkDone chan struct{}
	workerErr error
}

// NewHost wires a to the input and output streams.
func NewHost(a Agent, in io.Reader, out io.Writer, logger *log.Logger) *Host {
	h := &Host{
		agent:  a,
		opts:   usi.NewOptions(a.Options()...),
		in:     in,
		out:    NewOutputWorker(out, DefaultOutputBuffer, logger),
		logger: logger,
		events: NewEventQueue(DefaultQueueLimit),
		disp:   NewDispatcher(logger),
		user:   NewEventQueue(DefaultQueueLimit),
	}
	h.disp.On(usi.KindUsi, h.onUsi)
	h.disp.On(usi.KindIsReady, h.onIsReady)
	h.disp.On(usi.KindSetOption, h.onSetOption)
	h.disp.On(usi.KindUsiNewGame, h.onUsiNewGame)
	h.disp.On(usi.KindPosition, h.onPosition)
	h.disp.On(usi.KindGo, h.onGo)
	h.disp.On(usi.KindStop, h.onStop)
	h.disp.On(usi.KindPonderHit, h.onPonderHit)
	h.disp.On(usi.KindGameOver, h.onGameOver)
	h.disp.On(usi.KindQuit, h.onQuit)
	return h
}

// State returns the current session state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Host) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Run reads commands until quit, end of input, a think worker panic or
// ctx cancellation. It returns nil after a clean quit.
func (h *Host) Run(ctx context.Context) error {
	go h.readInput()
	for {
		cmds, err := h.events.Wait(ctx)
		if err != nil {
			h.shutdown()
			if errors.Cause(err) == ErrClosed {
				return h.finish()
			}
			h.finish()
			return err
		}
		if err := h.disp.Dispatch(cmds); err != nil {
			h.logger.Printf("dispatch: %v", err)
		}
		if h.State() == Quitting {
			return h.finish()
		}
	}
}

func (h *Host) finish() error {
	if err := h.out.Close(); err != nil {
		return errors.Wrap(err, "output")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.workerErr
}

// shutdown stops a running think and tells the agent to quit, unless a
// quit command already did.
func (h *Host) shutdown() {
	if h.State() == Quitting {
		return
	}
	h.stopThink(usi.Quit{})
	h.agent.Quit()
	h.setState(Quitting)
	h.events.Close()
}

func (h *Host) readInput() {
	r := bufio.NewReaderSize(h.in, MaxLineLength)
	for {
		line, err := readLine(r, h.logger)
		if err != nil {
			if err != io.EOF {
				h.logger.Printf("input: %v", err)
			}
			if perr := h.events.Push(usi.Quit{}); perr != nil && errors.Cause(perr) != ErrClosed {
				h.logger.Printf("input: %v", perr)
			}
			return
		}
		if line == "" {
			continue
		}
		cmd, err := usi.ParseCommand(line)
		if err != nil {
			h.logger.Printf("ignoring %q: %v", line, err)
			_ = h.out.Send(usi.InfoString("ignored: " + err.Error()))
			continue
		}
		if err := h.events.Push(cmd); err != nil {
			if errors.Cause(err) == ErrClosed {
				return
			}
			h.logger.Printf("dropping %s: %v", cmd.Kind(), err)
		}
	}
}

// readLine returns one line without its terminator, truncated to
// MaxLineLength.
func readLine(r *bufio.Reader, logger *log.Logger) (string, error) {
	chunk, isPrefix, err := r.ReadLine()
	if err != nil {
		return "", err
	}
	line := string(chunk)
	if !isPrefix {
		return line, nil
	}
	dropped := 0
	for isPrefix {
		chunk, isPrefix, err = r.ReadLine()
		if err != nil {
			break
		}
		dropped += len(chunk)
	}
	logger.Printf("input line longer than %d bytes truncated, %d bytes dropped", MaxLineLength, dropped)
	return line, nil
}

func (h *Host) reject(cmd usi.Command) error {
	st := h.State()
	_ = h.out.Send(usi.InfoString(cmd.Kind().String() + " ignored in state " + st.String()))
	return errors.Wrapf(ErrUnexpected, "%s in %s", cmd.Kind(), st)
}

func (h *Host) onUsi(usi.Command) error {
	if err := h.out.Send(h.agent.Identity()); err != nil {
		return err
	}
	for _, o := range h.opts.Decls() {
		if err := h.out.Send(usi.OptionDecl(o)); err != nil {
			h.logger.Printf("option %s: %v", o.Name, err)
		}
	}
	if err := h.out.Send(usi.USIOK{}); err != nil {
		return err
	}
	h.mu.Lock()
	if h.state == Idle {
		h.state = Booting
	}
	h.mu.Unlock()
	return nil
}

func (h *Host) onIsReady(cmd usi.Command) error {
	switch h.State() {
	case Idle, Quitting:
		return h.reject(cmd)
	case Booting:
		if err := h.agent.TakeReady(); err != nil {
			_ = h.out.Send(usi.InfoString("not ready: " + err.Error()))
			return errors.Wrap(err, "take ready")
		}
		h.setState(Ready)
	}
	return h.out.Send(usi.ReadyOK{})
}

func (h *Host) onSetOption(cmd usi.Command) error {
	switch h.State() {
	case Thinking, Pondering, Quitting:
		return h.reject(cmd)
	}
	so := cmd.(usi.SetOption)
	d, ok := h.opts.Lookup(so.Name)
	if !ok {
		_ = h.out.Send(usi.InfoString("no such option " + so.Name))
		return errors.Wrapf(usi.ErrMalformed, "no option named %q", so.Name)
	}
	if err := h.opts.Set(d.Name, so.Value); err != nil {
		_ = h.out.Send(usi.InfoString(err.Error()))
		return err
	}
	return h.agent.SetOption(d.Name, h.opts.Get(d.Name))
}

func (h *Host) onUsiNewGame(cmd usi.Command) error {
	switch h.State() {
	case Ready, Positioning, GameOver:
	default:
		return h.reject(cmd)
	}
	h.agent.NewGame()
	h.mu.Lock()
	h.board, h.history, h.posErr = nil, nil, nil
	h.state = Ready
	h.mu.Unlock()
	return nil
}

func (h *Host) onPosition(cmd usi.Command) error {
	switch h.State() {
	case Ready, Positioning, GameOver:
	default:
		return h.reject(cmd)
	}
	pos := cmd.(usi.Position)
	b, hist, err := replay(pos)
	if err == nil {
		err = h.agent.SetPosition(b.Clone(), hist.Clone())
	}
	h.mu.Lock()
	h.board, h.history, h.posErr = b, hist, err
	h.state = Positioning
	h.mu.Unlock()
	if err != nil {
		_ = h.out.Send(usi.InfoString("bad position: " + err.Error()))
		return errors.Wrap(err, "position")
	}
	return nil
}

// replay builds the board and repetition history of a position command.
func replay(pos usi.Position) (*sg.Board, *sg.History, error) {
	b, err := sg.ParseSFEN(pos.SFEN)
	if err != nil {
		return nil, nil, err
	}
	hist := sg.NewHistory(b)
	for i, m := range pos.Moves {
		if _, err := b.ApplyMove(m); err != nil {
			return b, hist, errors.Wrapf(err, "move %d", i+1)
		}
		hist.Push(b)
	}
	return b, hist, nil
}

func (h *Host) onGo(cmd usi.Command) error {
	if h.State() != Positioning {
		return h.reject(cmd)
	}
	g := cmd.(usi.Go)
	h.mu.Lock()
	b, hist, posErr := h.board, h.history, h.posErr
	h.mu.Unlock()

	if posErr != nil {
		h.setState(Ready)
		if g.Mate {
			return h.out.SendImmediate(usi.Checkmate{Kind: usi.CheckmateNoMate})
		}
		return h.out.SendImmediate(usi.Resign())
	}

	// stale stop or ponderhit from an earlier search
	h.user.Drain()
	s := NewSearch(h.agent, b.Clone(), hist.Clone(), g, h.user, h.out, h.logger)
	done := make(chan struct{})
	h.mu.Lock()
	h.thinkDone = done
	if g.Ponder {
		h.state = Pondering
	} else {
		h.state = Thinking
	}
	h.mu.Unlock()
	go h.think(s, done)
	return nil
}

// think runs on the think worker. It owns s and the agent until it
// returns.
func (h *Host) think(s *Search, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("think worker panic: %v", r)
			h.logger.Print(err)
			h.mu.Lock()
			h.workerErr = err
			h.mu.Unlock()
			h.events.Close()
		}
	}()

	var resp usi.Response
	if s.Limits.Mate {
		resp = h.agent.ThinkMate(s)
	} else {
		resp = h.agent.Think(s)
	}
	s.AwaitPonderEnd()
	if err := h.out.SendImmediate(resp); err != nil {
		h.logger.Printf("search result: %v", err)
		if errors.Cause(err) == usi.ErrInvalidInfo && !s.Limits.Mate {
			_ = h.out.SendImmediate(usi.Resign())
		}
	}

	h.mu.Lock()
	if h.state == Thinking || h.state == Pondering {
		h.state = Ready
	}
	h.mu.Unlock()
}

// stopThink hands ev to a running search and waits for it to finish.
func (h *Host) stopThink(ev usi.Command) {
	h.mu.Lock()
	done := h.thinkDone
	running := h.state == Thinking || h.state == Pondering
	h.mu.Unlock()
	if done == nil {
		return
	}
	if running {
		if err := h.user.Push(ev); err != nil {
			h.logger.Printf("%s: %v", ev.Kind(), err)
		}
	}
	<-done
}

func (h *Host) onStop(usi.Command) error {
	switch h.State() {
	case Thinking, Pondering:
		h.stopThink(usi.Stop{})
	}
	return nil
}

func (h *Host) onPonderHit(cmd usi.Command) error {
	h.mu.Lock()
	st := h.state
	if st == Pondering {
		h.state = Thinking
	}
	h.mu.Unlock()
	if st != Pondering && st != Thinking {
		return h.reject(cmd)
	}
	return h.user.Push(cmd)
}

func (h *Host) onGameOver(cmd usi.Command) error {
	if h.State() == Quitting {
		return h.reject(cmd)
	}
	h.stopThink(usi.Stop{})
	h.agent.GameOver(cmd.(usi.GameOver).Result)
	h.setState(Ready)
	return nil
}

func (h *Host) onQuit(usi.Command) error {
	h.shutdown()
	return nil
}
