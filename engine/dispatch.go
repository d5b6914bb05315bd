package engine

import (
	"log"
	"sync"

	"github.com/pkg/errors"

	"shogi-engine/usi"
)

// ErrHandlersFailed is returned by Dispatch when at least one handler
// returned an error or panicked during the drain.
var ErrHandlersFailed = errors.New("one or more handlers failed")

// Handler reacts to one event.
type Handler func(cmd usi.Command) error

type registration struct {
	fn   Handler
	once bool
}

// Dispatcher calls handlers registered per kind, in registration order.
// Once-handlers are removed before they run, so they run at most once
// whatever the outcome.
type Dispatcher struct {
	mu       sync.Mutex
	handlers [usi.NumKinds][]registration
	logger   *log.Logger
}

func NewDispatcher(logger *log.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// On registers a persistent handler.
func (d *Dispatcher) On(k usi.Kind, fn Handler) {
	d.add(k, registration{fn: fn})
}

// Once registers a handler dropped after its first call.
func (d *Dispatcher) Once(k usi.Kind, fn Handler) {
	d.add(k, registration{fn: fn, once: true})
}

func (d *Dispatcher) add(k usi.Kind, r registration) {
	d.mu.Lock()
	d.handlers[k] = append(d.handlers[k], r)
	d.mu.Unlock()
}

// Handlers reports how many handlers are registered for k.
func (d *Dispatcher) Handlers(k usi.Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers[k])
}

// take snapshots the handlers for k and strips the once entries.
func (d *Dispatcher) take(k usi.Kind) []registration {
	d.mu.Lock()
	defer d.mu.Unlock()
	regs := d.handlers[k]
	if len(regs) == 0 {
		return nil
	}
	snap := make([]registration, len(regs))
	copy(snap, regs)
	kept := regs[:0]
	for _, r := range regs {
		if !r.once {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(regs); i++ {
		regs[i] = registration{}
	}
	d.handlers[k] = kept
	return snap
}

// Dispatch delivers each event to its handlers without holding the lock.
// A failing handler is logged and the rest still run.
func (d *Dispatcher) Dispatch(events []usi.Command) error {
	failed := 0
	for _, ev := range events {
		for _, r := range d.take(ev.Kind()) {
			if err := d.call(r.fn, ev); err != nil {
				failed++
				d.logger.Printf("handler for %s failed: %v", ev.Kind(), err)
			}
		}
	}
	if failed > 0 {
		return errors.Wrapf(ErrHandlersFailed, "%d failures", failed)
	}
	return nil
}

func (d *Dispatcher) call(fn Handler, ev usi.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return fn(ev)
}
