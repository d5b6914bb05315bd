package engine

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"shogi-engine/usi"
)

var (
	// ErrQueueFull is returned by Push when the queue for a kind is at its
	// limit. The event is dropped.
	ErrQueueFull = errors.New("event queue full")
	// ErrClosed is returned once a queue or output worker has shut down.
	ErrClosed = errors.New("closed")
)

// DefaultQueueLimit bounds each per-kind queue.
const DefaultQueueLimit = 64

type queued struct {
	seq uint64
	cmd usi.Command
}

// EventQueue holds one bounded FIFO per command kind behind a single lock.
// Drain returns everything queued in arrival order.
type EventQueue struct {
	mu     sync.Mutex
	limit  int
	seq    uint64
	kinds  [usi.NumKinds][]queued
	count  int
	closed bool
	notify chan struct{}
}

func NewEventQueue(limit int) *EventQueue {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	return &EventQueue{limit: limit, notify: make(chan struct{}, 1)}
}

// Push appends cmd to its kind's queue and wakes a waiter.
func (q *EventQueue) Push(cmd usi.Command) error {
	k := cmd.Kind()
	if k < 0 || k >= usi.NumKinds {
		return errors.Errorf("event kind %d out of range", k)
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if len(q.kinds[k]) >= q.limit {
		q.mu.Unlock()
		return errors.Wrapf(ErrQueueFull, "%s", k)
	}
	q.seq++
	q.kinds[k] = append(q.kinds[k], queued{seq: q.seq, cmd: cmd})
	q.count++
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Len is the number of queued events over all kinds.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Drain removes and returns every queued event. It never blocks.
func (q *EventQueue) Drain() []usi.Command {
	q.mu.Lock()
	if q.count == 0 {
		q.mu.Unlock()
		return nil
	}
	all := make([]queued, 0, q.count)
	for k := range q.kinds {
		all = append(all, q.kinds[k]...)
		q.kinds[k] = q.kinds[k][:0]
	}
	q.count = 0
	q.mu.Unlock()

	slices.SortFunc(all, func(a, b queued) bool { return a.seq < b.seq })
	out := make([]usi.Command, len(all))
	for i, e := range all {
		out[i] = e.cmd
	}
	return out
}

// Wait blocks until at least one event is queued and drains the queue.
// Events pushed before Close are still delivered; after that Wait returns
// ErrClosed.
func (q *EventQueue) Wait(ctx context.Context) ([]usi.Command, error) {
	for {
		if cmds := q.Drain(); len(cmds) > 0 {
			return cmds, nil
		}
		q.mu.Lock()
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}
		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close rejects further pushes and releases waiters.
func (q *EventQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
