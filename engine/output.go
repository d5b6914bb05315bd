package engine

import (
	"bufio"
	"io"
	"log"
	"sync"

	"github.com/pkg/errors"

	"shogi-engine/usi"
)

// DefaultOutputBuffer bounds the number of lines waiting to be written.
const DefaultOutputBuffer = 256

type outLine struct {
	text string
	done chan struct{}
}

// OutputWorker writes response lines from one goroutine so that searches
// never wait on the writer. Lines leave in the order they were queued.
type OutputWorker struct {
	mu     sync.RWMutex
	closed bool
	ch     chan outLine
	w      *bufio.Writer
	logger *log.Logger
	err    error
	wg     sync.WaitGroup
}

func NewOutputWorker(w io.Writer, buffer int, logger *log.Logger) *OutputWorker {
	if buffer <= 0 {
		buffer = DefaultOutputBuffer
	}
	o := &OutputWorker{
		ch:     make(chan outLine, buffer),
		w:      bufio.NewWriter(w),
		logger: logger,
	}
	o.wg.Add(1)
	go o.run()
	return o
}

func (o *OutputWorker) run() {
	defer o.wg.Done()
	for l := range o.ch {
		if l.text != "" && o.err == nil {
			if _, err := o.w.WriteString(l.text + "\n"); err != nil {
				o.fail(err)
			}
		}
		if l.done != nil || len(o.ch) == 0 {
			o.flush()
		}
		if l.done != nil {
			close(l.done)
		}
	}
	o.flush()
}

func (o *OutputWorker) flush() {
	if o.err != nil {
		return
	}
	if err := o.w.Flush(); err != nil {
		o.fail(err)
	}
}

func (o *OutputWorker) fail(err error) {
	o.err = err
	o.logger.Printf("output: %v", err)
}

func (o *OutputWorker) format(r usi.Response) (string, bool) {
	s, err := r.Format()
	if err != nil {
		o.logger.Printf("dropping output line: %v", err)
		return "", false
	}
	return s, true
}

func (o *OutputWorker) enqueue(l outLine) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrClosed
	}
	o.ch <- l
	return nil
}

// Send queues r. A response that fails to format is logged and dropped.
func (o *OutputWorker) Send(r usi.Response) error {
	s, ok := o.format(r)
	if !ok {
		return errors.Wrap(usi.ErrInvalidInfo, "not sent")
	}
	return o.enqueue(outLine{text: s})
}

// SendImmediate queues r behind everything already pending and waits
// until it has been written. Used for bestmove so no info of the same
// search can follow it.
func (o *OutputWorker) SendImmediate(r usi.Response) error {
	s, ok := o.format(r)
	if !ok {
		return errors.Wrap(usi.ErrInvalidInfo, "not sent")
	}
	done := make(chan struct{})
	if err := o.enqueue(outLine{text: s, done: done}); err != nil {
		return err
	}
	<-done
	return nil
}

// Flush waits until every queued line has been written.
func (o *OutputWorker) Flush() error {
	done := make(chan struct{})
	if err := o.enqueue(outLine{done: done}); err != nil {
		return err
	}
	<-done
	return nil
}

// Close writes what is pending and stops the worker. It returns the first
// write error, if any.
func (o *OutputWorker) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.wg.Wait()
		return o.err
	}
	o.closed = true
	close(o.ch)
	o.mu.Unlock()
	o.wg.Wait()
	return o.err
}
