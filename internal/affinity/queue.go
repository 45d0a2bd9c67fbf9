package affinity

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	// ErrQueueClosed is returned by Post and Pump after Close.
	ErrQueueClosed = errors.New("affinity: queue closed")

	// ErrConcurrentPump is returned when Pump is entered while another Pump
	// is in progress. The queue has exactly one consumer; overlapping pumps
	// mean two goroutines both believe they are the affinity thread.
	ErrConcurrentPump = errors.New("affinity: concurrent pump")
)

// Queue is an unbounded multi-producer FIFO of callables that must only run
// on the designated affinity thread. Any goroutine may Post; only the
// affinity thread may Pump.
type Queue struct {
	logger *slog.Logger

	// mu guards fns and closed. Pump swaps the slice out under the lock and
	// executes the batch outside it, so producers are never blocked by a
	// running callable.
	mu     sync.Mutex
	fns    []func()
	closed bool

	// pumping enforces the single-consumer contract.
	pumping atomic.Bool
}

// New creates an empty queue. A nil logger means slog.Default().
func New(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{logger: logger}
}

// Post enqueues fn for execution during a later Pump. It is safe to call
// from any number of goroutines concurrently; global FIFO order follows the
// order in which posts acquire the queue lock.
func (q *Queue) Post(fn func()) error {
	if fn == nil {
		return errors.New("affinity: nil callable")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.fns = append(q.fns, fn)
	return nil
}

// Len returns the number of callables currently enqueued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fns)
}

// Pump drains and executes, in FIFO order, the callables enqueued at the
// moment of the drain, then returns the count executed. It never blocks
// waiting for new entries; posts racing with an in-progress pump land in a
// later pump, never lost and never duplicated. A panicking callable is
// logged and does not stop the drain.
func (q *Queue) Pump() (int, error) {
	if !q.pumping.CompareAndSwap(false, true) {
		return 0, ErrConcurrentPump
	}
	defer q.pumping.Store(false)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0, ErrQueueClosed
	}
	batch := q.fns
	q.fns = nil
	q.mu.Unlock()

	for _, fn := range batch {
		q.run(fn)
	}
	return len(batch), nil
}

func (q *Queue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Affinity callable panicked.", "panic", r)
		}
	}()
	fn()
}

// Close tears the queue down. Pending callables are dropped, not flushed;
// the count dropped is returned so the host can decide whether that matters.
// A host that wants a flush should Pump once before closing.
func (q *Queue) Close() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}
	q.closed = true
	dropped := len(q.fns)
	q.fns = nil
	if dropped > 0 {
		q.logger.Debug("Affinity queue closed with pending callables.", "dropped", dropped)
	}
	return dropped
}
