package scheduler

import (
	"context"
	"fmt"
	"time"
)

// assistPollInterval bounds how long an assisting waiter sleeps when no
// ready node is available to steal.
const assistPollInterval = time.Millisecond

// Handle is a shared reference to a task node. Copying a Handle shares the
// node; it never duplicates the work. Handles are valid as prerequisites for
// later launches and remain readable after the node completes.
type Handle struct {
	s *Scheduler
	n *node
}

// ID returns the node's scheduler-unique identifier.
func (h *Handle) ID() uint64 { return h.n.id }

// Name returns the label the node was launched with.
func (h *Handle) Name() string { return h.n.name }

// State returns the node's current lifecycle state.
func (h *Handle) State() State { return h.n.loadState() }

// IsCompleted reports whether the node has reached a terminal state. It
// never blocks.
func (h *Handle) IsCompleted() bool {
	return h.n.loadState().Terminal()
}

// Wait blocks until the node is terminal or ctx is done. When called from a
// worker goroutine of the same pool, the blocked worker executes other ready
// nodes instead of idling, so nested launch-and-wait patterns cannot exhaust
// the pool.
func (h *Handle) Wait(ctx context.Context) error {
	if fromWorker(ctx, h.s) {
		return h.assistingWait(ctx)
	}
	select {
	case <-h.n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) assistingWait(ctx context.Context) error {
	for {
		select {
		case <-h.n.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if n := h.s.tryDequeue(); n != nil {
			h.s.execute(ctx, n)
			continue
		}
		select {
		case <-h.n.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(assistPollInterval):
		}
	}
}

// WaitTimeout waits up to d and reports whether the node reached a terminal
// state in time. It never alters node state; a false return simply means
// "still pending".
func (h *Handle) WaitTimeout(ctx context.Context, d time.Duration) (bool, error) {
	waitCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	err := h.Wait(waitCtx)
	if err == nil {
		return true, nil
	}
	if waitCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return false, nil
	}
	return false, err
}

// GetResult waits as Wait, then returns the stored result. The read is
// idempotent: repeated calls return the same value. It fails with
// ErrResultUnavailable for canceled or valueless nodes, and with the
// captured ErrBodyFailed error if the body failed.
func (h *Handle) GetResult(ctx context.Context) (any, error) {
	if err := h.Wait(ctx); err != nil {
		return nil, err
	}
	n := h.n
	if n.loadState() == Canceled {
		return nil, fmt.Errorf("task %q: canceled: %w", n.name, ErrResultUnavailable)
	}
	if n.err != nil {
		return nil, n.err
	}
	if n.result == nil {
		return nil, fmt.Errorf("task %q: body produced no value: %w", n.name, ErrResultUnavailable)
	}
	return n.result, nil
}

// Cancel marks the node Canceled if its body has not started, releasing its
// dependents. It reports whether this call performed the cancellation.
// Running nodes are never preempted; cancellation of in-flight work is
// cooperative via the body's context.
func (h *Handle) Cancel() bool {
	n := h.n
	if n.casState(Pending, Canceled) || n.casState(Ready, Canceled) {
		h.s.finalizeCanceled(n)
		return true
	}
	return false
}

// Result waits for the handle and asserts its value to T.
func Result[T any](ctx context.Context, h *Handle) (T, error) {
	var zero T
	v, err := h.GetResult(ctx)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("task %q: result is %T, not %T: %w", h.n.name, v, zero, ErrResultUnavailable)
	}
	return typed, nil
}
