package scheduler

import (
	"context"
	"fmt"
)

// WaitAll blocks until every handle is terminal or ctx is done. Handles may
// belong to different schedulers. Failures stay local to their nodes: a
// failed or canceled handle still counts as terminal here.
func WaitAll(ctx context.Context, handles ...*Handle) error {
	for _, h := range handles {
		if err := h.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// WaitAny blocks until at least one handle is terminal and returns its
// index. When several are already terminal, the lowest index wins.
func WaitAny(ctx context.Context, handles ...*Handle) (int, error) {
	if len(handles) == 0 {
		return -1, fmt.Errorf("scheduler: WaitAny requires at least one handle")
	}
	for i, h := range handles {
		if h.IsCompleted() {
			return i, nil
		}
	}

	stop := make(chan struct{})
	defer close(stop)
	won := make(chan int, len(handles))
	for i, h := range handles {
		go func(i int, h *Handle) {
			select {
			case <-h.n.done:
				won <- i
			case <-stop:
			}
		}(i, h)
	}

	select {
	case <-won:
		// Re-scan so ties that resolved concurrently still break by order.
		for i, h := range handles {
			if h.IsCompleted() {
				return i, nil
			}
		}
		return -1, fmt.Errorf("scheduler: WaitAny woke without a terminal handle")
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}
