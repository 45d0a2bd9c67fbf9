package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vk/taskgrid/internal/builder"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/results"
	"github.com/vk/taskgrid/internal/scheduler"
)

// closeGrace bounds how long an interrupted run waits for in-flight bodies.
const closeGrace = 5 * time.Second

// Run executes the loaded grid. The calling goroutine is the affinity
// thread for the duration of the run: it pumps the queue at the configured
// interval while workers execute the graph, drains it one final time once
// every node is terminal, and then summarizes the run.
func (a *App) Run(ctx context.Context) error {
	logger := a.logger.With("run_id", uuid.NewString())
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("App.Run method started.")

	sched := scheduler.New(scheduler.Options{
		Workers: a.cfg.WorkerCount,
		Logger:  logger,
	})
	store := results.New()

	handles, err := builder.Build(ctx, a.model, a.registry, sched, store)
	if err != nil {
		sched.Close(ctx)
		return fmt.Errorf("failed to build task graph: %w", err)
	}
	if len(handles) == 0 {
		logger.Warn("No tasks found in grid, execution not required.")
		sched.Close(ctx)
		return nil
	}

	names := make([]string, 0, len(handles))
	all := make([]*scheduler.Handle, 0, len(handles))
	for name, h := range handles {
		names = append(names, name)
		all = append(all, h)
	}
	sort.Strings(names)

	logger.Info("Starting concurrent execution.", "tasks", len(all), "workers", a.cfg.WorkerCount)
	done := make(chan error, 1)
	go func() {
		done <- scheduler.WaitAll(ctx, all...)
	}()

	ticker := time.NewTicker(a.cfg.PumpInterval)
	defer ticker.Stop()
	defer a.queue.Close()

	for {
		select {
		case waitErr := <-done:
			// Final drain so callables posted by the last bodies still run.
			if _, err := a.queue.Pump(); err != nil {
				return fmt.Errorf("final affinity pump: %w", err)
			}
			if waitErr != nil {
				sched.Close(context.Background())
				return fmt.Errorf("waiting for task graph: %w", waitErr)
			}
			if err := sched.Close(ctx); err != nil && err != scheduler.ErrSchedulerClosed {
				return fmt.Errorf("closing scheduler: %w", err)
			}
			logger.Info("Execution finished.", "stats", sched.Stats())
			return a.summarize(ctx, handles, names, store)

		case <-ticker.C:
			if _, err := a.queue.Pump(); err != nil {
				return fmt.Errorf("affinity pump: %w", err)
			}

		case <-ctx.Done():
			logger.Warn("Run interrupted.", "error", ctx.Err())
			closeCtx, cancel := context.WithTimeout(context.Background(), closeGrace)
			sched.Close(closeCtx)
			cancel()
			return ctx.Err()
		}
	}
}

// summarize reports each task's outcome. Failures are silent until queried,
// so this is where a fire-and-forget task's error finally surfaces; the
// first failure in name order becomes the run's root-cause error.
func (a *App) summarize(ctx context.Context, handles map[string]*scheduler.Handle, names []string, store *results.Store) error {
	logger := ctxlog.FromContext(ctx)

	var failed []string
	var rootCause error
	for _, name := range names {
		h := handles[name]
		if err, ok := store.Err(h.Name()); ok {
			logger.Error("Task failed.", "task", h.Name(), "error", err)
			failed = append(failed, name)
			if rootCause == nil {
				rootCause = err
			}
			continue
		}
		if out, ok := store.Output(h.Name()); ok {
			logger.Info("Task completed.", "task", h.Name(), "output", fmt.Sprintf("%v", out))
			continue
		}
		// A body that panicked never reached the store; the handle still
		// carries the captured failure.
		if out, err := h.GetResult(ctx); err != nil {
			logger.Error("Task failed.", "task", h.Name(), "error", err)
			failed = append(failed, name)
			if rootCause == nil {
				rootCause = err
			}
		} else {
			logger.Info("Task completed.", "task", h.Name(), "output", fmt.Sprintf("%v", out))
		}
	}

	if rootCause != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return nil
}
