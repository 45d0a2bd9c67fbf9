package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/vk/taskgrid/internal/ctxlog"
)

// Options configures a Scheduler.
type Options struct {
	// Workers is the fixed size of the worker pool. Zero or negative means
	// the available hardware parallelism.
	Workers int
	// Logger receives the scheduler's structured log output. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// Scheduler owns the ready queues, the worker pool and the dependency
// bookkeeping for a task graph. All methods are safe for concurrent use.
type Scheduler struct {
	logger  *slog.Logger
	baseCtx context.Context
	cancel  context.CancelFunc

	// mu guards queues, closed and stopped, and pairs with cond to wake idle
	// workers.
	mu      sync.Mutex
	cond    *sync.Cond
	queues  [numPriorities][]*node
	closed  bool
	stopped bool

	// quiesce holds one unit per non-terminal node; Close waits on it before
	// stopping the workers.
	quiesce sync.WaitGroup
	workers sync.WaitGroup

	nextID    atomic.Uint64
	launched  atomic.Int64
	ready     atomic.Int64
	running   atomic.Int64
	completed atomic.Int64
	canceled  atomic.Int64
}

// New creates a Scheduler and starts its worker pool.
func New(opts Options) *Scheduler {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
	}
	s.cond = sync.NewCond(&s.mu)

	logger.Debug("Starting worker pool.", "workers", workers)
	s.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go s.workerLoop(i)
	}
	return s
}

// LaunchOption customizes a single Launch call.
type LaunchOption func(*launchConfig)

type launchConfig struct {
	pri     Priority
	prereqs []*Handle
}

// WithPriority selects the ready queue the node is dispatched from.
// The default is Normal.
func WithPriority(p Priority) LaunchOption {
	return func(c *launchConfig) { c.pri = p }
}

// After gates the node on the given handles. It may be passed multiple
// times; all prerequisites accumulate.
func After(handles ...*Handle) LaunchOption {
	return func(c *launchConfig) { c.prereqs = append(c.prereqs, handles...) }
}

// Launch creates a node for body and returns a Handle to it. With no
// prerequisites the node is ready immediately and is submitted to the pool
// without blocking the caller. Prerequisites that are already terminal still
// pass through the counter (increment, then immediate decrement), so there
// is no special-casing of already-done dependencies.
func (s *Scheduler) Launch(ctx context.Context, name string, body Body, opts ...LaunchOption) (*Handle, error) {
	if body == nil {
		return nil, fmt.Errorf("launch %q: nil body", name)
	}
	cfg := launchConfig{pri: Normal}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.pri.valid() {
		return nil, fmt.Errorf("launch %q: invalid priority %d", name, int(cfg.pri))
	}
	for _, h := range cfg.prereqs {
		if h == nil || h.n == nil {
			return nil, fmt.Errorf("launch %q: nil prerequisite handle", name)
		}
	}

	n, err := s.newNode(name, cfg.pri, body)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Launching task node.",
		"id", n.id, "name", name, "priority", cfg.pri.String(), "prerequisites", len(cfg.prereqs))

	for _, h := range cfg.prereqs {
		n.prereqs = append(n.prereqs, h.n)
		n.pending.Add(1)
		s.registerEdge(h.n, n)
	}

	// Drop the registration guard; with no prerequisites this is the
	// transition to Ready.
	s.resolveOne(n)
	return &Handle{s: s, n: n}, nil
}

// newNode allocates a node holding its registration guard, and accounts for
// it in the quiescence group. It fails once the scheduler is closed.
func (s *Scheduler) newNode(name string, pri Priority, body Body) (*node, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSchedulerClosed
	}
	s.quiesce.Add(1)
	s.mu.Unlock()

	n := &node{
		id:   s.nextID.Add(1),
		name: name,
		pri:  pri,
		body: body,
		done: make(chan struct{}),
	}
	n.pending.Store(1)
	s.launched.Add(1)
	return n, nil
}

// registerEdge records d as a dependent of n. If n is already terminal the
// back-edge is skipped and d's counter, incremented by the caller, is
// immediately decremented.
func (s *Scheduler) registerEdge(n, d *node) {
	n.mu.Lock()
	if !n.loadState().Terminal() {
		n.dependents = append(n.dependents, d)
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()
	s.resolveOne(d)
}

// resolveOne decrements n's unresolved-prerequisite counter and, on the
// single transition to zero, makes the node ready: event nodes complete in
// place, ordinary nodes are pushed onto their priority's queue exactly once.
func (s *Scheduler) resolveOne(n *node) {
	if n.pending.Add(-1) != 0 {
		return
	}
	if n.body == nil {
		s.finish(n, Pending, nil, nil)
		return
	}
	if !n.casState(Pending, Ready) {
		// Canceled while pending; Cancel already released dependents.
		return
	}
	s.ready.Add(1)
	s.mu.Lock()
	s.queues[n.pri] = append(s.queues[n.pri], n)
	s.mu.Unlock()
	s.cond.Signal()
}

// workerLoop is the processing loop for a single pool worker.
func (s *Scheduler) workerLoop(id int) {
	defer s.workers.Done()
	logger := s.logger.With("workerID", id)
	ctx := ctxlog.WithLogger(withWorkerToken(s.baseCtx, s), logger)

	logger.Debug("Worker started.")
	for {
		n := s.dequeue()
		if n == nil {
			break
		}
		s.execute(ctx, n)
	}
	logger.Debug("Worker finished.")
}

// dequeue blocks until a node is ready or the scheduler stops. It always
// pops from the highest non-empty priority level.
func (s *Scheduler) dequeue() *node {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.stopped {
			return nil
		}
		if n := s.popLocked(); n != nil {
			return n
		}
		s.cond.Wait()
	}
}

// tryDequeue is the non-blocking form used by waiting callers that assist.
func (s *Scheduler) tryDequeue() *node {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	return s.popLocked()
}

func (s *Scheduler) popLocked() *node {
	for p := range s.queues {
		if q := s.queues[p]; len(q) > 0 {
			n := q[0]
			s.queues[p] = q[1:]
			s.ready.Add(-1)
			return n
		}
	}
	return nil
}

// execute runs one dequeued node to completion. Nodes canceled while queued
// are skipped here; Cancel already finalized them.
func (s *Scheduler) execute(ctx context.Context, n *node) {
	if !n.casState(Ready, Running) {
		return
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker picked up node.", "id", n.id, "name", n.name, "priority", n.pri.String())

	s.running.Add(1)
	result, err := s.runBody(ctx, n)
	s.running.Add(-1)

	if err != nil {
		logger.Debug("Node body failed.", "id", n.id, "name", n.name, "error", err)
	} else {
		logger.Debug("Node completed.", "id", n.id, "name", n.name)
	}
	s.finish(n, Running, result, err)
}

// runBody executes the node body, converting returned errors and recovered
// panics into ErrBodyFailed wrappers. A failing body never crashes the
// worker or the scheduler.
func (s *Scheduler) runBody(ctx context.Context, n *node) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("task %q: %w: recovered panic: %v\n%s", n.name, ErrBodyFailed, r, debug.Stack())
		}
	}()
	result, err = n.body(ctx)
	if err != nil && !errors.Is(err, ErrBodyFailed) {
		err = fmt.Errorf("task %q: %w: %w", n.name, ErrBodyFailed, err)
	}
	return result, err
}

// finish publishes the node's result and releases its dependents. The result
// slot is written strictly before done is closed, which is the visibility
// edge for every later reader. Dependents are drained under the node's
// mutex, so a racing edge registration is either included here or resolved
// immediately by registerEdge, never both and never neither.
func (s *Scheduler) finish(n *node, from State, result any, err error) {
	if from == Running {
		n.result, n.err = result, err
		n.storeState(Completed)
	} else {
		// Event path: completion races only with Cancel.
		if !n.casState(from, Completed) {
			return
		}
		n.result, n.err = result, err
	}
	close(n.done)
	s.completed.Add(1)

	n.mu.Lock()
	deps := n.dependents
	n.dependents = nil
	n.prereqs = nil
	n.mu.Unlock()

	for _, d := range deps {
		s.resolveOne(d)
	}
	s.quiesce.Done()
}

// finalizeCanceled releases a node whose state was already swapped to
// Canceled. Dependents are still resolved: cancellation is terminal and must
// not strand the rest of the graph.
func (s *Scheduler) finalizeCanceled(n *node) {
	close(n.done)
	s.canceled.Add(1)

	n.mu.Lock()
	deps := n.dependents
	n.dependents = nil
	n.prereqs = nil
	n.mu.Unlock()

	for _, d := range deps {
		s.resolveOne(d)
	}
	s.quiesce.Done()
}

// Close stops intake, waits for every launched node to reach a terminal
// state (bounded by ctx), then stops the workers. An untriggered event or a
// never-resolving prerequisite will hold Close until the ctx deadline; the
// returned error is the ctx error in that case.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.closed = true
	s.mu.Unlock()

	s.logger.Debug("Scheduler closing, waiting for quiescence.")
	quiet := make(chan struct{})
	go func() {
		s.quiesce.Wait()
		close(quiet)
	}()

	var err error
	select {
	case <-quiet:
	case <-ctx.Done():
		err = ctx.Err()
		s.logger.Warn("Scheduler close aborted before quiescence.", "error", err)
	}

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cond.Broadcast()
	s.cancel()
	s.workers.Wait()
	s.logger.Debug("Scheduler closed.", "stats", s.Stats())
	return err
}

// Stats is a point-in-time snapshot of node counts. A graph that has
// deadlocked through misuse (an edge the eager cycle check could not see, or
// an event that is never triggered) shows a stable Pending count with zero
// Ready and Running; liveness checks should watch for that via a timeout.
type Stats struct {
	Launched  int64
	Pending   int64
	Ready     int64
	Running   int64
	Completed int64
	Canceled  int64
}

// Stats returns the current snapshot.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		Launched:  s.launched.Load(),
		Ready:     s.ready.Load(),
		Running:   s.running.Load(),
		Completed: s.completed.Load(),
		Canceled:  s.canceled.Load(),
	}
	st.Pending = st.Launched - st.Ready - st.Running - st.Completed - st.Canceled
	return st
}

// workerKey marks contexts that belong to this scheduler's pool workers, so
// blocking waits can tell when they should assist instead of idling.
type workerKey struct{}

func withWorkerToken(ctx context.Context, s *Scheduler) context.Context {
	return context.WithValue(ctx, workerKey{}, s)
}

func fromWorker(ctx context.Context, s *Scheduler) bool {
	owner, ok := ctx.Value(workerKey{}).(*Scheduler)
	return ok && owner == s
}
