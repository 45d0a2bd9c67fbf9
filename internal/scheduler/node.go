package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
)

// Body is the unit of deferred work owned by a node. The context carries the
// scheduler's logger and worker identity; bodies should honor its
// cancellation in long-running loops (cancellation is cooperative, there is
// no forced preemption).
type Body func(ctx context.Context) (any, error)

// State is the lifecycle position of a node. Completed and Canceled are
// terminal; a node transitions to Ready exactly once, when its
// unresolved-prerequisite counter reaches zero.
type State int32

const (
	// Pending indicates the node still has unresolved prerequisites.
	Pending State = iota
	// Ready indicates the node is queued for dispatch to a worker.
	Ready
	// Running indicates a worker is executing the node's body.
	Running
	// Completed indicates the body has run and the result slot is published.
	Completed
	// Canceled indicates the node was canceled before its body started.
	Canceled
)

// String returns a short lower-case name for the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == Completed || s == Canceled
}

// node is a single vertex in the task graph. It is unexported; callers hold
// Handles, which share the node without duplicating the work.
type node struct {
	// id is a monotonically increasing identifier, unique per scheduler.
	id uint64
	// name is the human-readable label given at launch, used in logs and errors.
	name string
	// pri selects which ready queue the node lands on.
	pri Priority
	// body is the owned callable. It is nil for event nodes, which complete
	// without dispatch once triggered and unblocked.
	body Body

	// pending counts unresolved prerequisites plus a registration guard held
	// while edges are being wired (and, for events, until Trigger). The node
	// becomes Ready on the single transition to zero.
	pending atomic.Int32
	// state holds the current State, managed atomically.
	state atomic.Int32

	// mu protects dependents and prereqs. Both are drained when the node
	// reaches a terminal state.
	mu sync.Mutex
	// dependents are non-owning back-edges to nodes waiting on this one.
	dependents []*node
	// prereqs are forward edges, kept until terminal for eager cycle checks.
	prereqs []*node

	// done is closed exactly once when the node reaches a terminal state,
	// strictly after the result slot is written. It is the visibility edge
	// for every reader of result and err.
	done chan struct{}
	// result is the write-once result slot. Read only after done is closed.
	result any
	// err is the captured body failure, wrapped in ErrBodyFailed.
	err error
}

func (n *node) loadState() State {
	return State(n.state.Load())
}

func (n *node) storeState(s State) {
	n.state.Store(int32(s))
}

func (n *node) casState(from, to State) bool {
	return n.state.CompareAndSwap(int32(from), int32(to))
}

// reaches reports whether target is reachable from start by following
// prerequisite edges. Terminal nodes drop their edges, so the walk only sees
// the live part of the graph, which is the only part a cycle could deadlock.
func reaches(start, target *node) bool {
	if start == target {
		return true
	}
	seen := make(map[*node]bool)
	stack := []*node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == target {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		n.mu.Lock()
		stack = append(stack, n.prereqs...)
		n.mu.Unlock()
	}
	return false
}
