package scheduler

import "errors"

var (
	// ErrPrerequisiteCycle is returned when adding a prerequisite would make a
	// node transitively depend on itself. The edge is rejected before it is
	// recorded, so the graph is never left in a deadlocked shape.
	ErrPrerequisiteCycle = errors.New("scheduler: prerequisite cycle")

	// ErrBodyFailed wraps the error returned (or the panic recovered) from a
	// node's body. It surfaces on every GetResult call for that handle.
	ErrBodyFailed = errors.New("scheduler: task body failed")

	// ErrResultUnavailable is returned by GetResult for canceled nodes and for
	// nodes whose body completed without producing a value.
	ErrResultUnavailable = errors.New("scheduler: result unavailable")

	// ErrSchedulerClosed is returned by Launch and NewEvent after Close.
	ErrSchedulerClosed = errors.New("scheduler: closed")
)
