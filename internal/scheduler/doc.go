// Package scheduler implements a cooperative task-graph scheduler.
//
// Callers launch nodes of deferred work, optionally gated on prerequisite
// handles. The scheduler tracks each node's unresolved-prerequisite count,
// dispatches nodes that reach zero to a fixed pool of worker goroutines in
// priority order, and releases dependents as nodes complete. Handles expose
// waiting, polling and result retrieval, and can themselves be used as
// prerequisites to form fan-out, fan-in and pipeline graphs.
//
// Dispatch among ready nodes is strict-priority: an idle worker always pulls
// from the highest non-empty priority level. A steady stream of high-priority
// work can therefore delay lower levels indefinitely. This is a known
// limitation of the design, not a bug; priority is a scheduling hint and
// never affects correctness.
//
// A body that needs the output of other work should call Wait or GetResult on
// that work's handle. When the caller is itself a worker, those calls execute
// other ready nodes instead of idling, so nested launch-and-wait patterns do
// not exhaust the pool.
package scheduler
