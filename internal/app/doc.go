// Package app wires the pieces of a taskgrid run together: logger, grid
// loading, runner registry, scheduler and affinity queue. The goroutine that
// calls App.Run acts as the affinity thread; it pumps the queue on an
// interval while the graph executes and performs the final drain before the
// summary.
package app
