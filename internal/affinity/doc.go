// Package affinity provides a single-consumer queue of callables that must
// run only on one designated thread, typically the host application's main
// loop. Worker-side code posts callables from any goroutine; the host drains
// them with a polling Pump once per loop iteration. The queue is global
// FIFO and has no priority concept.
package affinity
