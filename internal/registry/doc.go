// Package registry maps task kinds declared in grid files to the Go handler
// functions that execute them. The core modules cover the common grid
// patterns: background sleeps, numeric fan-in, affinity-thread emission and
// deliberate failure.
package registry
