// Package taskid defines the canonical structured identifier for tasks
// declared in a grid, and its string round-trip.
package taskid
