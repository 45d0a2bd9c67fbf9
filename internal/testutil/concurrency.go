package testutil

import (
	"testing"
	"time"
)

// RequireTerminates fails the test if fn does not return within d. It is the
// liveness check for scenarios that would otherwise deadlock silently.
func RequireTerminates(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("operation did not terminate within %v", d)
	}
}
