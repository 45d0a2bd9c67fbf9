// Package results provides an ephemeral, thread-safe store of per-task
// outputs and errors for one run. It exists so the host can summarize a run
// after the fact without re-querying handles; sync.Map fits the write-once,
// read-later access pattern with independent keys.
package results

import "sync"

// Store records the outcome of each task, keyed by canonical task address.
type Store struct {
	outputs sync.Map
	errors  sync.Map
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// SetOutput records the successful output of a task.
func (s *Store) SetOutput(id string, output any) {
	s.outputs.Store(id, output)
}

// Output retrieves the recorded output of a task.
func (s *Store) Output(id string) (any, bool) {
	return s.outputs.Load(id)
}

// SetError records the failure of a task.
func (s *Store) SetError(id string, err error) {
	s.errors.Store(id, err)
}

// Err retrieves the recorded failure of a task.
func (s *Store) Err(id string) (error, bool) {
	v, ok := s.errors.Load(id)
	if !ok {
		return nil, false
	}
	return v.(error), true
}
