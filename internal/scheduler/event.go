package scheduler

import (
	"fmt"
	"sync"
)

// Event is a bodyless node completed by Trigger rather than by a worker. It
// supports two-phase graph construction: prerequisites may be added after
// creation, and the event completes once it has been triggered and every
// prerequisite is terminal. Its Handle can gate other launches, so events
// double as manual joins and gates.
type Event struct {
	h       *Handle
	trigger sync.Once
}

// NewEvent creates an event node. The event holds its registration guard
// until Trigger is called.
func (s *Scheduler) NewEvent(name string) (*Event, error) {
	n, err := s.newNode(name, Normal, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Created event node.", "id", n.id, "name", name)
	return &Event{h: &Handle{s: s, n: n}}, nil
}

// Handle returns the event's handle for waiting or for use as a
// prerequisite.
func (e *Event) Handle() *Handle { return e.h }

// Trigger releases the event. The event completes immediately if all its
// prerequisites are terminal, otherwise as soon as the last one resolves.
// Only the first call has any effect.
func (e *Event) Trigger() {
	e.trigger.Do(func() {
		e.h.s.resolveOne(e.h.n)
	})
}

// AddPrerequisite gates the event on h. The edge is checked eagerly: if h
// already depends on this event, directly or transitively, the call fails
// with ErrPrerequisiteCycle and no edge is recorded. This is the only API
// through which a cycle could be constructed, so rejection here keeps the
// graph acyclic by construction.
func (e *Event) AddPrerequisite(h *Handle) error {
	n := e.h.n
	if h == nil || h.n == nil {
		return fmt.Errorf("event %q: nil prerequisite handle", n.name)
	}
	if n.loadState().Terminal() {
		return fmt.Errorf("event %q: already terminal", n.name)
	}
	if reaches(h.n, n) {
		return fmt.Errorf("event %q: adding %q as prerequisite: %w", n.name, h.n.name, ErrPrerequisiteCycle)
	}

	n.mu.Lock()
	n.prereqs = append(n.prereqs, h.n)
	n.mu.Unlock()

	n.pending.Add(1)
	e.h.s.registerEdge(h.n, n)
	return nil
}
