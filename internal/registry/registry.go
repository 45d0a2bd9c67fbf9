package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Handler is the Go function behind a task kind. args carries the task
// block's evaluated arguments as a cty object; deps maps each prerequisite's
// task name to its output value. The returned value becomes the node's
// result and is visible to dependents.
type Handler func(ctx context.Context, args cty.Value, deps map[string]cty.Value) (cty.Value, error)

// RegisteredRunner holds the compiled Go parts of a task kind.
type RegisteredRunner struct {
	Description string
	Fn          Handler
}

// Module is the interface all runner modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered runners for a single application instance.
type Registry struct {
	runners map[string]*RegisteredRunner
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{runners: make(map[string]*RegisteredRunner)}
}

// RegisterRunner registers a handler for a task kind. Registering the same
// kind twice is a programmer error and panics.
func (r *Registry) RegisterRunner(kind string, runner *RegisteredRunner) {
	if _, exists := r.runners[kind]; exists {
		panic(fmt.Sprintf("runner with kind '%s' already registered", kind))
	}
	if runner == nil || runner.Fn == nil {
		panic(fmt.Sprintf("runner with kind '%s' has no handler", kind))
	}
	slog.Debug("Registering runner.", "kind", kind)
	r.runners[kind] = runner
}

// Runner looks up the handler for a task kind.
func (r *Registry) Runner(kind string) (*RegisteredRunner, bool) {
	runner, ok := r.runners[kind]
	return runner, ok
}

// Kinds returns the registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.runners))
	for kind := range r.runners {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
