package builder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidGrid marks deterministic validation failures in the model.
	ErrInvalidGrid = errors.New("invalid task grid")
	// ErrCycleFound marks circular depends_on chains, rejected before any
	// node is launched.
	ErrCycleFound = errors.New("cycle detected")
)

// GridError wraps grid validation failures with their category.
type GridError struct {
	Kind error
	Msg  string
}

func (e *GridError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GridError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GridError{Kind: ErrInvalidGrid, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []string) error {
	msg := "cycle"
	if len(path) > 0 {
		msg = "cycle: " + strings.Join(path, " -> ")
	}
	return &GridError{Kind: ErrCycleFound, Msg: msg}
}
