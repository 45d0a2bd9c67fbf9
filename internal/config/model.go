package config

import "github.com/hashicorp/hcl/v2"

// Model is the unified representation of everything loaded for a run.
type Model struct {
	Grid *Grid
}

// Grid represents the user's task graph definition.
type Grid struct {
	Tasks []*Task
}

// Task is the format-agnostic representation of a `task` block.
type Task struct {
	// Kind names the registered runner that executes this task.
	Kind string
	// Name is the instance name; depends_on entries refer to it.
	Name string
	// Priority is the canonical priority name, empty for the default.
	Priority string
	// DependsOn lists the names of prerequisite tasks.
	DependsOn []string
	// Arguments holds the undecoded argument expressions from the body.
	// They are evaluated to concrete values at build time.
	Arguments map[string]hcl.Expression
}
