package builder

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/registry"
	"github.com/vk/taskgrid/internal/results"
	"github.com/vk/taskgrid/internal/scheduler"
	"github.com/vk/taskgrid/internal/taskid"
)

// Build validates the model and launches one scheduler node per task,
// returning the handles keyed by task name. Bodies read their prerequisite
// results through the handles and record their outcome in the store. A
// validation failure launches nothing.
func Build(ctx context.Context, model *config.Model, reg *registry.Registry, sched *scheduler.Scheduler, store *results.Store) (map[string]*scheduler.Handle, error) {
	logger := ctxlog.FromContext(ctx)

	if model == nil || model.Grid == nil {
		return nil, invalidf("empty model")
	}
	tasks, err := indexTasks(model.Grid, reg)
	if err != nil {
		return nil, err
	}
	if err := detectCycles(tasks); err != nil {
		return nil, err
	}
	logger.Debug("Grid validation passed.", "task_count", len(tasks))

	handles := make(map[string]*scheduler.Handle, len(tasks))
	var launch func(name string) error
	launch = func(name string) error {
		if _, done := handles[name]; done {
			return nil
		}
		task := tasks[name]
		for _, dep := range task.DependsOn {
			if err := launch(dep); err != nil {
				return err
			}
		}
		h, err := launchTask(ctx, task, reg, sched, store, handles)
		if err != nil {
			return err
		}
		handles[name] = h
		return nil
	}
	for _, task := range model.Grid.Tasks {
		if err := launch(task.Name); err != nil {
			return nil, err
		}
	}
	logger.Debug("All grid tasks launched.", "count", len(handles))
	return handles, nil
}

// indexTasks builds the name index and runs the per-task validations.
func indexTasks(grid *config.Grid, reg *registry.Registry) (map[string]*config.Task, error) {
	tasks := make(map[string]*config.Task, len(grid.Tasks))
	for _, task := range grid.Tasks {
		if _, err := taskid.New(task.Kind, task.Name); err != nil {
			return nil, invalidf("%v", err)
		}
		if _, exists := tasks[task.Name]; exists {
			return nil, invalidf("duplicate task name %q", task.Name)
		}
		if _, ok := reg.Runner(task.Kind); !ok {
			return nil, invalidf("task %q: unknown kind %q (registered: %v)", task.Name, task.Kind, reg.Kinds())
		}
		if task.Priority != "" {
			if _, err := scheduler.ParsePriority(task.Priority); err != nil {
				return nil, invalidf("task %q: %v", task.Name, err)
			}
		}
		tasks[task.Name] = task
	}
	for _, task := range tasks {
		for _, dep := range task.DependsOn {
			if _, ok := tasks[dep]; !ok {
				return nil, invalidf("task %q: unknown dependency %q", task.Name, dep)
			}
			if dep == task.Name {
				return nil, invalidf("task %q: depends on itself", task.Name)
			}
		}
	}
	return tasks, nil
}

// detectCycles checks for circular depends_on chains using DFS.
func detectCycles(tasks map[string]*config.Task) error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		visiting[name] = true
		path = append(path, name)
		for _, dep := range tasks[name].DependsOn {
			if visiting[dep] {
				return cycleError(append(path, dep))
			}
			if !visited[dep] {
				if err := visit(dep, path); err != nil {
					return err
				}
			}
		}
		delete(visiting, name)
		visited[name] = true
		return nil
	}

	for name := range tasks {
		if !visited[name] {
			if err := visit(name, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// launchTask evaluates the task's arguments and launches its node. The body
// gathers prerequisite results by handle, so a failed prerequisite surfaces
// as this task's own failure with the cause wrapped in.
func launchTask(ctx context.Context, task *config.Task, reg *registry.Registry, sched *scheduler.Scheduler, store *results.Store, handles map[string]*scheduler.Handle) (*scheduler.Handle, error) {
	addr, err := taskid.New(task.Kind, task.Name)
	if err != nil {
		return nil, invalidf("%v", err)
	}
	runner, ok := reg.Runner(task.Kind)
	if !ok {
		return nil, invalidf("task %q: unknown kind %q", task.Name, task.Kind)
	}
	args, err := evalArguments(task)
	if err != nil {
		return nil, err
	}

	pri := scheduler.Normal
	if task.Priority != "" {
		pri, err = scheduler.ParsePriority(task.Priority)
		if err != nil {
			return nil, invalidf("task %q: %v", task.Name, err)
		}
	}

	depHandles := make(map[string]*scheduler.Handle, len(task.DependsOn))
	after := make([]*scheduler.Handle, 0, len(task.DependsOn))
	for _, dep := range task.DependsOn {
		depHandles[dep] = handles[dep]
		after = append(after, handles[dep])
	}

	id := addr.String()
	body := func(ctx context.Context) (any, error) {
		deps := make(map[string]cty.Value, len(depHandles))
		for name, dh := range depHandles {
			v, err := dh.GetResult(ctx)
			if err != nil {
				err = fmt.Errorf("reading prerequisite %q: %w", name, err)
				store.SetError(id, err)
				return nil, err
			}
			if cv, ok := v.(cty.Value); ok {
				deps[name] = cv
			}
		}
		out, err := runner.Fn(ctx, args, deps)
		if err != nil {
			store.SetError(id, err)
			return nil, err
		}
		store.SetOutput(id, out)
		return out, nil
	}

	return sched.Launch(ctx, id, body, scheduler.WithPriority(pri), scheduler.After(after...))
}

// evalArguments evaluates the task's argument expressions into a single cty
// object. Expressions must be self-contained; references to other tasks are
// not in the grammar.
func evalArguments(task *config.Task) (cty.Value, error) {
	if len(task.Arguments) == 0 {
		return cty.EmptyObjectVal, nil
	}
	attrs := make(map[string]cty.Value, len(task.Arguments))
	for name, expr := range task.Arguments {
		v, diags := expr.Value(nil)
		if diags.HasErrors() {
			return cty.NilVal, invalidf("task %q: argument %q: %v", task.Name, name, diags.Error())
		}
		attrs[name] = v
	}
	return cty.ObjectVal(attrs), nil
}
