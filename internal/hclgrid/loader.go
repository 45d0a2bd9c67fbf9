package hclgrid

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/fsutil"
)

// Loader translates grid .hcl files into the format-agnostic config model.
type Loader struct{}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads every .hcl file under the given paths (files or directories)
// and merges their task blocks into a single model. Task identity is not
// checked here; the builder rejects duplicates with full context.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading grid path: %w", err)
		}
		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, fmt.Errorf("scanning grid directory %q: %w", path, err)
			}
			files = append(files, found...)
		} else {
			files = append(files, path)
		}
	}
	logger.Debug("Discovered grid files.", "count", len(files))

	model := &config.Model{Grid: &config.Grid{}}
	parser := hclparse.NewParser()
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %q: %w", file, diags)
		}
		tasks, err := l.decodeFile(ctx, f.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding %q: %w", file, err)
		}
		model.Grid.Tasks = append(model.Grid.Tasks, tasks...)
	}
	logger.Debug("Grid model loaded.", "task_count", len(model.Grid.Tasks))
	return model, nil
}

// decodeFile translates one parsed file body into model tasks.
func (l *Loader) decodeFile(ctx context.Context, body hcl.Body) ([]*config.Task, error) {
	var raw gridFile
	if diags := gohcl.DecodeBody(body, nil, &raw); diags.HasErrors() {
		return nil, diags
	}

	tasks := make([]*config.Task, 0, len(raw.Tasks))
	for _, block := range raw.Tasks {
		args, err := extractArguments(block.Remain)
		if err != nil {
			return nil, fmt.Errorf("task %q.%q: %w", block.Kind, block.Name, err)
		}
		tasks = append(tasks, &config.Task{
			Kind:      block.Kind,
			Name:      block.Name,
			Priority:  block.Priority,
			DependsOn: block.DependsOn,
			Arguments: args,
		})
	}
	return tasks, nil
}

// extractArguments collects the leftover body attributes as named
// expressions. Nested blocks are not part of the task grammar.
func extractArguments(body hcl.Body) (map[string]hcl.Expression, error) {
	if body == nil {
		return nil, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	if len(attrs) == 0 {
		return nil, nil
	}
	args := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		args[name] = attr.Expr
	}
	return args, nil
}
