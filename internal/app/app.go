package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/taskgrid/internal/affinity"
	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/hclgrid"
	"github.com/vk/taskgrid/internal/registry"
)

// Loader translates grid definitions on disk into the config model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*config.Model, error)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model
	queue    *affinity.Queue
	cfg      *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, registry and
// affinity queue. A nil loader means the HCL loader; empty modules means the
// core modules. Configuration that cannot be loaded is a fatal startup
// error and panics; the CLI entrypoint recovers it into a clean exit.
func NewApp(outW io.Writer, cfg *Config, loader Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if loader == nil {
		loader = hclgrid.NewLoader()
	}
	model, err := loader.Load(ctx, cfg.GridPath)
	if err != nil {
		panic(fmt.Errorf("failed to load grid configuration: %w", err))
	}
	logger.Debug("Grid configuration loaded into unified model.")

	queue := affinity.New(logger)
	reg := registry.New()
	if len(modules) == 0 {
		modules = registry.CoreModules(queue, outW)
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All runner modules registered.", "kinds", reg.Kinds())

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
		queue:    queue,
		cfg:      cfg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded grid model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
