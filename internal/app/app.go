package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/wheelforge/internal/config"
	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	model    *config.Model

	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the pipeline,
// registers all modules, and validates the registry. A failure at this stage
// is a startup error and panics; cmd/cli recovers it into a clean exit.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.PipelinePath)
	if err != nil {
		panic(fmt.Errorf("failed to load pipeline configuration: %w", err))
	}
	logger.Debug("Pipeline configuration loaded.", "pipeline", model.Pipeline.Name)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All runner modules registered.", "count", len(modules))

	if err := reg.Validate(ctx); err != nil {
		// Mismatch between a runner's declared inputs and its Go struct is a
		// programmer error.
		panic(err)
	}

	var runnerTypes []string
	for _, job := range model.Jobs {
		runnerTypes = append(runnerTypes, job.Runner)
	}
	if err := reg.ValidateModel(runnerTypes); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		registry: reg,
		model:    model,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded pipeline model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
