package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/artifact"
	"github.com/specialistvlad/wheelforge/internal/config"
	"github.com/specialistvlad/wheelforge/internal/matrix"
	"github.com/specialistvlad/wheelforge/internal/publish"
	"github.com/specialistvlad/wheelforge/internal/release"
	"github.com/specialistvlad/wheelforge/internal/toolchain"
)

// Call carries everything a handler may need for one node execution.
type Call struct {
	// Instance is set for job nodes; Release for the release node.
	Instance *matrix.Instance
	Release  *config.Release

	// Input is the decoded, typed input struct (the runner's NewInput type).
	Input any

	Store *artifact.Store
	Event *release.Event
	Gates *publish.Board
	Plan  *matrix.Plan

	// DryRun executions must not spawn external commands or perform uploads.
	DryRun bool
}

// RunFunc is the signature of every runner handler.
type RunFunc func(ctx context.Context, call *Call) (cty.Value, error)

// RegisteredRunner binds a runner's declared contract to its Go handler.
type RegisteredRunner struct {
	Definition *config.RunnerDefinition
	NewInput   func() any
	Fn         RunFunc

	// Tools, when set, declares the external tools a job using this runner
	// needs. Checked at startup before any node runs.
	Tools func(job *config.Job) []toolchain.Requirement
}

// RegisterRunner registers a runner handler under its definition's type
// name. A duplicate registration is a programmer error.
func (r *Registry) RegisterRunner(h *RegisteredRunner) {
	if h.Definition == nil || h.Definition.Type == "" {
		panic("registry: runner registered without a definition")
	}
	name := h.Definition.Type
	if _, exists := r.Runners[name]; exists {
		panic(fmt.Sprintf("runner with type '%s' already registered", name))
	}
	slog.Debug("Registering runner handler.", "type", name)
	r.Runners[name] = h
}

// RegisterReleaseHandler registers the handler executed for the release
// node. Only one module may provide it.
func (r *Registry) RegisterReleaseHandler(fn RunFunc) {
	if r.releaseHandler != nil {
		panic("release handler already registered")
	}
	slog.Debug("Registering release handler.")
	r.releaseHandler = fn
}

// ReleaseHandler returns the registered release handler.
func (r *Registry) ReleaseHandler() (RunFunc, error) {
	if r.releaseHandler == nil {
		return nil, fmt.Errorf("no release handler registered")
	}
	return r.releaseHandler, nil
}
