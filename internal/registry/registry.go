package registry

import (
	"fmt"

	"github.com/specialistvlad/wheelforge/internal/config"
)

// Module is the interface all compiled-in runner modules implement.
type Module interface {
	Register(r *Registry)
}

// Registry holds every registered runner handler and its declared contract
// for a single application instance.
type Registry struct {
	Runners map[string]*RegisteredRunner

	// releaseHandler executes the release stage. Exactly one module may
	// register it.
	releaseHandler RunFunc
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		Runners: make(map[string]*RegisteredRunner),
	}
}

// Runner looks up a runner by type name.
func (r *Registry) Runner(runnerType string) (*RegisteredRunner, error) {
	h, ok := r.Runners[runnerType]
	if !ok {
		return nil, fmt.Errorf("unknown runner type %q", runnerType)
	}
	return h, nil
}

// Definitions returns the declared contract of every registered runner,
// keyed by type.
func (r *Registry) Definitions() map[string]*config.RunnerDefinition {
	defs := make(map[string]*config.RunnerDefinition, len(r.Runners))
	for name, h := range r.Runners {
		defs[name] = h.Definition
	}
	return defs
}
