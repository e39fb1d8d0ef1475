// Package collect provides the job that gathers files produced outside the
// store (for example by a shell step) into the run's artifact store.
package collect

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/config"
	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' block.
type Input struct {
	From     string   `cty:"from"`
	Patterns []string `cty:"patterns"`
	Required bool     `cty:"required"`
}

// Run is the handler for the 'collect' runner.
func Run(ctx context.Context, call *registry.Call) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	input := call.Input.(*Input)

	patterns := input.Patterns
	if len(patterns) == 0 {
		patterns = []string{"*.whl"}
	}

	collected := 0
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(input.From, pattern))
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid collect pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			if input.Required {
				return cty.NilVal, fmt.Errorf("no files match %q under %q", pattern, input.From)
			}
			logger.Warn("Collect pattern matched nothing.", "pattern", pattern, "from", input.From)
			continue
		}
		for _, path := range matches {
			if call.DryRun {
				logger.Info("Dry run: would collect file.", "path", path)
				collected++
				continue
			}
			if err := call.Store.Collect(path); err != nil {
				return cty.NilVal, err
			}
			collected++
		}
	}

	logger.Info("Collection finished.", "files", collected)
	return cty.ObjectVal(map[string]cty.Value{
		"collected": cty.NumberIntVal(int64(collected)),
	}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	required := cty.True
	r.RegisterRunner(&registry.RegisteredRunner{
		Definition: &config.RunnerDefinition{
			Type:        "collect",
			Description: "Gathers files into the run's artifact store.",
			Inputs: map[string]*config.InputDefinition{
				"from":     {Name: "from", Type: cty.String},
				"patterns": {Name: "patterns", Type: cty.List(cty.String)},
				"required": {Name: "required", Type: cty.Bool, Default: &required},
			},
		},
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
