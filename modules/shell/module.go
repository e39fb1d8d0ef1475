// Package shell provides the generic command-running job.
package shell

import (
	"context"
	"fmt"

	"github.com/magefile/mage/sh"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/config"
	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' block.
type Input struct {
	Command []string          `cty:"command"`
	Env     map[string]string `cty:"env"`
}

// runWith is swapped out in tests to avoid spawning real processes.
var runWith = sh.RunWith

// Run is the handler for the 'shell' runner.
func Run(ctx context.Context, call *registry.Call) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	input := call.Input.(*Input)

	if len(input.Command) == 0 {
		return cty.NilVal, fmt.Errorf("shell runner requires a non-empty command")
	}

	if call.DryRun {
		logger.Info("Dry run: skipping command.", "command", input.Command)
		return cty.ObjectVal(map[string]cty.Value{"ran": cty.False}), nil
	}

	logger.Info("Running command.", "command", input.Command)
	if err := runWith(input.Env, input.Command[0], input.Command[1:]...); err != nil {
		return cty.NilVal, fmt.Errorf("command %v failed: %w", input.Command, err)
	}

	return cty.ObjectVal(map[string]cty.Value{"ran": cty.True}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner(&registry.RegisteredRunner{
		Definition: &config.RunnerDefinition{
			Type:        "shell",
			Description: "Runs an arbitrary build command.",
			Inputs: map[string]*config.InputDefinition{
				"command": {Name: "command", Type: cty.List(cty.String)},
				"env":     {Name: "env", Type: cty.Map(cty.String)},
			},
		},
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
