// Package print provides a runner that logs a message, useful for marking
// pipeline phases and debugging instance expansion.
package print

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/config"
	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' block.
type Input struct {
	Message string `cty:"message"`
}

// Run is the handler for the 'print' runner.
func Run(ctx context.Context, call *registry.Call) (cty.Value, error) {
	input := call.Input.(*Input)
	ctxlog.FromContext(ctx).Info(input.Message, "instance", call.Instance.ID())
	return cty.ObjectVal(map[string]cty.Value{"printed": cty.True}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner(&registry.RegisteredRunner{
		Definition: &config.RunnerDefinition{
			Type:        "print",
			Description: "Logs a message.",
			Inputs: map[string]*config.InputDefinition{
				"message": {Name: "message", Type: cty.String},
			},
		},
		NewInput: func() any { return new(Input) },
		Fn:       Run,
	})
}
