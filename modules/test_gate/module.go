// Package test_gate provides the unit-test discovery step whose success the
// release stage requires before publishing.
package test_gate

import (
	"context"

	"github.com/magefile/mage/sh"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/config"
	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/registry"
	"github.com/specialistvlad/wheelforge/internal/toolchain"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' block.
type Input struct {
	Python   string `cty:"python"`
	StartDir string `cty:"start_dir"`
	Pattern  string `cty:"pattern"`
}

var runCmd = sh.Run

// Run is the handler for the 'test_gate' runner. A non-zero test exit fails
// the node, which in turn blocks the release gate.
func Run(ctx context.Context, call *registry.Call) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	input := call.Input.(*Input)

	if call.DryRun {
		logger.Info("Dry run: assuming test discovery passes.", "start_dir", input.StartDir)
		return cty.ObjectVal(map[string]cty.Value{"passed": cty.True}), nil
	}

	logger.Info("Running unit test discovery.", "start_dir", input.StartDir, "pattern", input.Pattern)
	if err := runCmd(input.Python, "-m", "unittest", "discover", "-s", input.StartDir, "-p", input.Pattern); err != nil {
		return cty.NilVal, err
	}

	return cty.ObjectVal(map[string]cty.Value{"passed": cty.True}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	defaultPython := cty.StringVal("python3")
	defaultDir := cty.StringVal("test")
	defaultPattern := cty.StringVal("test*.py")
	r.RegisterRunner(&registry.RegisteredRunner{
		Definition: &config.RunnerDefinition{
			Type:        "test_gate",
			Description: "Runs unit-test discovery; gates the release stage.",
			Inputs: map[string]*config.InputDefinition{
				"python":    {Name: "python", Type: cty.String, Default: &defaultPython},
				"start_dir": {Name: "start_dir", Type: cty.String, Default: &defaultDir},
				"pattern":   {Name: "pattern", Type: cty.String, Default: &defaultPattern},
			},
		},
		NewInput: func() any { return new(Input) },
		Fn:       Run,
		Tools: func(job *config.Job) []toolchain.Requirement {
			return []toolchain.Requirement{
				{Name: "python3", Alternatives: []string{"python"}, Purpose: "unit test discovery"},
			}
		},
	})
}
