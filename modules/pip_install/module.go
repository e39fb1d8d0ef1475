// Package pip_install provides the best-effort interpreter-package install
// step. The binding it installs is published under two names, so the step
// tries the primary name, falls back to the secondary, and never fails the
// job either way.
package pip_install

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
	Package  string `cty:"package"`
	Fallback string `cty:"fallback"`
	Version  string `cty:"version"`
}

var runCmd = sh.Run

// Run is the handler for the 'pip_install' runner. It reports which name
// installed, or empty when both attempts failed; it never returns an error
// for a failed install.
func Run(ctx context.Context, call *registry.Call) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	input := call.Input.(*Input)

	if call.DryRun {
		logger.Info("Dry run: skipping install.", "package", input.Package)
		return result(input.Package), nil
	}

	for _, name := range candidates(input) {
		spec := name
		if input.Version != "" {
			spec = name + "==" + input.Version
		}
		logger.Info("Installing package.", "spec", spec)
		if err := runCmd(input.Python, "-m", "pip", "install", spec); err != nil {
			logger.Warn("Install attempt failed; continuing.", "spec", spec, "error", err)
			continue
		}
		return result(name), nil
	}

	logger.Warn("No install attempt succeeded; treating as best-effort success.",
		"package", input.Package, "fallback", input.Fallback)
	return result(""), nil
}

func candidates(input *Input) []string {
	names := []string{input.Package}
	if input.Fallback != "" {
		names = append(names, input.Fallback)
	}
	return names
}

func result(installed string) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"installed": cty.StringVal(installed),
	})
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	defaultPython := cty.StringVal("python3")
	r.RegisterRunner(&registry.RegisteredRunner{
		Definition: &config.RunnerDefinition{
			Type:        "pip_install",
			Description: "Best-effort package install with a fallback name.",
			Inputs: map[string]*config.InputDefinition{
				"python":   {Name: "python", Type: cty.String, Default: &defaultPython},
				"package":  {Name: "package", Type: cty.String},
				"fallback": {Name: "fallback", Type: cty.String},
				"version":  {Name: "version", Type: cty.String},
			},
		},
		NewInput: func() any { return new(Input) },
		Fn:       Run,
		Tools: func(job *config.Job) []toolchain.Requirement {
			return []toolchain.Requirement{
				{Name: "python3", Alternatives: []string{"python"}, Purpose: "interpreter running pip"},
			}
		},
	})
}
