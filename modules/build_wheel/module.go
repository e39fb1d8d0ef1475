// Package build_wheel provides the job that builds one wheel per matrix
// instance and files it into the run's artifact store.
package build_wheel

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/sh"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/config"
	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/registry"
	"github.com/specialistvlad/wheelforge/internal/toolchain"
	"github.com/specialistvlad/wheelforge/internal/wheel"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' block. Python is normally
// wired from the matrix: python = matrix.python.
type Input struct {
	Distribution string            `cty:"distribution"`
	Version      string            `cty:"version"`
	Python       string            `cty:"python"`
	Manylinux    string            `cty:"manylinux"`
	ProjectDir   string            `cty:"project_dir"`
	OutDir       string            `cty:"out_dir"`
	Command      []string          `cty:"command"`
	Env          map[string]string `cty:"env"`
}

var runWith = sh.RunWith

// Run is the handler for the 'build_wheel' runner.
func Run(ctx context.Context, call *registry.Call) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	input := call.Input.(*Input)
	job := call.Instance.Job

	version := input.Version
	if version == "" && call.Event != nil {
		version = call.Event.Version()
	}
	if version == "" {
		return cty.NilVal, fmt.Errorf("build_wheel: no version from arguments or release event")
	}

	expected, err := wheel.ForTarget(input.Distribution, version, input.Python, job.OS, job.Arch)
	if err != nil {
		return cty.NilVal, fmt.Errorf("build_wheel: %w", err)
	}
	if input.Manylinux != "" {
		// A manylinux variant from the matrix overrides the linux baseline tag.
		tag, err := wheel.ManylinuxTag(input.Manylinux, job.Arch)
		if err != nil {
			return cty.NilVal, fmt.Errorf("build_wheel: %w", err)
		}
		expected.PlatformTag = tag
	}

	if call.DryRun {
		logger.Info("Dry run: recording expected wheel without building.", "wheel", expected.String())
		if err := call.Store.Save(expected.String(), []byte{}); err != nil {
			return cty.NilVal, err
		}
		return buildResult(expected.String()), nil
	}

	env := map[string]string{
		"WHEELFORGE_PYTHON":   input.Python,
		"WHEELFORGE_PLATFORM": expected.PlatformTag,
	}
	if job.CrossCompile {
		// Cross-compiled builds validate their output under the emulator.
		env["WHEELFORGE_EMULATOR"] = job.Emulator
		env["WHEELFORGE_TARGET_ARCH"] = job.Arch
	}
	for k, v := range input.Env {
		env[k] = v
	}

	command := input.Command
	if len(command) == 0 {
		command = []string{"python3", "-m", "build", "--wheel", "--outdir", input.OutDir, input.ProjectDir}
	}

	logger.Info("Building wheel.", "target", expected.String(), "command", command)
	if err := runWith(env, command[0], command[1:]...); err != nil {
		return cty.NilVal, fmt.Errorf("wheel build failed for %s: %w", call.Instance.ID(), err)
	}

	built, err := findBuilt(input.OutDir, expected)
	if err != nil {
		return cty.NilVal, err
	}
	if err := call.Store.Collect(built); err != nil {
		return cty.NilVal, err
	}
	logger.Info("Wheel built and collected.", "wheel", filepath.Base(built))
	return buildResult(filepath.Base(built)), nil
}

// findBuilt locates the wheel matching the instance's expected tag tuple in
// the build output directory. A build that produced no compatible wheel is a
// failure even when the command exited zero.
func findBuilt(outDir string, expected wheel.Filename) (string, error) {
	paths, err := filepath.Glob(filepath.Join(outDir, "*.whl"))
	if err != nil {
		return "", fmt.Errorf("failed to scan %q for wheels: %w", outDir, err)
	}
	for _, path := range paths {
		f, err := wheel.ParseFilename(filepath.Base(path))
		if err != nil {
			continue
		}
		if wheel.NormalizeDistribution(f.Distribution) != wheel.NormalizeDistribution(expected.Distribution) {
			continue
		}
		if f.CompatibleWith(expected.PythonTag, expected.PlatformTag) {
			return path, nil
		}
	}
	return "", fmt.Errorf("build produced no wheel compatible with %s in %q", expected.String(), outDir)
}

func buildResult(name string) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"wheel": cty.StringVal(name),
	})
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	defaultDir := cty.StringVal(".")
	defaultOut := cty.StringVal("dist")
	r.RegisterRunner(&registry.RegisteredRunner{
		Definition: &config.RunnerDefinition{
			Type:        "build_wheel",
			Description: "Builds one wheel per matrix instance and stores it.",
			Inputs: map[string]*config.InputDefinition{
				"distribution": {Name: "distribution", Type: cty.String},
				"version":      {Name: "version", Type: cty.String},
				"python":       {Name: "python", Type: cty.String},
				"manylinux":    {Name: "manylinux", Type: cty.String},
				"project_dir":  {Name: "project_dir", Type: cty.String, Default: &defaultDir},
				"out_dir":      {Name: "out_dir", Type: cty.String, Default: &defaultOut},
				"command":      {Name: "command", Type: cty.List(cty.String)},
				"env":          {Name: "env", Type: cty.Map(cty.String)},
			},
		},
		NewInput: func() any { return new(Input) },
		Fn:       Run,
		Tools: func(job *config.Job) []toolchain.Requirement {
			reqs := []toolchain.Requirement{
				{Name: "python3", Alternatives: []string{"python"}, Purpose: "wheel build frontend"},
			}
			if job.CrossCompile && job.Emulator != "" {
				reqs = append(reqs, toolchain.Requirement{
					Name:    job.Emulator,
					Purpose: fmt.Sprintf("emulator validating %s binaries", job.Arch),
				})
			}
			return reqs
		},
	})
}
