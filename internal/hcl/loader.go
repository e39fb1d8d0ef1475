package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/config"
	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/fsutil"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes all recognized top-level blocks from any file. Every block
// type may appear in any file; the loader merges them into one model.
type fileRoot struct {
	Pipeline *pipelineBlock  `hcl:"pipeline,block"`
	Jobs     []*jobBlock     `hcl:"job,block"`
	Releases []*releaseBlock `hcl:"release,block"`
	Remain   hcl.Body        `hcl:",remain"`
}

type pipelineBlock struct {
	Name     string        `hcl:"name"`
	FailFast *bool         `hcl:"fail_fast,optional"`
	Trigger  *triggerBlock `hcl:"trigger,block"`
}

type triggerBlock struct {
	On string `hcl:"on"`
}

type jobBlock struct {
	Runner       string      `hcl:"runner_type,label"`
	Name         string      `hcl:"instance_name,label"`
	OS           string      `hcl:"os,optional"`
	Arch         string      `hcl:"arch,optional"`
	CrossCompile bool        `hcl:"cross_compile,optional"`
	Emulator     string      `hcl:"emulator,optional"`
	AllowFailure bool        `hcl:"allow_failure,optional"`
	DependsOn    []string    `hcl:"depends_on,optional"`
	Matrix       *remainder  `hcl:"matrix,block"`
	Arguments    *remainder  `hcl:"arguments,block"`
}

type releaseBlock struct {
	Name           string        `hcl:"instance_name,label"`
	DependsOn      []string      `hcl:"depends_on,optional"`
	NeedsArtifacts []string      `hcl:"needs_artifacts,optional"`
	Gate           string        `hcl:"gate,optional"`
	Publish        *publishBlock `hcl:"publish,block"`
}

type publishBlock struct {
	IndexURL string   `hcl:"index_url"`
	TokenEnv string   `hcl:"token_env"`
	Names    []string `hcl:"names,optional"`
}

// remainder captures a block body for deferred decoding.
type remainder struct {
	Body hcl.Body `hcl:",remain"`
}

// Load parses every .hcl file under the given paths and merges the blocks
// into a single config.Model. Exactly one pipeline block and at most one
// release block may appear across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl pipeline files found under %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{
		Runners: make(map[string]*config.RunnerDefinition),
	}

	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.Pipeline != nil {
			if model.Pipeline != nil {
				return nil, fmt.Errorf("%s: duplicate pipeline block", file)
			}
			model.Pipeline = translatePipeline(root.Pipeline)
		}
		for _, jb := range root.Jobs {
			job, err := translateJob(jb)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Jobs = append(model.Jobs, job)
		}
		for _, rb := range root.Releases {
			if model.Release != nil {
				return nil, fmt.Errorf("%s: duplicate release block", file)
			}
			model.Release = translateRelease(rb)
		}
	}

	if model.Pipeline == nil {
		return nil, fmt.Errorf("no pipeline block found in %v", paths)
	}

	logger.Debug("HCL loading complete.",
		"pipeline", model.Pipeline.Name,
		"jobs", len(model.Jobs),
		"has_release", model.Release != nil)
	return model, nil
}

func translatePipeline(b *pipelineBlock) *config.Pipeline {
	p := &config.Pipeline{Name: b.Name}
	if b.FailFast != nil {
		p.FailFast = *b.FailFast
	}
	if b.Trigger != nil {
		p.Trigger = b.Trigger.On
	}
	return p
}

func translateJob(b *jobBlock) (*config.Job, error) {
	job := &config.Job{
		Runner:       b.Runner,
		Name:         b.Name,
		OS:           b.OS,
		Arch:         b.Arch,
		CrossCompile: b.CrossCompile,
		Emulator:     b.Emulator,
		AllowFailure: b.AllowFailure,
		DependsOn:    b.DependsOn,
	}
	if b.CrossCompile && b.Emulator == "" {
		return nil, fmt.Errorf("job %s: cross_compile requires an emulator", job.Ref())
	}
	if b.Matrix != nil {
		axes, err := decodeMatrix(b.Matrix.Body)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", job.Ref(), err)
		}
		job.Matrix = axes
	}
	if b.Arguments != nil {
		job.Arguments = &bodyArgs{body: b.Arguments.Body}
	} else {
		job.Arguments = config.StaticArgs{}
	}
	return job, nil
}

func translateRelease(b *releaseBlock) *config.Release {
	rel := &config.Release{
		Name:           b.Name,
		DependsOn:      b.DependsOn,
		NeedsArtifacts: b.NeedsArtifacts,
		Gate:           b.Gate,
	}
	if b.Publish != nil {
		rel.Publish = &config.Publish{
			IndexURL: b.Publish.IndexURL,
			TokenEnv: b.Publish.TokenEnv,
			Names:    b.Publish.Names,
		}
	}
	return rel
}

// decodeMatrix turns the matrix block's attributes into axis value lists.
// Every attribute must be a list of strings; expressions are evaluated with
// no variables in scope.
func decodeMatrix(body hcl.Body) (map[string][]string, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid matrix block: %w", diags)
	}

	axes := make(map[string][]string, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("matrix axis %q: %w", name, diags)
		}
		if !val.CanIterateElements() {
			return nil, fmt.Errorf("matrix axis %q must be a list", name)
		}
		var values []string
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			s, err := stringValue(ev)
			if err != nil {
				return nil, fmt.Errorf("matrix axis %q: %w", name, err)
			}
			values = append(values, s)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("matrix axis %q is empty", name)
		}
		axes[name] = values
	}
	return axes, nil
}

func stringValue(v cty.Value) (string, error) {
	if v.Type() != cty.String {
		return "", fmt.Errorf("expected string, got %s", v.Type().FriendlyName())
	}
	return v.AsString(), nil
}
