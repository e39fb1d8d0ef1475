package config

import "github.com/zclconf/go-cty/cty"

// Model is the format-agnostic representation of a loaded pipeline: the
// pipeline header, its jobs, the release stage, and the runner definitions
// the jobs reference.
type Model struct {
	Pipeline *Pipeline
	Jobs     []*Job
	Release  *Release
	Runners  map[string]*RunnerDefinition
}

// Pipeline is the header block of a pipeline file.
type Pipeline struct {
	Name string

	// Trigger names the release-event kind the pipeline runs on, e.g.
	// "release". An empty trigger runs on any event.
	Trigger string

	// FailFast restores cancel-on-first-error execution. The default is
	// false: matrix job failures stay isolated from their siblings.
	FailFast bool
}

// Job is a single declared job. A job with matrix axes expands into one
// instance per combination before execution.
type Job struct {
	Runner string
	Name   string

	OS   string
	Arch string

	// Matrix maps an axis name to its values, e.g. "python" -> ["3.7", ...].
	Matrix map[string][]string

	Arguments ArgSource
	DependsOn []string

	// CrossCompile jobs produce binaries for a foreign architecture and
	// validate them under the configured emulator.
	CrossCompile bool
	Emulator     string

	// AllowFailure reports the job's failure without poisoning dependents.
	AllowFailure bool
}

// Ref is the stable reference for a job, used by depends_on and gate fields.
func (j *Job) Ref() string {
	return j.Runner + "." + j.Name
}

// Release describes the final stage: artifact collection checks, the test
// gate, and publishing.
type Release struct {
	Name      string
	DependsOn []string

	// NeedsArtifacts are glob patterns that must each match at least one
	// collected artifact before publishing.
	NeedsArtifacts []string

	// Gate is a job Ref whose every instance must have succeeded before
	// publishing is allowed.
	Gate string

	Publish *Publish
}

// Publish holds the package-index upload settings. The token itself is never
// part of configuration; only the environment variable name is.
type Publish struct {
	IndexURL string
	TokenEnv string

	// Names lists the distribution names the wheel set is published under.
	Names []string
}

// RunnerDefinition is a runner's declared contract: the inputs it accepts
// and the handler implementing it.
type RunnerDefinition struct {
	Type        string
	Description string
	Handler     string
	Inputs      map[string]*InputDefinition
}

// InputDefinition describes one declared runner input.
type InputDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
}
