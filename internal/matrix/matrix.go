// Package matrix expands a job's build matrix into concrete job instances.
// Expansion is deterministic: axes are processed in sorted order and the
// instance list is the odometer-order cross product of the axis values.
package matrix

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/config"
)

// Instance is one concrete execution of a job: the job plus a single
// combination of matrix variables.
type Instance struct {
	Job *config.Job

	// Vars holds this instance's value for each matrix axis.
	Vars map[string]string
}

// ID is the unique node identifier for the instance, e.g.
// "job.build_wheel.macos[python=3.9]". A job without a matrix keeps the
// bare "job.<runner>.<name>" form.
func (in *Instance) ID() string {
	id := "job." + in.Job.Ref()
	if len(in.Vars) == 0 {
		return id
	}
	axes := sortedKeys(in.Vars)
	pairs := make([]string, 0, len(axes))
	for _, axis := range axes {
		pairs = append(pairs, axis+"="+in.Vars[axis])
	}
	return id + "[" + strings.Join(pairs, ",") + "]"
}

// Variables builds the expression scope for evaluating the instance's
// arguments: matrix.* for the axis values and job.* for the job's platform
// fields.
func (in *Instance) Variables() map[string]cty.Value {
	vars := map[string]cty.Value{
		"job": cty.ObjectVal(map[string]cty.Value{
			"name":   cty.StringVal(in.Job.Name),
			"runner": cty.StringVal(in.Job.Runner),
			"os":     cty.StringVal(in.Job.OS),
			"arch":   cty.StringVal(in.Job.Arch),
		}),
	}
	if len(in.Vars) > 0 {
		axisVals := make(map[string]cty.Value, len(in.Vars))
		for axis, value := range in.Vars {
			axisVals[axis] = cty.StringVal(value)
		}
		vars["matrix"] = cty.ObjectVal(axisVals)
	}
	return vars
}

// Arguments evaluates the job's argument expressions for this instance.
func (in *Instance) Arguments() (map[string]cty.Value, error) {
	args, err := in.Job.Arguments.Eval(in.Variables())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.ID(), err)
	}
	return args, nil
}

// Expand produces every instance of a job. A job without matrix axes yields
// exactly one instance.
func Expand(job *config.Job) []*Instance {
	if len(job.Matrix) == 0 {
		return []*Instance{{Job: job, Vars: map[string]string{}}}
	}

	axes := sortedAxisNames(job.Matrix)

	count := 1
	for _, axis := range axes {
		count *= len(job.Matrix[axis])
	}

	instances := make([]*Instance, 0, count)
	indices := make([]int, len(axes))
	for {
		vars := make(map[string]string, len(axes))
		for i, axis := range axes {
			vars[axis] = job.Matrix[axis][indices[i]]
		}
		instances = append(instances, &Instance{Job: job, Vars: vars})

		// Advance the odometer, least significant axis last.
		pos := len(axes) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(job.Matrix[axes[pos]]) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			return instances
		}
	}
}

// Plan is the fully expanded pipeline: every job instance plus the release
// stage, ready for graph construction.
type Plan struct {
	Pipeline  *config.Pipeline
	Instances []*Instance
	Release   *config.Release
}

// ExpandModel expands every job in the model into the run plan.
func ExpandModel(model *config.Model) *Plan {
	plan := &Plan{
		Pipeline: model.Pipeline,
		Release:  model.Release,
	}
	for _, job := range model.Jobs {
		plan.Instances = append(plan.Instances, Expand(job)...)
	}
	return plan
}

// InstancesOf returns the instances belonging to the referenced job.
func (p *Plan) InstancesOf(jobRef string) []*Instance {
	var out []*Instance
	for _, in := range p.Instances {
		if in.Job.Ref() == jobRef {
			out = append(out, in)
		}
	}
	return out
}

func sortedAxisNames(matrix map[string][]string) []string {
	axes := make([]string, 0, len(matrix))
	for axis := range matrix {
		axes = append(axes, axis)
	}
	sort.Strings(axes)
	return axes
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
