package executor

import (
	"github.com/specialistvlad/wheelforge/internal/artifact"
	"github.com/specialistvlad/wheelforge/internal/dag"
	"github.com/specialistvlad/wheelforge/internal/matrix"
	"github.com/specialistvlad/wheelforge/internal/publish"
	"github.com/specialistvlad/wheelforge/internal/registry"
	"github.com/specialistvlad/wheelforge/internal/release"
)

// Runtime bundles the run-scoped services handlers receive through their
// Call: the artifact store, the triggering event, the gate board, and the
// expanded plan.
type Runtime struct {
	Store    *artifact.Store
	Event    *release.Event
	Gates    *publish.Board
	Plan     *matrix.Plan
	DryRun   bool
	FailFast bool
}

// NewRuntime prepares the run-scoped services, seeding the gate board with
// the expected instance counts of every job.
func NewRuntime(plan *matrix.Plan, store *artifact.Store, event *release.Event, dryRun bool) *Runtime {
	gates := publish.NewBoard()
	counts := make(map[string]int)
	for _, in := range plan.Instances {
		counts[in.Job.Ref()]++
	}
	for ref, n := range counts {
		gates.Expect(ref, n)
	}

	return &Runtime{
		Store:    store,
		Event:    event,
		Gates:    gates,
		Plan:     plan,
		DryRun:   dryRun,
		FailFast: plan.Pipeline != nil && plan.Pipeline.FailFast,
	}
}

// call builds the handler call for a node.
func (rt *Runtime) call(n *dag.Node) *registry.Call {
	return &registry.Call{
		Instance: n.Instance,
		Release:  n.Release,
		Store:    rt.Store,
		Event:    rt.Event,
		Gates:    rt.Gates,
		Plan:     rt.Plan,
		DryRun:   rt.DryRun,
	}
}
