package dag

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/matrix"
)

// Build constructs the validated execution graph from an expanded plan.
//
// Dependency edges connect whole jobs: "a depends_on b" links every instance
// of b before every instance of a. The release node depends on every job
// instance, plus anything its own depends_on names.
func Build(ctx context.Context, plan *matrix.Plan) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.")

	graph := New()

	// First pass: one node per job instance, indexed by job ref for linking.
	byRef := make(map[string][]*Node)
	for _, in := range plan.Instances {
		n := &Node{ID: in.ID(), Type: JobNode, Instance: in}
		if err := graph.AddNode(n); err != nil {
			return nil, err
		}
		byRef[in.Job.Ref()] = append(byRef[in.Job.Ref()], n)
	}
	logger.Debug("Build: job nodes created.", "count", len(graph.Nodes))

	// Second pass: explicit depends_on edges.
	for _, in := range plan.Instances {
		for _, dep := range in.Job.DependsOn {
			upstream, ok := byRef[normalizeRef(dep)]
			if !ok {
				return nil, fmt.Errorf("job %s depends on unknown job %q", in.Job.Ref(), dep)
			}
			for _, up := range upstream {
				if err := graph.AddEdge(up.ID, in.ID()); err != nil {
					return nil, err
				}
			}
		}
	}

	// Release node last: it waits for every job instance.
	if plan.Release != nil {
		rel := &Node{ID: "release." + plan.Release.Name, Type: ReleaseNode, Release: plan.Release}
		if err := graph.AddNode(rel); err != nil {
			return nil, err
		}
		for _, in := range plan.Instances {
			if err := graph.AddEdge(in.ID(), rel.ID); err != nil {
				return nil, err
			}
		}
		for _, dep := range plan.Release.DependsOn {
			if _, ok := byRef[normalizeRef(dep)]; !ok {
				return nil, fmt.Errorf("release %s depends on unknown job %q", plan.Release.Name, dep)
			}
		}
		if plan.Release.Gate != "" {
			if _, ok := byRef[normalizeRef(plan.Release.Gate)]; !ok {
				return nil, fmt.Errorf("release %s gate references unknown job %q", plan.Release.Name, plan.Release.Gate)
			}
		}
	}

	if err := graph.DetectCycles(); err != nil {
		return nil, err
	}

	for _, n := range graph.Nodes {
		n.InitCounters()
	}

	logger.Debug("Build: graph construction complete.", "node_count", len(graph.Nodes))
	return graph, nil
}

// normalizeRef accepts both "runner.name" and the fully qualified
// "job.runner.name" spelling.
func normalizeRef(ref string) string {
	return strings.TrimPrefix(ref, "job.")
}
