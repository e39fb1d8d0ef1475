package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/wheelforge/internal/artifact"
	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/dag"
	"github.com/specialistvlad/wheelforge/internal/executor"
	"github.com/specialistvlad/wheelforge/internal/matrix"
	"github.com/specialistvlad/wheelforge/internal/release"
	"github.com/specialistvlad/wheelforge/internal/report"
	"github.com/specialistvlad/wheelforge/internal/toolchain"
)

// Run executes the loaded pipeline end to end: trigger check, matrix
// expansion, tool probing, graph execution, and the run report.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx)
		defer a.closeHealthcheckServer(ctx)
	}

	event, err := a.resolveEvent()
	if err != nil {
		return err
	}
	if a.model.Pipeline.Trigger != "" {
		if event == nil {
			a.logger.Warn("Pipeline requires a trigger event and none was provided; nothing to do.",
				"trigger", a.model.Pipeline.Trigger)
			return nil
		}
		if a.model.Pipeline.Trigger == "release" && !event.Published() {
			a.logger.Warn("Event does not match the pipeline trigger; nothing to do.",
				"trigger", a.model.Pipeline.Trigger, "kind", event.Kind, "action", event.Action)
			return nil
		}
	}

	plan := matrix.ExpandModel(a.model)
	a.logger.Info("Matrix expanded.", "jobs", len(a.model.Jobs), "instances", len(plan.Instances))

	if !a.config.DryRun {
		if err := a.checkTools(plan); err != nil {
			return err
		}
	}

	graph, err := dag.Build(ctx, plan)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "node_count", len(graph.Nodes))

	if len(graph.Nodes) == 0 {
		a.logger.Warn("No nodes found in graph, execution not required.")
		return nil
	}

	store, err := artifact.NewStore(a.config.ArtifactsDir)
	if err != nil {
		return err
	}
	a.logger.Debug("Artifact store created.", "run_id", store.RunID(), "dir", store.Dir())

	rt := executor.NewRuntime(plan, store, event, a.config.DryRun)
	exec := executor.New(graph, a.config.WorkerCount, a.registry, rt)

	a.logger.Info("🚀 Starting concurrent execution...", "workers", a.config.WorkerCount)
	runErr := exec.Run(ctx)
	a.logger.Info("🏁 Execution finished.")

	if a.config.ReportPath != "" {
		rep := report.Build(store.RunID(), a.model.Pipeline.Name, event, graph, store.List())
		if err := rep.WriteFile(a.config.ReportPath); err != nil {
			a.logger.Error("Failed to write run report.", "error", err)
			if runErr == nil {
				runErr = err
			}
		} else {
			a.logger.Info("Run report written.", "path", a.config.ReportPath)
		}
	}

	if runErr != nil {
		return fmt.Errorf("execution failed: %w", runErr)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// resolveEvent loads the triggering release event: an explicit payload file
// wins, then RELEASE_* environment variables. Dry runs without any event get
// a placeholder so version-dependent steps still resolve.
func (a *App) resolveEvent() (*release.Event, error) {
	if a.config.EventPath != "" {
		event, err := release.ParseFile(a.config.EventPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load release event: %w", err)
		}
		return event, nil
	}
	if event := release.FromEnv(); event != nil {
		return event, nil
	}
	if a.config.DryRun {
		return &release.Event{Kind: "release", Action: "published", TagName: "v0.0.0"}, nil
	}
	return nil, nil
}

// checkTools probes for every external tool the plan's runners declare,
// before any node starts.
func (a *App) checkTools(plan *matrix.Plan) error {
	seen := make(map[string]struct{})
	var reqs []toolchain.Requirement
	for _, job := range a.model.Jobs {
		h, err := a.registry.Runner(job.Runner)
		if err != nil {
			return err
		}
		if h.Tools == nil {
			continue
		}
		for _, req := range h.Tools(job) {
			if _, ok := seen[req.Name]; ok {
				continue
			}
			seen[req.Name] = struct{}{}
			reqs = append(reqs, req)
		}
	}
	if err := toolchain.Check(reqs); err != nil {
		return err
	}
	a.logger.Debug("Toolchain check passed.", "tools", len(reqs), "instances", len(plan.Instances))
	return nil
}
