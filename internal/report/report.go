// Package report renders the YAML summary of a pipeline run.
package report

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/wheelforge/internal/dag"
	"github.com/specialistvlad/wheelforge/internal/release"
)

// Report is the serialized outcome of one run.
type Report struct {
	RunID     string       `yaml:"run_id"`
	Pipeline  string       `yaml:"pipeline"`
	Event     *EventInfo   `yaml:"event,omitempty"`
	Nodes     []NodeReport `yaml:"nodes"`
	Artifacts []string     `yaml:"artifacts,omitempty"`
}

// EventInfo is the triggering event as recorded in the report.
type EventInfo struct {
	Kind   string `yaml:"kind"`
	Repo   string `yaml:"repo,omitempty"`
	Tag    string `yaml:"tag,omitempty"`
	Commit string `yaml:"commit,omitempty"`
}

// NodeReport is one node's outcome.
type NodeReport struct {
	ID         string `yaml:"id"`
	State      string `yaml:"state"`
	DurationMS int64  `yaml:"duration_ms"`
	Error      string `yaml:"error,omitempty"`
}

// Build assembles the report from the executed graph. Nodes are sorted by ID
// so the report is stable across runs of the same pipeline.
func Build(runID, pipelineName string, event *release.Event, graph *dag.Graph, artifacts []string) *Report {
	r := &Report{
		RunID:     runID,
		Pipeline:  pipelineName,
		Artifacts: artifacts,
	}
	if event != nil {
		repo := event.Repo
		if event.Owner != "" {
			repo = event.Owner + "/" + event.Repo
		}
		r.Event = &EventInfo{
			Kind:   event.Kind,
			Repo:   repo,
			Tag:    event.TagName,
			Commit: event.CommitSHA,
		}
	}

	for _, n := range graph.Nodes {
		nr := NodeReport{
			ID:         n.ID,
			State:      n.State().String(),
			DurationMS: n.Duration.Milliseconds(),
		}
		if n.Err != nil {
			nr.Error = n.Err.Error()
		}
		r.Nodes = append(r.Nodes, nr)
	}
	sort.Slice(r.Nodes, func(i, j int) bool { return r.Nodes[i].ID < r.Nodes[j].ID })
	return r
}

// Marshal renders the report as YAML.
func (r *Report) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run report: %w", err)
	}
	return data, nil
}

// WriteFile writes the report to the given path.
func (r *Report) WriteFile(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}
