package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/wheelforge/internal/dag"
	"github.com/specialistvlad/wheelforge/internal/release"
)

func testGraph(t *testing.T) *dag.Graph {
	t.Helper()
	g := dag.New()

	ok := &dag.Node{ID: "job.build_wheel.linux[python=3.9]", Type: dag.JobNode}
	ok.Transition(dag.Pending, dag.Running)
	ok.Transition(dag.Running, dag.Succeeded)
	ok.Duration = 1500 * time.Millisecond
	require.NoError(t, g.AddNode(ok))

	bad := &dag.Node{ID: "job.build_wheel.linux[python=3.8]", Type: dag.JobNode}
	bad.Transition(dag.Pending, dag.Running)
	bad.Transition(dag.Running, dag.Failed)
	bad.Err = errors.New("compiler exploded")
	require.NoError(t, g.AddNode(bad))

	return g
}

func TestBuildSortsNodesAndCarriesErrors(t *testing.T) {
	t.Parallel()

	ev := &release.Event{Kind: "release", Owner: "congyuwang", Repo: "rocksdict", TagName: "v0.3.24", CommitSHA: "abc"}
	r := Build("run-1", "wheels", ev, testGraph(t), []string{"a.whl"})

	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, "wheels", r.Pipeline)
	require.NotNil(t, r.Event)
	assert.Equal(t, "congyuwang/rocksdict", r.Event.Repo)
	assert.Equal(t, "v0.3.24", r.Event.Tag)

	require.Len(t, r.Nodes, 2)
	assert.Equal(t, "job.build_wheel.linux[python=3.8]", r.Nodes[0].ID)
	assert.Equal(t, "failed", r.Nodes[0].State)
	assert.Equal(t, "compiler exploded", r.Nodes[0].Error)
	assert.Equal(t, "job.build_wheel.linux[python=3.9]", r.Nodes[1].ID)
	assert.Equal(t, "succeeded", r.Nodes[1].State)
	assert.Equal(t, int64(1500), r.Nodes[1].DurationMS)
}

func TestBuildWithoutEvent(t *testing.T) {
	t.Parallel()

	r := Build("run-2", "wheels", nil, testGraph(t), nil)
	assert.Nil(t, r.Event)
	assert.Empty(t, r.Artifacts)
}

func TestWriteFileRoundTrips(t *testing.T) {
	t.Parallel()

	r := Build("run-3", "wheels", nil, testGraph(t), []string{"a.whl", "b.whl"})
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed Report
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, "run-3", parsed.RunID)
	assert.Len(t, parsed.Nodes, 2)
	assert.Equal(t, []string{"a.whl", "b.whl"}, parsed.Artifacts)
}
