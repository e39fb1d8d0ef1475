package integration_tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/wheelforge/internal/registry"
	"github.com/specialistvlad/wheelforge/internal/testutil"
)

// Every matrix combination runs exactly once, and the instance IDs carry the
// axis values.
func TestMatrix_EveryCombinationRuns(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
		pipeline {
			name = "wheels"
		}

		job "build" "manylinux" {
			os   = "linux"
			arch = "x86_64"

			matrix {
				python  = ["3.8", "3.9", "3.10"]
				variant = ["manylinux2014", "manylinux_2_28"]
			}
		}
	`
	recorder := testutil.NewRecorder("build")

	result := testutil.RunPipelineTest(t, map[string]string{"main.hcl": pipelineHCL}, testutil.Options{
		Modules: []registry.Module{recorder},
	})

	require.NoError(t, result.Err)
	ran := recorder.Ran()
	assert.Len(t, ran, 6)
	assert.True(t, recorder.DidRun("job.build.manylinux[python=3.8,variant=manylinux2014]"))
	assert.True(t, recorder.DidRun("job.build.manylinux[python=3.10,variant=manylinux_2_28]"))
}

// Independent matrix instances overlap in time when enough workers are
// available.
func TestMatrix_InstancesRunConcurrently(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
		pipeline {
			name = "wheels"
		}

		job "build" "macos" {
			os   = "macos"
			arch = "universal2"

			matrix {
				python = ["3.8", "3.9"]
			}
		}
	`
	recorder := testutil.NewRecorder("build")
	recorder.Sleep = 100 * time.Millisecond

	result := testutil.RunPipelineTest(t, map[string]string{"main.hcl": pipelineHCL}, testutil.Options{
		Modules: []registry.Module{recorder},
		Workers: 2,
	})

	require.NoError(t, result.Err)
	a, ok := recorder.Record("job.build.macos[python=3.8]")
	require.True(t, ok)
	b, ok := recorder.Record("job.build.macos[python=3.9]")
	require.True(t, ok)

	overlap := a.Start.Before(b.End) && b.Start.Before(a.End)
	assert.True(t, overlap, "expected concurrent execution, got %v-%v and %v-%v",
		a.Start, a.End, b.Start, b.End)
}

// A single worker serializes the whole matrix.
func TestMatrix_SingleWorkerSerializes(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
		pipeline {
			name = "wheels"
		}

		job "build" "macos" {
			os   = "macos"
			arch = "universal2"

			matrix {
				python = ["3.8", "3.9"]
			}
		}
	`
	recorder := testutil.NewRecorder("build")
	recorder.Sleep = 50 * time.Millisecond

	result := testutil.RunPipelineTest(t, map[string]string{"main.hcl": pipelineHCL}, testutil.Options{
		Modules: []registry.Module{recorder},
		Workers: 1,
	})

	require.NoError(t, result.Err)
	a, _ := recorder.Record("job.build.macos[python=3.8]")
	b, _ := recorder.Record("job.build.macos[python=3.9]")
	overlap := a.Start.Before(b.End) && b.Start.Before(a.End)
	assert.False(t, overlap, "expected serialized execution")
}

// depends_on links every instance of the upstream job before any instance of
// the dependent runs.
func TestMatrix_DependencyWaitsForWholeUpstreamJob(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
		pipeline {
			name = "wheels"
		}

		job "build" "wheels" {
			os   = "linux"
			arch = "x86_64"

			matrix {
				python = ["3.8", "3.9", "3.10"]
			}
		}

		job "verify" "gate" {
			os         = "linux"
			arch       = "x86_64"
			depends_on = ["build.wheels"]
		}
	`
	builds := testutil.NewRecorder("build")
	verify := testutil.NewRecorder("verify")

	result := testutil.RunPipelineTest(t, map[string]string{"main.hcl": pipelineHCL}, testutil.Options{
		Modules: []registry.Module{builds, verify},
	})

	require.NoError(t, result.Err)
	gate, ok := verify.Record("job.verify.gate")
	require.True(t, ok)
	for _, id := range builds.Ran() {
		rec, _ := builds.Record(id)
		assert.False(t, gate.Start.Before(rec.End), "gate started before %s finished", id)
	}
}
