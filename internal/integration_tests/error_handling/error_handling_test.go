package integration_tests

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/wheelforge/internal/registry"
	"github.com/specialistvlad/wheelforge/internal/testutil"
)

// With fail_fast disabled (the default), one failing matrix instance does not
// stop its siblings.
func TestErrorHandling_MatrixFailureIsIsolated(t *testing.T) {
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
	`
	recorder := testutil.NewRecorder("build")
	recorder.FailInstances["job.build.wheels[python=3.9]"] = errors.New("linker error")

	result := testutil.RunPipelineTest(t, map[string]string{"main.hcl": pipelineHCL}, testutil.Options{
		Modules: []registry.Module{recorder},
	})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "job.build.wheels[python=3.9]")
	assert.Len(t, recorder.Ran(), 3, "siblings keep running")
}

// With fail_fast enabled, the first failure cancels outstanding work.
func TestErrorHandling_FailFastCancelsRun(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
		pipeline {
			name      = "wheels"
			fail_fast = true
		}

		job "build" "wheels" {
			os   = "linux"
			arch = "x86_64"

			matrix {
				python = ["3.10", "3.11", "3.12", "3.7", "3.8", "3.9"]
			}
		}
	`
	recorder := testutil.NewRecorder("build")
	recorder.FailInstances["job.build.wheels[python=3.10]"] = errors.New("linker error")

	result := testutil.RunPipelineTest(t, map[string]string{"main.hcl": pipelineHCL}, testutil.Options{
		Modules: []registry.Module{recorder},
		Workers: 1,
	})

	require.Error(t, result.Err)
	assert.Less(t, len(recorder.Ran()), 6, "cancellation stops part of the matrix")
}

// A failed job skips its dependents but still fails the run.
func TestErrorHandling_FailureSkipsDependents(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
		pipeline {
			name = "wheels"
		}

		job "build" "wheels" {
			os   = "linux"
			arch = "x86_64"
		}

		job "verify" "gate" {
			os         = "linux"
			arch       = "x86_64"
			depends_on = ["build.wheels"]
		}
	`
	builds := testutil.NewRecorder("build")
	builds.FailInstances["job.build.wheels"] = errors.New("linker error")
	verify := testutil.NewRecorder("verify")

	result := testutil.RunPipelineTest(t, map[string]string{"main.hcl": pipelineHCL}, testutil.Options{
		Modules: []registry.Module{builds, verify},
	})

	require.Error(t, result.Err)
	assert.False(t, verify.DidRun("job.verify.gate"))
	assert.Contains(t, result.LogOutput, "Skipping dependent node")
}

// allow_failure tolerates a failing job: dependents still run and the run
// succeeds.
func TestErrorHandling_AllowFailureTolerated(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
		pipeline {
			name = "wheels"
		}

		job "smoke" "optional" {
			os            = "linux"
			arch          = "x86_64"
			allow_failure = true
		}

		job "build" "wheels" {
			os         = "linux"
			arch       = "x86_64"
			depends_on = ["smoke.optional"]
		}
	`
	smoke := testutil.NewRecorder("smoke")
	smoke.FailInstances["job.smoke.optional"] = errors.New("flaky probe")
	builds := testutil.NewRecorder("build")

	result := testutil.RunPipelineTest(t, map[string]string{"main.hcl": pipelineHCL}, testutil.Options{
		Modules: []registry.Module{smoke, builds},
	})

	require.NoError(t, result.Err)
	assert.True(t, builds.DidRun("job.build.wheels"))
	assert.Contains(t, result.LogOutput, "Failure tolerated")
}

// The release stage never runs when any job instance failed.
func TestErrorHandling_ReleaseSkippedOnJobFailure(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
		pipeline {
			name = "wheels"
		}

		job "build" "wheels" {
			os   = "linux"
			arch = "x86_64"

			matrix {
				python = ["3.8", "3.9"]
			}
		}

		release "pypi" {
		}
	`
	builds := testutil.NewRecorder("build")
	builds.FailInstances["job.build.wheels[python=3.8]"] = errors.New("linker error")
	releaseStage := &testutil.ReleaseRecorderModule{}

	result := testutil.RunPipelineTest(t, map[string]string{"main.hcl": pipelineHCL}, testutil.Options{
		Modules: []registry.Module{builds, releaseStage},
	})

	require.Error(t, result.Err)
	assert.False(t, releaseStage.Ran())
}

// A failing release stage fails the run even when every job succeeded.
func TestErrorHandling_ReleaseFailureFailsRun(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
		pipeline {
			name = "wheels"
		}

		job "build" "wheels" {
			os   = "linux"
			arch = "x86_64"
		}

		release "pypi" {
		}
	`
	builds := testutil.NewRecorder("build")
	releaseStage := &testutil.ReleaseRecorderModule{Err: errors.New("index rejected upload")}

	result := testutil.RunPipelineTest(t, map[string]string{"main.hcl": pipelineHCL}, testutil.Options{
		Modules: []registry.Module{builds, releaseStage},
	})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "index rejected upload")
	assert.True(t, releaseStage.Ran())
}
