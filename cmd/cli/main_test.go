package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithoutArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(&out, nil))
	assert.Contains(t, out.String(), "wheelforge")
	assert.Contains(t, out.String(), "Usage:")
}

func TestRunHelpFlag(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(&out, []string{"-h"}))
}

func TestRunInvalidFlagReturnsExitError(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-log-format", "xml", "pipeline.hcl"})
	require.Error(t, err)
}

// A dry run of a minimal print pipeline exercises the full wiring from flag
// parsing through execution.
func TestRunDryRunPipeline(t *testing.T) {
	dir := t.TempDir()
	pipeline := `
		pipeline {
			name = "smoke"
		}

		job "print" "hello" {
			os   = "linux"
			arch = "x86_64"

			arguments {
				message = "hello from the pipeline"
			}
		}
	`
	path := filepath.Join(dir, "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(pipeline), 0o644))

	var out bytes.Buffer
	err := run(&out, []string{
		"-dry-run",
		"-log-format", "text",
		"-artifacts-dir", filepath.Join(dir, "artifacts"),
		path,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "hello from the pipeline")
}
