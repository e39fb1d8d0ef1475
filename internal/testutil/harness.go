package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/wheelforge/internal/app"
	"github.com/specialistvlad/wheelforge/internal/hcl"
	"github.com/specialistvlad/wheelforge/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Options tunes a harness run.
type Options struct {
	// Modules replaces the compiled-in module list. Required: tests run
	// with explicit mock or real modules, never the implicit default.
	Modules []registry.Module

	// EventJSON, when set, is written to a payload file and wired through
	// -event.
	EventJSON string

	DryRun  bool
	Workers int
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput     string
	Err           error
	App           *app.App
	ArtifactsRoot string
}

// RunPipelineTest writes the given pipeline files to a temp dir, builds the
// app around them, and executes the full run lifecycle.
func RunPipelineTest(t *testing.T, files map[string]string, opts Options) *HarnessResult {
	t.Helper()
	return RunPipelineTestWithContext(context.Background(), t, files, opts)
}

// RunPipelineTestWithContext is RunPipelineTest with a caller-provided
// context, for cancellation tests.
func RunPipelineTestWithContext(ctx context.Context, t *testing.T, files map[string]string, opts Options) *HarnessResult {
	t.Helper()
	require.NotEmpty(t, opts.Modules, "harness requires explicit modules")

	tmpDir := t.TempDir()
	pipelineDir := filepath.Join(tmpDir, "pipeline")
	artifactsDir := filepath.Join(tmpDir, "artifacts")
	require.NoError(t, os.Mkdir(pipelineDir, 0o755))

	for name, content := range files {
		filePath := filepath.Join(pipelineDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	workers := opts.Workers
	if workers == 0 {
		workers = 4
	}
	appConfig := &app.Config{
		PipelinePath: pipelineDir,
		ArtifactsDir: artifactsDir,
		LogLevel:     "debug",
		LogFormat:    "text",
		WorkerCount:  workers,
		DryRun:       opts.DryRun,
	}
	if opts.EventJSON != "" {
		eventPath := filepath.Join(tmpDir, "event.json")
		require.NoError(t, os.WriteFile(eventPath, []byte(opts.EventJSON), 0o644))
		appConfig.EventPath = eventPath
	}

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, hcl.NewLoader(), opts.Modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput:     logBuffer.String(),
			Err:           fmt.Errorf("application startup panicked | %v", panicErr),
			ArtifactsRoot: artifactsDir,
		}
	}

	runErr := testApp.Run(ctx)

	if os.Getenv("WHEELFORGE_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput:     logBuffer.String(),
		Err:           runErr,
		App:           testApp,
		ArtifactsRoot: artifactsDir,
	}
}
