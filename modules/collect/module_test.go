package collect

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/wheelforge/internal/artifact"
	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/registry"
)

func moduleContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func newStore(t *testing.T) *artifact.Store {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func collected(t *testing.T, call *registry.Call) int64 {
	t.Helper()
	out, err := Run(moduleContext(), call)
	require.NoError(t, err)
	n, _ := out.GetAttr("collected").AsBigFloat().Int64()
	return n
}

func TestRunCollectsMatchingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"a.whl", "b.whl", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	store := newStore(t)

	n := collected(t, &registry.Call{
		Store: store,
		Input: &Input{From: dir, Patterns: []string{"*.whl"}, Required: true},
	})
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"a.whl", "b.whl"}, store.List())
}

func TestRunRequiredPatternWithNoMatchFails(t *testing.T) {
	t.Parallel()

	_, err := Run(moduleContext(), &registry.Call{
		Store: newStore(t),
		Input: &Input{From: t.TempDir(), Patterns: []string{"*.whl"}, Required: true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files match")
}

func TestRunOptionalPatternWithNoMatchWarns(t *testing.T) {
	t.Parallel()

	n := collected(t, &registry.Call{
		Store: newStore(t),
		Input: &Input{From: t.TempDir(), Patterns: []string{"*.whl"}},
	})
	assert.Zero(t, n)
}

func TestRunDryRunCountsWithoutStoring(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.whl"), []byte("x"), 0o644))
	store := newStore(t)

	n := collected(t, &registry.Call{
		DryRun: true,
		Store:  store,
		Input:  &Input{From: dir, Patterns: []string{"*.whl"}, Required: true},
	})
	assert.Equal(t, int64(1), n)
	assert.Empty(t, store.List())
}

func TestRegisterDeclaresContract(t *testing.T) {
	t.Parallel()

	r := registry.New()
	(&Module{}).Register(r)
	require.NoError(t, r.Validate(moduleContext()))
}
