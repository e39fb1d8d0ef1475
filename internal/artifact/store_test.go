package artifact

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreCreatesRunDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := NewStore(root)
	require.NoError(t, err)

	assert.NotEmpty(t, store.RunID())
	assert.Equal(t, filepath.Join(root, store.RunID()), store.Dir())
	info, err := os.Stat(store.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("pkg-1.0-cp39-cp39-win_amd64.whl", []byte("x")))
	err = store.Save("pkg-1.0-cp39-cp39-win_amd64.whl", []byte("y"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already saved")
}

func TestSaveRejectsPathSeparators(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Save("sub/dir.whl", []byte("x")))
	assert.Error(t, store.Save("../escape.whl", []byte("x")))
}

func TestCollectCopiesFileUnderBaseName(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "pkg-1.0-cp39-cp39-manylinux_2_17_x86_64.whl")
	require.NoError(t, os.WriteFile(src, []byte("wheel bytes"), 0o644))

	require.NoError(t, store.Collect(src))

	path, err := store.Path("pkg-1.0-cp39-cp39-manylinux_2_17_x86_64.whl")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("wheel bytes"), data)
}

func TestListAndGlob(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("b.whl", nil))
	require.NoError(t, store.Save("a.whl", nil))
	require.NoError(t, store.Save("report.yaml", nil))

	assert.Equal(t, []string{"a.whl", "b.whl", "report.yaml"}, store.List())

	wheels, err := store.Glob("*.whl")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.whl", "b.whl"}, wheels)

	_, err = store.Glob("[")
	assert.Error(t, err)
}

func TestPathUnknownArtifact(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Path("nope.whl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestConcurrentSaves(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	names := []string{"a.whl", "b.whl", "c.whl", "d.whl", "e.whl"}
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			assert.NoError(t, store.Save(name, []byte(name)))
		}(name)
	}
	wg.Wait()

	assert.Len(t, store.List(), len(names))
}
