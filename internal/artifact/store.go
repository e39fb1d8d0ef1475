// Package artifact implements the filesystem store that build jobs save
// wheels into and the release stage collects from.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store is a per-run artifact directory. Saves from concurrent job instances
// are safe; names are flat (no subdirectories) and unique within a run.
type Store struct {
	mu    sync.Mutex
	dir   string
	runID string
	names map[string]struct{}
}

// NewStore creates the run's artifact directory under root, keyed by a fresh
// run ID.
func NewStore(root string) (*Store, error) {
	runID := uuid.NewString()
	dir := filepath.Join(root, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Store{dir: dir, runID: runID, names: make(map[string]struct{})}, nil
}

// RunID returns the unique identifier of this run.
func (s *Store) RunID() string { return s.runID }

// Dir returns the store's directory on disk.
func (s *Store) Dir() string { return s.dir }

// Save writes an artifact by name. Saving the same name twice is an error:
// two matrix instances producing identical artifact names means the matrix
// is misconfigured.
func (s *Store) Save(name string, data []byte) error {
	if filepath.Base(name) != name {
		return fmt.Errorf("artifact name %q must not contain path separators", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.names[name]; exists {
		return fmt.Errorf("artifact %q already saved in this run", name)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to save artifact %q: %w", name, err)
	}
	s.names[name] = struct{}{}
	return nil
}

// Collect copies an existing file into the store under its base name.
func (s *Store) Collect(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %q for collection: %w", path, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}
	return s.Save(filepath.Base(path), data)
}

// List returns the names of all saved artifacts in sorted order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Glob returns the sorted artifact names matching the pattern.
func (s *Store) Glob(pattern string) ([]string, error) {
	var out []string
	for _, name := range s.List() {
		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("invalid artifact pattern %q: %w", pattern, err)
		}
		if ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// Path returns the on-disk path of a saved artifact.
func (s *Store) Path(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; !ok {
		return "", fmt.Errorf("artifact %q not found in store", name)
	}
	return filepath.Join(s.dir, name), nil
}
