package testutil

import (
	"context"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/registry"
)

// ReleaseRecorderModule is a mock release handler that records whether the
// release stage executed.
type ReleaseRecorderModule struct {
	// Err, when set, makes the release stage fail.
	Err error

	mu  sync.Mutex
	ran bool
}

// Register implements registry.Module.
func (m *ReleaseRecorderModule) Register(r *registry.Registry) {
	r.RegisterReleaseHandler(func(ctx context.Context, call *registry.Call) (cty.Value, error) {
		m.mu.Lock()
		m.ran = true
		m.mu.Unlock()
		if m.Err != nil {
			return cty.NilVal, m.Err
		}
		return cty.ObjectVal(map[string]cty.Value{"ok": cty.True}), nil
	})
}

// Ran reports whether the release stage executed.
func (m *ReleaseRecorderModule) Ran() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ran
}
