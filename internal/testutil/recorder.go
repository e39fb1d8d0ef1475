package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/config"
	"github.com/specialistvlad/wheelforge/internal/registry"
)

// ExecutionRecord captures when one instance of a recorder runner executed.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// RecorderModule is a configurable mock runner for integration tests. It
// records every instance that executed and can be told to fail or sleep.
type RecorderModule struct {
	// Type is the runner type name the module registers under.
	Type string

	// FailInstances maps an instance ID to a forced failure.
	FailInstances map[string]error

	// Sleep delays every execution, for concurrency-overlap assertions.
	Sleep time.Duration

	mu      sync.Mutex
	ran     []string
	records map[string]ExecutionRecord
}

// NewRecorder creates a RecorderModule for the given runner type.
func NewRecorder(runnerType string) *RecorderModule {
	return &RecorderModule{
		Type:          runnerType,
		FailInstances: make(map[string]error),
		records:       make(map[string]ExecutionRecord),
	}
}

// Register implements registry.Module.
func (m *RecorderModule) Register(r *registry.Registry) {
	r.RegisterRunner(&registry.RegisteredRunner{
		Definition: &config.RunnerDefinition{
			Type:        m.Type,
			Description: "test recorder",
		},
		Fn: m.run,
	})
}

func (m *RecorderModule) run(ctx context.Context, call *registry.Call) (cty.Value, error) {
	id := call.Instance.ID()
	start := time.Now()
	if m.Sleep > 0 {
		select {
		case <-time.After(m.Sleep):
		case <-ctx.Done():
			return cty.NilVal, ctx.Err()
		}
	}

	m.mu.Lock()
	m.ran = append(m.ran, id)
	m.records[id] = ExecutionRecord{Start: start, End: time.Now()}
	err := m.FailInstances[id]
	m.mu.Unlock()

	if err != nil {
		return cty.NilVal, err
	}
	return cty.ObjectVal(map[string]cty.Value{"ok": cty.True}), nil
}

// Ran returns the IDs of every instance that executed, in completion order.
func (m *RecorderModule) Ran() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ran...)
}

// Record returns the execution record for an instance ID.
func (m *RecorderModule) Record(id string) (ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	return rec, ok
}

// DidRun reports whether the given instance executed.
func (m *RecorderModule) DidRun(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ran := range m.ran {
		if ran == id {
			return true
		}
	}
	return false
}
