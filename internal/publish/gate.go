// Package publish implements the release gate and the package-index upload.
package publish

import (
	"fmt"
	"sync"
)

// Board records test-gate outcomes across concurrently running job
// instances. The release stage consults it before any upload: every expected
// instance of the gate job must have reported success.
type Board struct {
	mu       sync.Mutex
	expected map[string]int
	passed   map[string]int
	failed   map[string]int
}

// NewBoard creates an empty gate board.
func NewBoard() *Board {
	return &Board{
		expected: make(map[string]int),
		passed:   make(map[string]int),
		failed:   make(map[string]int),
	}
}

// Expect declares how many instances of a gate job will report. Called once
// per job ref after matrix expansion.
func (b *Board) Expect(jobRef string, instances int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expected[jobRef] = instances
}

// Record stores one instance's gate outcome.
func (b *Board) Record(jobRef string, passed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if passed {
		b.passed[jobRef]++
	} else {
		b.failed[jobRef]++
	}
}

// Check returns nil when every expected instance of the gate job passed.
func (b *Board) Check(jobRef string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	expected, ok := b.expected[jobRef]
	if !ok {
		return fmt.Errorf("gate %q was never scheduled", jobRef)
	}
	if failed := b.failed[jobRef]; failed > 0 {
		return fmt.Errorf("gate %q failed for %d of %d instances", jobRef, failed, expected)
	}
	if passed := b.passed[jobRef]; passed < expected {
		return fmt.Errorf("gate %q reported %d of %d instances", jobRef, passed, expected)
	}
	return nil
}
