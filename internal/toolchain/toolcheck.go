// Package toolchain probes for the external build tools a pipeline's jobs
// need, so a run fails before any job starts rather than halfway through a
// matrix.
package toolchain

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement describes one build tool dependency. Any name in Alternatives
// also satisfies the requirement; Optional tools are reported but never fail
// the check.
type Requirement struct {
	Name         string
	Alternatives []string
	Optional     bool
	Purpose      string
}

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// Available reports whether a tool is resolvable on PATH.
func Available(tool string) error {
	if _, err := lookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// satisfied checks the requirement's primary name, then its alternatives.
func (r Requirement) satisfied() bool {
	if Available(r.Name) == nil {
		return true
	}
	for _, alt := range r.Alternatives {
		if Available(alt) == nil {
			return true
		}
	}
	return false
}

// Check verifies a set of requirements and returns a single error naming
// every missing required tool.
func Check(requirements []Requirement) error {
	var missing []string
	for _, req := range requirements {
		if req.satisfied() || req.Optional {
			continue
		}
		desc := req.Name
		if len(req.Alternatives) > 0 {
			desc += " (or " + strings.Join(req.Alternatives, ", ") + ")"
		}
		if req.Purpose != "" {
			desc += ": " + req.Purpose
		}
		missing = append(missing, desc)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required build tools:\n  - %s", strings.Join(missing, "\n  - "))
	}
	return nil
}
