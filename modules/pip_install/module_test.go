package pip_install

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/registry"
)

func moduleContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// stubRuns replaces command execution and records each pip invocation.
func stubRuns(t *testing.T, failSpecs ...string) *[]string {
	t.Helper()
	fails := make(map[string]struct{}, len(failSpecs))
	for _, spec := range failSpecs {
		fails[spec] = struct{}{}
	}
	var calls []string
	orig := runCmd
	runCmd = func(cmd string, args ...string) error {
		spec := args[len(args)-1]
		calls = append(calls, cmd+" "+strings.Join(args, " "))
		if _, ok := fails[spec]; ok {
			return errors.New("no matching distribution")
		}
		return nil
	}
	t.Cleanup(func() { runCmd = orig })
	return &calls
}

func installed(t *testing.T, out cty.Value) string {
	t.Helper()
	require.True(t, out.Type().HasAttribute("installed"))
	return out.GetAttr("installed").AsString()
}

func TestRunInstallsPrimaryName(t *testing.T) {
	calls := stubRuns(t)

	out, err := Run(moduleContext(), &registry.Call{
		Input: &Input{Python: "python3", Package: "rocksdict", Version: "0.3.24"},
	})
	require.NoError(t, err)
	assert.Equal(t, "rocksdict", installed(t, out))
	require.Len(t, *calls, 1)
	assert.Equal(t, "python3 -m pip install rocksdict==0.3.24", (*calls)[0])
}

func TestRunFallsBackToSecondaryName(t *testing.T) {
	calls := stubRuns(t, "rocksdict==0.3.24")

	out, err := Run(moduleContext(), &registry.Call{
		Input: &Input{Python: "python3", Package: "rocksdict", Fallback: "speedict", Version: "0.3.24"},
	})
	require.NoError(t, err)
	assert.Equal(t, "speedict", installed(t, out))
	require.Len(t, *calls, 2)
	assert.Equal(t, "python3 -m pip install speedict==0.3.24", (*calls)[1])
}

func TestRunNeverFailsTheJob(t *testing.T) {
	stubRuns(t, "rocksdict", "speedict")

	out, err := Run(moduleContext(), &registry.Call{
		Input: &Input{Python: "python3", Package: "rocksdict", Fallback: "speedict"},
	})
	require.NoError(t, err, "install failures are best-effort")
	assert.Empty(t, installed(t, out))
}

func TestRunDryRunSkipsCommands(t *testing.T) {
	calls := stubRuns(t)

	out, err := Run(moduleContext(), &registry.Call{
		DryRun: true,
		Input:  &Input{Python: "python3", Package: "rocksdict"},
	})
	require.NoError(t, err)
	assert.Equal(t, "rocksdict", installed(t, out))
	assert.Empty(t, *calls)
}

func TestRegisterDeclaresContract(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)

	h, err := r.Runner("pip_install")
	require.NoError(t, err)
	assert.NotNil(t, h.Tools)
	require.NoError(t, r.Validate(moduleContext()))
}
