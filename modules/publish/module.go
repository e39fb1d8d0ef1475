// Package publish provides the release-stage handler: it verifies the
// artifact set and the test gate, then uploads every wheel to the package
// index.
package publish

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	pub "github.com/specialistvlad/wheelforge/internal/publish"
	"github.com/specialistvlad/wheelforge/internal/registry"
	"github.com/specialistvlad/wheelforge/internal/wheel"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Run is the release handler. Nothing uploads unless every check passes:
// the test gate, the needs_artifacts globs, per-instance wheel coverage,
// and the distribution-name allowlist.
func Run(ctx context.Context, call *registry.Call) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	rel := call.Release

	if rel.Gate != "" {
		gateRef := strings.TrimPrefix(rel.Gate, "job.")
		if err := call.Gates.Check(gateRef); err != nil {
			return cty.NilVal, fmt.Errorf("release blocked: %w", err)
		}
		logger.Info("Test gate passed.", "gate", gateRef)
	}

	for _, pattern := range rel.NeedsArtifacts {
		matches, err := call.Store.Glob(pattern)
		if err != nil {
			return cty.NilVal, err
		}
		if len(matches) == 0 {
			return cty.NilVal, fmt.Errorf("release blocked: no artifact matches %q", pattern)
		}
	}

	if err := checkMatrixCoverage(call); err != nil {
		return cty.NilVal, fmt.Errorf("release blocked: %w", err)
	}

	wheels := wheelArtifacts(call)
	if rel.Publish == nil {
		logger.Info("No publish block; release verification only.", "artifacts", len(wheels))
		return releaseResult(0), nil
	}

	if err := checkNames(wheels, rel.Publish.Names); err != nil {
		return cty.NilVal, fmt.Errorf("release blocked: %w", err)
	}

	if call.DryRun {
		logger.Info("Dry run: skipping index upload.", "wheels", len(wheels))
		return releaseResult(0), nil
	}

	token := os.Getenv(rel.Publish.TokenEnv)
	if token == "" {
		return cty.NilVal, fmt.Errorf("release blocked: %s is not set", rel.Publish.TokenEnv)
	}

	uploader := &pub.Uploader{IndexURL: rel.Publish.IndexURL, Token: token}
	published := 0
	for _, name := range wheels {
		path, err := call.Store.Path(name)
		if err != nil {
			return cty.NilVal, err
		}
		if err := uploader.Upload(ctx, path); err != nil {
			return cty.NilVal, err
		}
		published++
	}

	logger.Info("🏷️ Release published.", "wheels", published, "index", rel.Publish.IndexURL)
	return releaseResult(published), nil
}

// checkMatrixCoverage enforces the pipeline's core promise: every platform ×
// interpreter combination declared in the matrix has a compatible wheel in
// the store.
func checkMatrixCoverage(call *registry.Call) error {
	for _, in := range call.Plan.Instances {
		pyVersion, ok := in.Vars["python"]
		if !ok || in.Job.OS == "" {
			continue
		}
		pyTag, err := wheel.InterpreterTag(pyVersion)
		if err != nil {
			return err
		}
		platTag, err := wheel.PlatformTag(in.Job.OS, in.Job.Arch)
		if err != nil {
			return err
		}
		if !hasCompatibleWheel(call, pyTag, platTag) {
			return fmt.Errorf("no wheel covers %s (python %s on %s/%s)", in.ID(), pyVersion, in.Job.OS, in.Job.Arch)
		}
	}
	return nil
}

func hasCompatibleWheel(call *registry.Call, pyTag, platTag string) bool {
	for _, name := range call.Store.List() {
		f, err := wheel.ParseFilename(name)
		if err != nil {
			continue
		}
		if f.CompatibleWith(pyTag, platTag) {
			return true
		}
	}
	return false
}

// wheelArtifacts returns the store's wheel files, ignoring any other
// collected artifacts.
func wheelArtifacts(call *registry.Call) []string {
	var out []string
	for _, name := range call.Store.List() {
		if _, err := wheel.ParseFilename(name); err == nil {
			out = append(out, name)
		}
	}
	return out
}

// checkNames rejects wheels whose distribution is not on the publish
// allowlist. An empty allowlist publishes everything.
func checkNames(wheels []string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[wheel.NormalizeDistribution(n)] = struct{}{}
	}
	for _, w := range wheels {
		f, err := wheel.ParseFilename(w)
		if err != nil {
			continue
		}
		if _, ok := allowed[wheel.NormalizeDistribution(f.Distribution)]; !ok {
			return fmt.Errorf("wheel %q is not one of the published distributions %v", w, names)
		}
	}
	return nil
}

func releaseResult(published int) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"published": cty.NumberIntVal(int64(published)),
	})
}

// Register registers the release handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterReleaseHandler(Run)
}
