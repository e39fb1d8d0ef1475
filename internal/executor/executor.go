package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/dag"
	"github.com/specialistvlad/wheelforge/internal/registry"
)

// Executor runs the execution graph with a fixed-size worker pool.
//
// Failure semantics follow the pipeline's fail_fast setting. With fail_fast
// disabled (the default) a failed node only skips its own dependents; the
// rest of the matrix keeps building so every platform's outcome is known.
// With fail_fast enabled the first failure cancels the whole run.
type Executor struct {
	graph      *dag.Graph
	numWorkers int
	registry   *registry.Registry
	runtime    *Runtime

	wg sync.WaitGroup
}

// New creates an executor for a built graph.
func New(graph *dag.Graph, workers int, reg *registry.Registry, rt *Runtime) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		graph:      graph,
		numWorkers: workers,
		registry:   reg,
		runtime:    rt,
	}
}

// Run executes the entire graph and returns an error if any node failed.
// Failures of allow_failure nodes are recorded but do not fail the run.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan *dag.Node, len(e.graph.Nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	roots := e.graph.Roots()
	for _, n := range roots {
		readyChan <- n
	}
	logger.Debug("Seeded ready queue with root nodes.", "count", len(roots))

	e.wg.Add(len(e.graph.Nodes))

	logger.Debug("Starting worker pool.", "workers", e.numWorkers)
	for i := 0; i < e.numWorkers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}

	e.wg.Wait()
	close(readyChan)
	logger.Debug("All nodes reached a terminal state.")

	return e.collectErrors(ctx)
}

// collectErrors summarizes terminal states into the run's error. Skips are
// symptoms; only genuine failures of non-allow_failure nodes count.
func (e *Executor) collectErrors(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	var failedIDs []string
	var rootCause error
	for _, n := range e.graph.Nodes {
		switch n.State() {
		case dag.Failed:
			logger.Error("Node failed execution.", "node", n.ID, "error", n.Err, "allow_failure", n.AllowFailure())
			if n.AllowFailure() {
				continue
			}
			failedIDs = append(failedIDs, n.ID)
			if rootCause == nil {
				rootCause = n.Err
			}
		case dag.Skipped:
			logger.Warn("Node skipped.", "node", n.ID, "reason", n.Err)
		}
	}

	if rootCause == nil {
		return nil
	}
	sort.Strings(failedIDs)
	return fmt.Errorf("execution failed for %s: %w", strings.Join(failedIDs, ", "), rootCause)
}
