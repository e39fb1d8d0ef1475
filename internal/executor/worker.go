package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/dag"
	"github.com/specialistvlad/wheelforge/internal/registry"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *dag.Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range readyChan {
		nodeLogger := logger.With("workerID", workerID, "node", n.ID)

		if ctx.Err() != nil {
			e.skipNode(ctx, n, ctx.Err())
			continue
		}

		if !n.Transition(dag.Pending, dag.Running) {
			// Already skipped by an upstream failure racing ahead of the
			// ready queue.
			continue
		}

		nodeLogger.Debug("Worker picked up node for execution.")
		start := time.Now()
		err := e.runNode(ctxlog.WithLogger(ctx, nodeLogger), n)
		n.Duration = time.Since(start)

		if n.Type == dag.JobNode {
			e.runtime.Gates.Record(n.Instance.Job.Ref(), err == nil)
		}

		if err != nil {
			nodeLogger.Error("Node execution failed.", "error", err, "duration", n.Duration)
			n.Err = err
			n.Transition(dag.Running, dag.Failed)

			if n.AllowFailure() {
				nodeLogger.Warn("Failure tolerated; dependents continue.", "node", n.ID)
				e.unlockDependents(nodeLogger, n, readyChan)
			} else {
				if e.runtime.FailFast {
					cancel()
				}
				e.skipDependents(ctx, n)
			}
			e.wg.Done()
			continue
		}

		nodeLogger.Debug("Node execution succeeded.", "duration", n.Duration)
		n.Transition(dag.Running, dag.Succeeded)
		e.unlockDependents(nodeLogger, n, readyChan)
		e.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// unlockDependents decrements each dependent's counter and queues the ones
// that just became ready.
func (e *Executor) unlockDependents(logger *slog.Logger, n *dag.Node, readyChan chan *dag.Node) {
	for _, dependent := range n.Dependents {
		if dependent.ReadyAfterDep() {
			logger.Debug("Unlocking dependent node.", "dependent", dependent.ID)
			readyChan <- dependent
		}
	}
}

// skipNode marks an unstarted node as skipped exactly once.
func (e *Executor) skipNode(ctx context.Context, n *dag.Node, cause error) {
	logger := ctxlog.FromContext(ctx)
	n.SkipOnce(func() {
		logger.Warn("Skipping node.", "node", n.ID, "cause", cause)
		n.Err = cause
		n.Transition(dag.Pending, dag.Skipped)
		if n.Type == dag.JobNode {
			e.runtime.Gates.Record(n.Instance.Job.Ref(), false)
		}
		e.wg.Done()
		// Cancellation reaches a node before its dependents ever become
		// ready, so the skip has to cascade from here.
		e.skipDependents(ctx, n)
	})
}

// skipDependents transitively marks all downstream nodes as skipped.
func (e *Executor) skipDependents(ctx context.Context, n *dag.Node) {
	for _, dependent := range n.Dependents {
		dependent.SkipOnce(func() {
			ctxlog.FromContext(ctx).Warn("Skipping dependent node due to upstream failure.",
				"node", dependent.ID, "failed_dependency", n.ID)
			dependent.Err = fmt.Errorf("skipped due to upstream failure of '%s'", n.ID)
			dependent.Transition(dag.Pending, dag.Skipped)
			if dependent.Type == dag.JobNode {
				e.runtime.Gates.Record(dependent.Instance.Job.Ref(), false)
			}
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		})
	}
}

// runNode dispatches one node to its handler.
func (e *Executor) runNode(ctx context.Context, n *dag.Node) error {
	switch n.Type {
	case dag.ReleaseNode:
		fn, err := e.registry.ReleaseHandler()
		if err != nil {
			return err
		}
		out, err := fn(ctx, e.runtime.call(n))
		if err != nil {
			return err
		}
		n.Output = out
		return nil

	case dag.JobNode:
		h, err := e.registry.Runner(n.Instance.Job.Runner)
		if err != nil {
			return err
		}

		call := e.runtime.call(n)
		if h.NewInput != nil {
			args, err := n.Instance.Arguments()
			if err != nil {
				return err
			}
			input := h.NewInput()
			if err := registry.DecodeInput(h.Definition, args, input); err != nil {
				return err
			}
			call.Input = input
		}

		out, err := h.Fn(ctx, call)
		if err != nil {
			return err
		}
		n.Output = out
		return nil

	default:
		return fmt.Errorf("unknown node type for %s", n.ID)
	}
}
