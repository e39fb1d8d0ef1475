package dag

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/wheelforge/internal/config"
	"github.com/specialistvlad/wheelforge/internal/matrix"
)

// NodeType distinguishes expanded job instances from the release stage.
type NodeType int

const (
	JobNode NodeType = iota
	ReleaseNode
)

// State is the execution state of a node. Transitions are validated with
// compare-and-swap so a racing transition is observable, never silent.
type State int32

const (
	Pending State = iota
	Running
	Succeeded
	Failed
	Skipped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed || s == Skipped
}

// Node is a single vertex of the execution graph.
type Node struct {
	ID   string
	Type NodeType

	// Instance is set for JobNode, Release for ReleaseNode.
	Instance *matrix.Instance
	Release  *config.Release

	Deps       map[string]*Node
	Dependents map[string]*Node

	// depCount is the number of unfinished dependencies; a node becomes
	// ready when it reaches zero.
	depCount atomic.Int32

	state    atomic.Int32
	skipOnce sync.Once

	Err      error
	Output   cty.Value
	Duration time.Duration
}

// State returns the node's current execution state.
func (n *Node) State() State {
	return State(n.state.Load())
}

// Transition atomically moves the node from one state to another, reporting
// whether the node actually was in the expected prior state.
func (n *Node) Transition(from, to State) bool {
	return n.state.CompareAndSwap(int32(from), int32(to))
}

// AllowFailure reports whether a failure of this node should be recorded
// without poisoning its dependents.
func (n *Node) AllowFailure() bool {
	return n.Type == JobNode && n.Instance.Job.AllowFailure
}

// InitCounters seeds the dependency counter from the linked graph. Called
// once after linking, before execution.
func (n *Node) InitCounters() {
	n.depCount.Store(int32(len(n.Deps)))
}

// ReadyAfterDep decrements the dependency counter and reports whether the
// node just became ready.
func (n *Node) ReadyAfterDep() bool {
	return n.depCount.Add(-1) == 0
}

// Root reports whether the node has no dependencies.
func (n *Node) Root() bool {
	return n.depCount.Load() == 0
}

// SkipOnce runs fn at most once, used to guard skip bookkeeping against the
// multiple upstream failures that can race toward one dependent.
func (n *Node) SkipOnce(fn func()) {
	n.skipOnce.Do(fn)
}
