package dag

import (
	"fmt"
	"sort"
)

// Graph is the execution DAG over expanded job instances and the release
// stage. It is built once, validated, then read concurrently by the executor.
type Graph struct {
	Nodes map[string]*Node
}

// New returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{Nodes: make(map[string]*Node)}
}

// AddNode inserts a node. Duplicate IDs are a load-time configuration error.
func (g *Graph) AddNode(n *Node) error {
	if _, ok := g.Nodes[n.ID]; ok {
		return fmt.Errorf("duplicate node id: %s", n.ID)
	}
	n.Deps = make(map[string]*Node)
	n.Dependents = make(map[string]*Node)
	g.Nodes[n.ID] = n
	return nil
}

// AddEdge records that `toID` depends on `fromID`. Both nodes must already
// exist and self-edges are rejected.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s", fromID)
	}
	from, ok := g.Nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	to, ok := g.Nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}
	to.Deps[fromID] = from
	from.Dependents[toID] = to
	return nil
}

// Roots returns the nodes with no dependencies, in sorted ID order.
func (g *Graph) Roots() []*Node {
	var roots []*Node
	for _, n := range g.Nodes {
		if len(n.Deps) == 0 {
			roots = append(roots, n)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })
	return roots
}

// DetectCycles returns an error naming a node involved in a cycle, or nil if
// the graph is acyclic. Classic DFS with permanent/temporary marks.
func (g *Graph) DetectCycles() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n.ID] {
			return nil
		}
		if temporary[n.ID] {
			return fmt.Errorf("cycle detected involving node '%s'", n.ID)
		}
		temporary[n.ID] = true
		for _, dependent := range n.Dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, n.ID)
		permanent[n.ID] = true
		return nil
	}

	for _, n := range g.Nodes {
		if !permanent[n.ID] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
