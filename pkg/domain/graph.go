package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Graph is the compiled form of a project: a flat table of nodes keyed by id.
type Graph struct {
	Root       NodeID              `json:"root" yaml:"root"`
	Nodes      map[NodeID]Node     `json:"nodes" yaml:"nodes"`
	StdActions map[string]struct{} `json:"-" yaml:"-"`
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:      make(map[NodeID]Node),
		StdActions: make(map[string]struct{}),
	}
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, error) {
	n, ok := g.Nodes[id]
	if !ok {
		return Node{}, &RuntimeError{Kind: RuntimeNodeNotFound, Message: fmt.Sprintf("node %d", id)}
	}
	return n, nil
}

// IDs returns all node ids in ascending order.
func (g *Graph) IDs() []NodeID {
	ids := make([]NodeID, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsStd reports whether name is a built-in std action used by the graph.
func (g *Graph) IsStd(name string) bool {
	_, ok := g.StdActions[name]
	return ok
}

// StdActionNames returns the std actions used by the graph, sorted.
func (g *Graph) StdActionNames() []string {
	names := make([]string, 0, len(g.StdActions))
	for name := range g.StdActions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActionNames returns the distinct action names referenced by the graph, sorted.
func (g *Graph) ActionNames() []string {
	seen := make(map[string]struct{})
	for _, n := range g.Nodes {
		if n.Kind == KindAction {
			seen[n.Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the structural invariants of the graph: every child id
// exists, the root id maps to the only Root node, and decorators have
// exactly one child.
func (g *Graph) Validate() error {
	var errs []error
	root, ok := g.Nodes[g.Root]
	if !ok {
		errs = append(errs, fmt.Errorf("root %d: %w", g.Root, ErrNodeNotFound))
	} else if root.Kind != KindRoot {
		errs = append(errs, fmt.Errorf("root %d is a %s node", g.Root, root.Kind))
	}
	for _, id := range g.IDs() {
		n := g.Nodes[id]
		if n.ID != id {
			errs = append(errs, fmt.Errorf("node %d is stored under id %d", n.ID, id))
		}
		if n.Kind == KindRoot && id != g.Root {
			errs = append(errs, fmt.Errorf("node %d: second root node", id))
		}
		if n.Kind == KindDecorator && len(n.Children) != 1 {
			errs = append(errs, fmt.Errorf("node %d: decorator has %d children", id, len(n.Children)))
		}
		if n.Kind == KindAction && len(n.Children) != 0 {
			errs = append(errs, fmt.Errorf("node %d: action has children", id))
		}
		for _, c := range n.Children {
			if _, ok := g.Nodes[c]; !ok {
				errs = append(errs, fmt.Errorf("node %d child %d: %w", id, c, ErrNodeNotFound))
			}
		}
	}
	return errors.Join(errs...)
}
