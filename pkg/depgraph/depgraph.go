// Package depgraph models the discovered library dependency graph.
//
// The graph is built during a resolution walk (or by re-scanning an
// installed tree) and records which manifest pulled in which library.
// Unlike a general graph library it is deliberately tiny: insertion-ordered
// nodes, deduplicated directed edges, and cycles allowed - library A and
// library B may well depend on each other.
package depgraph

import "errors"

// ErrInvalidNodeID is returned by AddNode when the node ID is empty.
var ErrInvalidNodeID = errors.New("node ID must not be empty")

// Edge is a directed "depends on" connection between two nodes.
type Edge struct {
	From string // Dependent (the manifest that declared the dependency)
	To   string // Dependency (the library pulled in)
}

// Graph is a directed graph of canonical library names.
// Node order is insertion order, which the walker keeps deterministic.
// The zero value is not usable - use New.
type Graph struct {
	nodes map[string]bool
	order []string
	edges []Edge
	seen  map[Edge]bool
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]bool),
		seen:  make(map[Edge]bool),
	}
}

// AddNode adds a node, keeping insertion order. Adding an existing node is
// a no-op. Returns ErrInvalidNodeID for an empty ID.
func (g *Graph) AddNode(id string) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	if g.nodes[id] {
		return nil
	}
	g.nodes[id] = true
	g.order = append(g.order, id)
	return nil
}

// AddEdge adds a directed edge, implicitly adding missing endpoints.
// Duplicate edges are dropped. Self-edges are rejected as invalid.
func (g *Graph) AddEdge(from, to string) error {
	if from == "" || to == "" {
		return ErrInvalidNodeID
	}
	if from == to {
		return errors.New("self-dependency edge")
	}
	if err := g.AddNode(from); err != nil {
		return err
	}
	if err := g.AddNode(to); err != nil {
		return err
	}
	e := Edge{From: from, To: to}
	if g.seen[e] {
		return nil
	}
	g.seen[e] = true
	g.edges = append(g.edges, e)
	return nil
}

// Has reports whether the node exists.
func (g *Graph) Has(id string) bool { return g.nodes[id] }

// Nodes returns node IDs in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }
