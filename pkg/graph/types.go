package graph

import (
	"maps"
	"math"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/vec3"
)

// Graph is an ordered sequence of nodes and a collection of index-based edges.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a vertex of the graph.
type Node struct {
	ID string `json:"id" bson:"id"`

	// Position is nil until the node has been placed.
	Position *vec3.Vec `json:"position,omitempty" bson:"position,omitempty"`

	// Displacement is the per-step force accumulator of a running layout.
	// It is recomputed from zero every step and means nothing between steps.
	Displacement vec3.Vec `json:"-" bson:"-"`

	Meta map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// Edge connects two nodes by their index in [Graph.Nodes].
type Edge struct {
	Source int `json:"source" bson:"source"`
	Target int `json:"target" bson:"target"`
}

// New returns a graph with n unplaced nodes whose IDs are their indices.
func New(n int) *Graph {
	g := &Graph{Nodes: make([]Node, n)}
	for i := range g.Nodes {
		g.Nodes[i].ID = itoa(i)
	}
	return g
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// AddEdge appends an edge between the nodes at indices source and target.
// It does not validate; call [Graph.Validate] once the graph is built.
func (g *Graph) AddEdge(source, target int) {
	g.Edges = append(g.Edges, Edge{Source: source, Target: target})
}

// Validate checks that every edge references a node index in [0, NodeCount).
func (g *Graph) Validate() error {
	n := len(g.Nodes)
	for i, e := range g.Edges {
		if e.Source < 0 || e.Source >= n {
			return errors.New(errors.ErrCodeInvalidEdge, "edge %d: source %d out of range [0, %d)", i, e.Source, n)
		}
		if e.Target < 0 || e.Target >= n {
			return errors.New(errors.ErrCodeInvalidEdge, "edge %d: target %d out of range [0, %d)", i, e.Target, n)
		}
	}
	return nil
}

// HasAllPositions reports whether every node has been placed.
func (g *Graph) HasAllPositions() bool {
	for i := range g.Nodes {
		if g.Nodes[i].Position == nil {
			return false
		}
	}
	return true
}

// Clone returns a deep copy. Positions and metadata maps are not shared.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: append([]Edge(nil), g.Edges...),
	}
	for i, n := range g.Nodes {
		if n.Position != nil {
			p := *n.Position
			n.Position = &p
		}
		n.Meta = maps.Clone(n.Meta)
		out.Nodes[i] = n
	}
	return out
}

// Positions returns the position of every node, using the zero vector for
// unplaced nodes.
func (g *Graph) Positions() []vec3.Vec {
	out := make([]vec3.Vec, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.Position != nil {
			out[i] = *n.Position
		}
	}
	return out
}

// Bounds returns the axis-aligned bounding box of all placed nodes.
// ok is false when no node has a position.
func (g *Graph) Bounds() (lo, hi vec3.Vec, ok bool) {
	lo = vec3.New(math.Inf(1), math.Inf(1), math.Inf(1))
	hi = vec3.New(math.Inf(-1), math.Inf(-1), math.Inf(-1))
	for _, n := range g.Nodes {
		if n.Position == nil {
			continue
		}
		p := *n.Position
		lo = vec3.New(math.Min(lo.X, p.X), math.Min(lo.Y, p.Y), math.Min(lo.Z, p.Z))
		hi = vec3.New(math.Max(hi.X, p.X), math.Max(hi.Y, p.Y), math.Max(hi.Z, p.Z))
		ok = true
	}
	if !ok {
		return vec3.Zero, vec3.Zero, false
	}
	return lo, hi, true
}
