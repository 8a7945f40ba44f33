package generate

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
)

// Generator names accepted by [New].
const (
	NameBarabasiAlbert = "barabasi-albert"
	NameErdosRenyi     = "erdos-renyi"
	NameGeometric      = "geometric"
	NameWattsStrogatz  = "watts-strogatz"
)

// Meta keys written by [Geometric].
const (
	MetaX = "x"
	MetaY = "y"
)

// Generator produces a graph from a random source.
type Generator interface {
	Name() string

	// Validate checks the parameters without generating anything. Generate
	// calls it first.
	Validate() error

	// ExpectedEdges estimates the edge count, so callers can refuse
	// parameters that would not fit in memory before generating.
	ExpectedEdges() float64

	Generate(rng *rand.Rand) (*graph.Graph, error)
}

// pairs is the number of unordered node pairs, as a float to avoid overflow.
func pairs(n int) float64 {
	return float64(n) * float64(n-1) / 2
}

// Params is the union of all generator parameters, used by [New] and by
// configuration files. Each generator reads only the fields it needs.
type Params struct {
	Nodes        int     `json:"nodes" toml:"nodes" yaml:"nodes"`
	EdgesPerNode int     `json:"edges_per_node,omitempty" toml:"edges_per_node" yaml:"edges_per_node,omitempty"`
	Probability  float64 `json:"probability,omitempty" toml:"probability" yaml:"probability,omitempty"`
	Radius       float64 `json:"radius,omitempty" toml:"radius" yaml:"radius,omitempty"`
	AvgDegree    int     `json:"avg_degree,omitempty" toml:"avg_degree" yaml:"avg_degree,omitempty"`
}

var registry = map[string]func(Params) Generator{
	NameBarabasiAlbert: func(p Params) Generator { return BarabasiAlbert{Nodes: p.Nodes, EdgesPerNode: p.EdgesPerNode} },
	NameErdosRenyi:     func(p Params) Generator { return ErdosRenyi{Nodes: p.Nodes, Probability: p.Probability} },
	NameGeometric:      func(p Params) Generator { return Geometric{Nodes: p.Nodes, Radius: p.Radius} },
	NameWattsStrogatz: func(p Params) Generator {
		return WattsStrogatz{Nodes: p.Nodes, AvgDegree: p.AvgDegree, Rewire: p.Probability}
	},
}

// New returns the generator registered under name.
func New(name string, p Params) (Generator, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidGenerator, "unknown generator %q (must be one of: %v)", name, Names())
	}
	return ctor(p), nil
}

// Names returns the registered generator names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// =============================================================================
// BarabasiAlbert
// =============================================================================

// BarabasiAlbert grows a graph one node at a time. Every node i > EdgesPerNode
// links to EdgesPerNode targets drawn uniformly from [0, i).
type BarabasiAlbert struct {
	Nodes        int
	EdgesPerNode int
}

func (BarabasiAlbert) Name() string { return NameBarabasiAlbert }

func (b BarabasiAlbert) Validate() error {
	if err := errors.ValidateCount("nodes", b.Nodes); err != nil {
		return err
	}
	return errors.ValidateCount("edges_per_node", b.EdgesPerNode)
}

func (b BarabasiAlbert) ExpectedEdges() float64 {
	return float64(max(b.Nodes-b.EdgesPerNode-1, 0)) * float64(b.EdgesPerNode)
}

func (b BarabasiAlbert) Generate(rng *rand.Rand) (*graph.Graph, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	g := graph.New(b.Nodes)
	for i := b.EdgesPerNode + 1; i < b.Nodes; i++ {
		for j := 0; j < b.EdgesPerNode; j++ {
			g.AddEdge(i, rng.IntN(i))
		}
	}
	return g, nil
}

// =============================================================================
// ErdosRenyi
// =============================================================================

// ErdosRenyi connects every unordered pair i < j with the given probability.
type ErdosRenyi struct {
	Nodes       int
	Probability float64
}

func (ErdosRenyi) Name() string { return NameErdosRenyi }

func (e ErdosRenyi) Validate() error {
	if err := errors.ValidateCount("nodes", e.Nodes); err != nil {
		return err
	}
	return errors.ValidateProbability("probability", e.Probability)
}

func (e ErdosRenyi) ExpectedEdges() float64 {
	return e.Probability * pairs(e.Nodes)
}

func (e ErdosRenyi) Generate(rng *rand.Rand) (*graph.Graph, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	g := graph.New(e.Nodes)
	for i := 0; i < e.Nodes; i++ {
		for j := i + 1; j < e.Nodes; j++ {
			if rng.Float64() < e.Probability {
				g.AddEdge(i, j)
			}
		}
	}
	return g, nil
}

// =============================================================================
// Geometric
// =============================================================================

// Geometric samples a point per node in the unit square and connects every
// pair closer than Radius.
type Geometric struct {
	Nodes  int
	Radius float64
}

func (Geometric) Name() string { return NameGeometric }

func (gm Geometric) Validate() error {
	if err := errors.ValidateCount("nodes", gm.Nodes); err != nil {
		return err
	}
	if math.IsNaN(gm.Radius) || gm.Radius < 0 {
		return errors.New(errors.ErrCodeInvalidGenerator, "radius must not be negative, got %v", gm.Radius)
	}
	return nil
}

// ExpectedEdges ignores the border of the unit square, so it overestimates
// slightly.
func (gm Geometric) ExpectedEdges() float64 {
	return math.Min(1, math.Pi*gm.Radius*gm.Radius) * pairs(gm.Nodes)
}

func (gm Geometric) Generate(rng *rand.Rand) (*graph.Graph, error) {
	if err := gm.Validate(); err != nil {
		return nil, err
	}

	g := graph.New(gm.Nodes)
	xs := make([]float64, gm.Nodes)
	ys := make([]float64, gm.Nodes)
	for i := range g.Nodes {
		xs[i], ys[i] = rng.Float64(), rng.Float64()
		g.Nodes[i].Meta = map[string]any{MetaX: xs[i], MetaY: ys[i]}
	}

	for i := 0; i < gm.Nodes; i++ {
		for j := i + 1; j < gm.Nodes; j++ {
			if math.Hypot(xs[i]-xs[j], ys[i]-ys[j]) < gm.Radius {
				g.AddEdge(i, j)
			}
		}
	}
	return g, nil
}

// =============================================================================
// WattsStrogatz
// =============================================================================

// WattsStrogatz builds a ring where every node links to its AvgDegree/2
// nearest neighbors on each side, then moves each edge's target to a uniform
// random node with probability Rewire.
type WattsStrogatz struct {
	Nodes     int
	AvgDegree int
	Rewire    float64
}

func (WattsStrogatz) Name() string { return NameWattsStrogatz }

// Validate rejects degrees the ring cannot hold: with AvgDegree above
// Nodes-1 the neighbor offsets wrap around and repeat edges.
func (w WattsStrogatz) Validate() error {
	if err := errors.ValidateCount("nodes", w.Nodes); err != nil {
		return err
	}
	if err := errors.ValidateCount("avg_degree", w.AvgDegree); err != nil {
		return err
	}
	if w.AvgDegree%2 != 0 {
		return errors.New(errors.ErrCodeInvalidGenerator, "avg_degree must be even, got %d", w.AvgDegree)
	}
	if w.Nodes > 0 && w.AvgDegree > w.Nodes-1 {
		return errors.New(errors.ErrCodeInvalidGenerator, "avg_degree must be at most nodes-1 (%d), got %d", w.Nodes-1, w.AvgDegree)
	}
	return errors.ValidateProbability("rewire probability", w.Rewire)
}

// ExpectedEdges is exact: every node emits two edges per neighbor offset.
func (w WattsStrogatz) ExpectedEdges() float64 {
	return float64(w.Nodes) * float64(w.AvgDegree)
}

func (w WattsStrogatz) Generate(rng *rand.Rand) (*graph.Graph, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	n := w.Nodes
	g := graph.New(n)
	for i := 0; i < n; i++ {
		for j := 1; j <= w.AvgDegree/2; j++ {
			g.AddEdge(i, (i+j)%n)
			g.AddEdge(i, ((i-j)%n+n)%n)
		}
	}

	for i := range g.Edges {
		if rng.Float64() < w.Rewire {
			g.Edges[i].Target = rng.IntN(n)
		}
	}
	return g, nil
}
