package force

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/vec3"
)

// randomGraph builds a graph with n nodes scattered over a cube of the given
// side and about 2n random edges.
func randomGraph(seed uint64, n int, side float64) *graph.Graph {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	g := graph.New(n)
	for i := range g.Nodes {
		p := vec3.New((rng.Float64()-0.5)*side, (rng.Float64()-0.5)*side, (rng.Float64()-0.5)*side)
		g.Nodes[i].Position = &p
	}
	for i := 0; i < 2*n; i++ {
		g.AddEdge(rng.IntN(n), rng.IntN(n))
	}
	return g
}

func TestEngineProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("positions stay inside the bounding cube", prop.ForAll(
		func(seed uint64, n int, area, jitter float64) bool {
			cfg := DefaultConfig()
			cfg.Area = area
			cfg.Jitter = jitter
			g := randomGraph(seed, n, 3*area)
			e, err := New(g, cfg, WithSeed(seed))
			if err != nil {
				return false
			}
			half := area / 2
			for step := 0; step < 5; step++ {
				e.Step()
				e.CoolDown(step)
				for _, node := range g.Nodes {
					p := *node.Position
					if p.X < -half || p.X > half || p.Y < -half || p.Y > half || p.Z < -half || p.Z > half {
						return false
					}
				}
			}
			return true
		},
		gen.UInt64(),
		gen.IntRange(1, 25),
		gen.Float64Range(1, 5000),
		gen.Float64Range(0, 50),
	))

	properties.Property("geometric cooling follows t0·f^n", prop.ForAll(
		func(factor float64, n int) bool {
			cfg := DefaultConfig()
			cfg.CoolDownFactor = factor
			e, err := New(graph.New(3), cfg, WithSeed(1))
			if err != nil {
				return false
			}
			t0 := e.Temperature()
			for i := 0; i < n; i++ {
				e.CoolDown(i)
			}
			want := t0 * math.Pow(factor, float64(n))
			return math.Abs(e.Temperature()-want) <= 1e-9*math.Max(1, want)
		},
		gen.Float64Range(0.01, 0.99),
		gen.IntRange(0, 200),
	))

	properties.Property("temperature never increases and stays non-negative", prop.ForAll(
		func(adaptive bool, n int) bool {
			cfg := DefaultConfig()
			if adaptive {
				cfg.Cooling = CoolingAdaptive
			}
			e, err := New(graph.New(n), cfg, WithSeed(7))
			if err != nil {
				return false
			}
			prev := e.Temperature()
			for i := 0; i < 100; i++ {
				e.CoolDown(i)
				if e.Temperature() > prev || e.Temperature() < 0 {
					return false
				}
				prev = e.Temperature()
			}
			return true
		},
		gen.Bool(),
		gen.IntRange(1, 500),
	))

	properties.TestingRun(t)
}
