package pipeline

import (
	"context"
	"math/rand/v2"

	"github.com/matzehuels/forcegraph/pkg/generate"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout/force"
	"github.com/matzehuels/forcegraph/pkg/layout/sphere"
	"github.com/matzehuels/forcegraph/pkg/observability"
)

// LayoutInfo describes how a layout run ended.
type LayoutInfo struct {
	Iterations int  `json:"iterations"`
	Settled    bool `json:"settled"`
}

// =============================================================================
// Generate
// =============================================================================

// GenerateGraph builds the graph named by opts.Generator, seeded by opts.Seed.
// It does not consult opts.Graph.
func GenerateGraph(ctx context.Context, opts Options) (*graph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gen, err := generate.New(opts.Generator, opts.Params)
	if err != nil {
		return nil, err
	}
	return gen.Generate(generatorRand(opts.Seed))
}

func generatorRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// =============================================================================
// Layout
// =============================================================================

// ComputeLayout positions a copy of g; g itself is not modified. On
// cancellation or timeout the partially laid out copy is returned with the
// error.
func ComputeLayout(ctx context.Context, g *graph.Graph, opts Options) (*graph.Graph, LayoutInfo, error) {
	work := g.Clone()

	if opts.IsSphere() {
		if _, err := sphere.Place(work, opts.Radius); err != nil {
			return nil, LayoutInfo{}, err
		}
		return work, LayoutInfo{Settled: true}, nil
	}

	hooks := observability.Engine()
	engine, err := force.New(work, *opts.Force,
		force.WithSeed(opts.Seed),
		force.WithWorkers(opts.Workers),
		force.WithLogger(opts.Logger),
		force.WithObserver(func(s force.StepInfo) {
			hooks.OnIteration(ctx, s.Iteration, s.Temperature, s.MaxMove)
		}),
	)
	if err != nil {
		return nil, LayoutInfo{}, err
	}

	out, err := engine.LayoutWithTimeout(ctx, opts.Timeout())
	info := LayoutInfo{Iterations: engine.Iterations(), Settled: engine.Settled()}
	if err != nil {
		return out, info, err
	}
	if info.Settled {
		hooks.OnSettled(ctx, info.Iterations)
	}
	return out, info, nil
}
