package force

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/vec3"
)

// minParallelNodes is the node count below which WithWorkers is ignored.
const minParallelNodes = 64

// Engine runs the simulation over one graph. It mutates node positions and
// displacements in place and is not safe for concurrent use. Create a new
// Engine for every layout run.
type Engine struct {
	g   *graph.Graph
	cfg Config

	k           float64
	temperature float64
	initialTemp float64
	iterations  int
	lastMaxMove float64

	rng      *rand.Rand
	workers  int
	logger   *log.Logger
	observer func(StepInfo)
}

// New validates g and cfg, places every node that has no position uniformly
// in a cube of side [SeedRegion] around the origin, and returns a ready engine.
//
// A graph without nodes is valid; Step and Layout are no-ops on it and K is 0.
func New(g *graph.Graph, cfg Config, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "graph is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		g:      g,
		cfg:    cfg.normalized(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if n := len(g.Nodes); n > 0 {
		e.k = math.Sqrt(e.cfg.Area / float64(n))
	}
	e.temperature = e.cfg.TemperatureMultiplier * math.Sqrt(e.cfg.Area) / 10
	e.initialTemp = e.temperature

	e.initializePositions()

	e.logger.Debug("force layout ready",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"k", e.k,
		"temperature", e.temperature,
		"forces", e.cfg.Forces,
		"cooling", e.cfg.Cooling)

	return e, nil
}

func (e *Engine) initializePositions() {
	for i := range e.g.Nodes {
		if e.g.Nodes[i].Position != nil {
			continue
		}
		p := vec3.New(
			(e.rng.Float64()-0.5)*SeedRegion,
			(e.rng.Float64()-0.5)*SeedRegion,
			(e.rng.Float64()-0.5)*SeedRegion,
		)
		e.g.Nodes[i].Position = &p
	}
}

// Graph returns the graph being laid out.
func (e *Engine) Graph() *graph.Graph { return e.g }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// K returns the ideal inter-node distance √(area/n), or 0 for an empty graph.
func (e *Engine) K() float64 { return e.k }

// Temperature returns the current temperature.
func (e *Engine) Temperature() float64 { return e.temperature }

// InitialTemperature returns the temperature the engine started with.
func (e *Engine) InitialTemperature() float64 { return e.initialTemp }

// Iterations returns the number of completed Layout iterations.
func (e *Engine) Iterations() int { return e.iterations }

// Running reports whether the temperature is above [RunningThreshold].
func (e *Engine) Running() bool { return e.temperature > RunningThreshold }

// Settled is the negation of Running.
func (e *Engine) Settled() bool { return !e.Running() }

// RepulsiveForce returns the repulsion magnitude at distance d. It is never
// positive.
func (e *Engine) RepulsiveForce(d float64) float64 {
	if e.cfg.Forces == ForcesClassic {
		return -(e.cfg.RepulsionMultiplier * e.k * e.k) / d
	}
	return -(e.cfg.RepulsionMultiplier * e.k * e.k) / (d * d)
}

// AttractiveForce returns the spring force at distance d. With the default
// logarithmic law it is negative below k, zero at k and grows without bound
// beyond k.
func (e *Engine) AttractiveForce(d float64) float64 {
	if e.cfg.Forces == ForcesClassic {
		return e.cfg.AttractionMultiplier * d * d / e.k
	}
	return e.cfg.AttractionMultiplier * d * math.Log(d/e.k)
}

// Step advances the simulation by one step at the current temperature.
// It does not cool; see [Engine.CoolDown].
func (e *Engine) Step() {
	if len(e.g.Nodes) == 0 || e.temperature < StepThreshold {
		e.lastMaxMove = 0
		return
	}

	e.repel()
	e.attract()
	e.integrate()
}

// repel resets every displacement and accumulates pairwise repulsion and
// gravity into it.
func (e *Engine) repel() {
	n := len(e.g.Nodes)
	if e.workers < 2 || n < minParallelNodes {
		e.repelRange(0, n)
		return
	}

	chunk := (n + e.workers - 1) / e.workers
	var eg errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		eg.Go(func() error {
			e.repelRange(lo, hi)
			return nil
		})
	}
	// repelRange cannot fail, so Wait only joins the workers.
	eg.Wait()
}

// repelRange writes the displacement of nodes [lo, hi) only, so disjoint
// ranges can run concurrently.
func (e *Engine) repelRange(lo, hi int) {
	nodes := e.g.Nodes
	for v := lo; v < hi; v++ {
		pv := *nodes[v].Position
		disp := vec3.Zero
		for u := range nodes {
			if u == v {
				continue
			}
			delta := pv.Sub(*nodes[u].Position)
			d := guardedLen(delta)
			disp = disp.Add(delta.Scale(e.RepulsiveForce(d) / d))
		}
		disp = disp.Add(pv.Negate().Normalize().Scale(e.cfg.GravityForce))
		nodes[v].Displacement = disp
	}
}

// attract applies edge springs net of the repulsion already counted for the
// pair, equal and opposite on both endpoints.
func (e *Engine) attract() {
	nodes := e.g.Nodes
	for _, edge := range e.g.Edges {
		src, dst := &nodes[edge.Source], &nodes[edge.Target]
		delta := src.Position.Sub(*dst.Position)
		d := guardedLen(delta)
		f := delta.Scale((e.AttractiveForce(d) - e.RepulsiveForce(d)) / d)
		src.Displacement = src.Displacement.Sub(f)
		dst.Displacement = dst.Displacement.Add(f)
	}
}

// integrate moves every node by its displacement capped at the temperature,
// adds jitter and clamps into the bounding cube.
func (e *Engine) integrate() {
	half := e.cfg.Area / 2
	jitter := e.cfg.Jitter * (e.temperature / (math.Sqrt(e.cfg.Area) / 10))

	e.lastMaxMove = 0
	for i := range e.g.Nodes {
		node := &e.g.Nodes[i]
		move := node.Displacement.ClampLength(0, e.temperature)
		e.lastMaxMove = max(e.lastMaxMove, move.Len())

		p := node.Position.Add(move).Add(vec3.New(
			(e.rng.Float64()-0.5)*jitter,
			(e.rng.Float64()-0.5)*jitter,
			(e.rng.Float64()-0.5)*jitter,
		)).Clamp(-half, half)
		*node.Position = p
	}
}

// CoolDown lowers the temperature after the given zero-based iteration.
func (e *Engine) CoolDown(iteration int) {
	if e.cfg.Cooling == CoolingAdaptive && iteration > 0 && len(e.g.Nodes) > 0 {
		t := e.temperature
		e.temperature = t / (1 + t*math.Log(1+float64(iteration))/math.Sqrt(float64(len(e.g.Nodes))))
		return
	}
	e.temperature *= e.cfg.CoolDownFactor
}

// Layout runs exactly MaxIterations iterations of Step followed by CoolDown
// and returns the graph. It does not stop early when the engine settles.
//
// The context is checked between iterations. When it is done, Layout returns
// the partially laid out graph with a CANCELED or TIMEOUT error wrapping
// ctx.Err().
func (e *Engine) Layout(ctx context.Context) (*graph.Graph, error) {
	if len(e.g.Nodes) == 0 {
		return e.g, nil
	}

	for i := 0; i < e.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return e.g, contextError(err, e.iterations)
		}

		e.Step()
		e.CoolDown(i)
		e.iterations++

		if e.observer != nil {
			e.observer(StepInfo{
				Iteration:   i,
				Temperature: e.temperature,
				MaxMove:     e.lastMaxMove,
				Running:     e.Running(),
			})
		}
	}

	e.logger.Debug("force layout finished",
		"iterations", e.iterations,
		"temperature", e.temperature,
		"settled", e.Settled())

	return e.g, nil
}

// LayoutWithTimeout runs Layout bounded by d. A non-positive d means no limit.
func (e *Engine) LayoutWithTimeout(ctx context.Context, d time.Duration) (*graph.Graph, error) {
	if d <= 0 {
		return e.Layout(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return e.Layout(ctx)
}

// LastMaxMove returns the longest clamped displacement applied by the most
// recent effective step.
func (e *Engine) LastMaxMove() float64 { return e.lastMaxMove }

func contextError(err error, done int) error {
	if err == context.DeadlineExceeded {
		return errors.Wrap(errors.ErrCodeTimeout, err, "layout timed out after %d iterations", done)
	}
	return errors.Wrap(errors.ErrCodeCanceled, err, "layout canceled after %d iterations", done)
}

// guardedLen returns the length of delta, treating anything shorter than 1 as
// unit distance.
func guardedLen(delta vec3.Vec) float64 {
	return math.Max(delta.Len(), 1)
}
