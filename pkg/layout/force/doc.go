// Package force implements a three-dimensional Fruchterman-Reingold layout.
//
// Nodes repel each other with an inverse-square force, edges pull their
// endpoints together with a logarithmic spring, and a weak gravity pulls
// every node toward the origin. Each step moves a node by at most the current
// temperature, adds a little jitter that shrinks as the system cools, and
// clamps the result into the cube [-area/2, area/2]³.
//
// # Usage
//
//	cfg := force.DefaultConfig()
//	cfg.MaxIterations = 200
//
//	e, err := force.New(g, cfg, force.WithSeed(42))
//	if err != nil {
//	    return err // INVALID_EDGE or INVALID_CONFIG
//	}
//	g, err = e.Layout(ctx)
//
// Interactive callers drive the simulation themselves:
//
//	for e.Running() {
//	    e.Step()
//	    e.CoolDown(i)
//	}
//
// # Thresholds
//
// Two independent temperature thresholds exist: [Engine.Step] does nothing
// once the temperature is below [StepThreshold] (0.01), while
// [Engine.Running] reports true until the temperature drops to
// [RunningThreshold] (0.001). Between the two the engine is "running" but no
// longer moves nodes.
//
// # Complexity
//
// Every step computes full pairwise repulsion, O(n²) in the node count. This
// is fine for the hundreds of nodes the defaults are tuned for. The pass can
// be split across goroutines with [WithWorkers]; each worker owns a disjoint
// range of nodes and sums contributions in the same order as the serial
// path, so results are bit-identical.
//
// # Randomness
//
// Initial placement of unpositioned nodes and jitter draw from the engine's
// own *rand.Rand. Use [WithSeed] or [WithRand] for reproducible runs.
package force
