// Package generate builds random graphs to feed the layout engines.
//
// Each [Generator] is a single-pass constructor of a graph's topology. Node
// IDs are the decimal node indices and no positions are assigned, except
// that [Geometric] records its 2-D sample points in Node.Meta["x"] and
// Node.Meta["y"].
//
// # Generators
//
//   - [BarabasiAlbert]: growth by uniform random attachment
//   - [ErdosRenyi]: every pair connected independently with probability p
//   - [Geometric]: pairs closer than a radius in the unit square
//   - [WattsStrogatz]: ring lattice with random target rewiring
//
// BarabasiAlbert attaches uniformly, not proportionally to degree: node i
// (for i > m) draws its m targets uniformly from [0, i). Duplicate edges are
// possible, as are self-loops after Watts-Strogatz rewiring.
//
// # Usage
//
//	gen, err := generate.New("watts-strogatz", generate.Params{Nodes: 100, AvgDegree: 4, Probability: 0.1})
//	g, err := gen.Generate(rand.New(rand.NewPCG(seed, seed)))
//
// All randomness comes from the *rand.Rand passed to Generate, so the same
// seed yields the same graph.
package generate
