// Package pkg holds the forcegraph libraries.
//
// # Overview
//
// forcegraph places the nodes of an undirected graph in three dimensions with
// a Fruchterman-Reingold simulation and renders the result as Graphviz
// projections. The packages are organized as:
//
//  1. [vec3] and [graph] - geometry and the graph model with JSON I/O
//  2. [layout/force] and [layout/sphere] - the layout algorithms
//  3. [generate] - seeded random graph generators
//  4. [render/nodelink] - DOT and SVG output
//  5. [pipeline] - orchestration (generate → layout → render) with caching
//  6. [cache], [store], [config] - infrastructure for the CLI and API
//  7. [observability] - hooks, with a Prometheus implementation in observability/prom
//
// # Data Flow
//
//	generator name + params + seed     graph.json
//	              ↓                        ↓
//	      [generate] package  ─────────────┤
//	                                       ↓
//	               [layout/force] or [layout/sphere]
//	                                       ↓
//	                 [render/nodelink] (json, dot, svg)
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Generator: "barabasi-albert",
//	    Params:    generate.Params{Nodes: 200, EdgesPerNode: 2},
//	    Formats:   []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("graph.svg", res.Artifacts["svg"], 0o644)
package pkg
