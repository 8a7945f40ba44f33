// Package nodelink draws laid out graphs as node-link diagrams.
//
// Positions are 3-D, so [ToDOT] projects every node onto one of the axis
// planes and pins it there with a `pos="x,y!"` attribute; Graphviz's neato
// engine then only draws, it does not move anything. The dropped axis is
// kept as a depth cue: nearer nodes get a lighter fill.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Projection: nodelink.ProjectXY})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Nodes without a position are emitted unpinned and neato places them.
//
// SVG rendering uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process, so no system installation is needed.
package nodelink
