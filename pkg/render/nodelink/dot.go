package nodelink

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/vec3"
)

// Projection names the plane 3-D positions are flattened onto.
type Projection string

const (
	ProjectXY Projection = "xy" // depth is Z
	ProjectXZ Projection = "xz" // depth is Y
	ProjectYZ Projection = "yz" // depth is X
)

// Options configures diagram generation.
type Options struct {
	// Projection defaults to ProjectXY.
	Projection Projection

	// Scale multiplies projected coordinates; 0 means 1. Coordinates are
	// in points (1/72 inch).
	Scale float64

	// Detailed adds the 3-D position and metadata to node labels.
	Detailed bool
}

// ValidateProjection rejects unknown projection names. Empty is valid.
func ValidateProjection(p Projection) error {
	switch p {
	case "", ProjectXY, ProjectXZ, ProjectYZ:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid projection: %q (must be one of: xy, xz, yz)", p)
}

// Project flattens p, returning the 2-D coordinates and the depth.
func Project(p vec3.Vec, proj Projection) (x, y, depth float64) {
	switch proj {
	case ProjectXZ:
		return p.X, p.Z, p.Y
	case ProjectYZ:
		return p.Y, p.Z, p.X
	default:
		return p.X, p.Y, p.Z
	}
}

// ToDOT converts g to an undirected Graphviz graph with pinned positions.
func ToDOT(g *graph.Graph, opts Options) string {
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	lo, hi := depthRange(g, opts.Projection)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=10, width=0.3, fixedsize=false];\n")
	buf.WriteString("  edge [color=\"#00000066\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed))}
		if n.Position != nil {
			x, y, depth := Project(*n.Position, opts.Projection)
			attrs = append(attrs,
				fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(x*scale), fmtFloat(y*scale)),
				"fillcolor="+shade(depth, lo, hi))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -- %q;\n", g.Nodes[e.Source].ID, g.Nodes[e.Target].ID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	var parts []string
	if n.Position != nil {
		parts = append(parts, n.Position.String())
	}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	if len(parts) == 0 {
		return n.ID
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func depthRange(g *graph.Graph, proj Projection) (lo, hi float64) {
	first := true
	for _, n := range g.Nodes {
		if n.Position == nil {
			continue
		}
		_, _, d := Project(*n.Position, proj)
		if first {
			lo, hi, first = d, d, false
			continue
		}
		lo, hi = min(lo, d), max(hi, d)
	}
	return lo, hi
}

// shade maps depth onto X11 gray45 (farthest) .. gray95 (nearest).
func shade(depth, lo, hi float64) string {
	if hi <= lo {
		return "gray95"
	}
	t := (depth - lo) / (hi - lo)
	return "gray" + strconv.Itoa(45+int(t*50+0.5))
}
