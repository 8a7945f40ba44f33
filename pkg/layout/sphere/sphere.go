// Package sphere places graph nodes on a sphere with a closed-form spiral.
//
// It is the non-iterative alternative to package force: node i of n gets
//
//	phi   = acos(-1 + 2i/n)
//	theta = sqrt(n·π)·phi
//
// converted to Cartesian coordinates and scaled by the radius. The result is
// deterministic and ignores edges entirely.
package sphere

import (
	"math"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/vec3"
)

// DefaultRadius is the sphere radius used when none is given.
const DefaultRadius = 250.0

// Place overwrites the position of every node in g. A graph without nodes is
// left untouched.
func Place(g *graph.Graph, radius float64) (*graph.Graph, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "graph is nil")
	}
	if err := errors.ValidateFinite("radius", radius); err != nil {
		return nil, err
	}
	if radius <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "radius must be positive, got %v", radius)
	}

	n := len(g.Nodes)
	for i := range g.Nodes {
		p := Position(i, n, radius)
		g.Nodes[i].Position = &p
	}
	return g, nil
}

// Position returns the location of node i out of n on a sphere of the given radius.
func Position(i, n int, radius float64) vec3.Vec {
	phi := math.Acos(-1 + 2*float64(i)/float64(n))
	theta := math.Sqrt(float64(n)*math.Pi) * phi
	return vec3.New(
		radius*math.Sin(phi)*math.Cos(theta),
		radius*math.Sin(phi)*math.Sin(theta),
		radius*math.Cos(phi),
	)
}
