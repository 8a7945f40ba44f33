package vec3

import (
	"fmt"
	"math"
)

// Zero is the origin.
var Zero = Vec{}

// Vec is a 3-D vector.
type Vec struct {
	X float64 `json:"x" bson:"x" yaml:"x"`
	Y float64 `json:"y" bson:"y" yaml:"y"`
	Z float64 `json:"z" bson:"z" yaml:"z"`
}

// New returns the vector (x, y, z).
func New(x, y, z float64) Vec { return Vec{X: x, Y: y, Z: z} }

// Clone returns an independent copy of v.
func (v Vec) Clone() Vec { return v }

// Add returns v + u.
func (v Vec) Add(u Vec) Vec { return Vec{v.X + u.X, v.Y + u.Y, v.Z + u.Z} }

// Sub returns v - u.
func (v Vec) Sub(u Vec) Vec { return Vec{v.X - u.X, v.Y - u.Y, v.Z - u.Z} }

// Scale returns v with every component multiplied by s.
func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s, v.Z * s} }

// Negate returns -v.
func (v Vec) Negate() Vec { return Vec{-v.X, -v.Y, -v.Z} }

// Dot returns the scalar product of v and u.
func (v Vec) Dot(u Vec) float64 { return v.X*u.X + v.Y*u.Y + v.Z*u.Z }

// LenSq returns the squared Euclidean norm.
func (v Vec) LenSq() float64 { return v.Dot(v) }

// Len returns the Euclidean norm.
func (v Vec) Len() float64 { return math.Sqrt(v.LenSq()) }

// Normalize returns v divided by its length. A zero vector is divided by 1
// and comes back unchanged.
func (v Vec) Normalize() Vec {
	l := v.Len()
	if l == 0 {
		l = 1
	}
	return Vec{v.X / l, v.Y / l, v.Z / l}
}

// ClampLength rescales v so its length lies in [lo, hi] while keeping its
// direction. A zero vector is returned as is.
func (v Vec) ClampLength(lo, hi float64) Vec {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(math.Max(lo, math.Min(hi, l)) / l)
}

// Clamp limits each component independently to [lo, hi].
func (v Vec) Clamp(lo, hi float64) Vec {
	return Vec{clamp(v.X, lo, hi), clamp(v.Y, lo, hi), clamp(v.Z, lo, hi)}
}

// Dist returns the Euclidean distance between v and u.
func (v Vec) Dist(u Vec) float64 { return v.Sub(u).Len() }

// IsFinite reports whether no component is NaN or infinite.
func (v Vec) IsFinite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// String formats v as "(x, y, z)" with three decimals.
func (v Vec) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
