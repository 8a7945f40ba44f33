// Package vec3 provides a small three-component vector value type used by the
// layout engines.
//
// [Vec] has value semantics: every operation returns a new vector and never
// modifies its receiver, so a displacement accumulator can never alias a
// position by accident. Chained expressions read the same way as the
// mutating style common in graphics code:
//
//	delta := v.Sub(u)
//	disp = disp.Add(delta.Scale(force / dist))
//
// # Degenerate Inputs
//
// Nothing in this package fails. Zero vectors are absorbed locally:
// [Vec.Normalize] of a zero vector is the zero vector, and
// [Vec.ClampLength] leaves a zero vector untouched because it has no
// direction to rescale along.
package vec3
