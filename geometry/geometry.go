// Package geometry holds the 2D primitives shared by the spatial index,
// the tank execution loop, and the world step: a vector (Pair), a
// folded heading angle, and an axis-aligned bounding box.
package geometry

import "math"

// Pair is a 2D vector of two finite 32-bit floats.
type Pair struct {
	X, Y float32
}

// Both returns a Pair with both components set to f.
func Both(f float32) Pair {
	return Pair{X: f, Y: f}
}

// Zero is the additive identity.
func Zero() Pair {
	return Pair{}
}

// Polar constructs a unit vector from a heading in radians.
func Polar(heading float32) Pair {
	return Pair{X: float32(math.Cos(float64(heading))), Y: float32(math.Sin(float64(heading)))}
}

// Add returns p+other.
func (p Pair) Add(other Pair) Pair {
	return Pair{X: p.X + other.X, Y: p.Y + other.Y}
}

// Neg returns -p.
func (p Pair) Neg() Pair {
	return Pair{X: -p.X, Y: -p.Y}
}

// Sub returns p-other.
func (p Pair) Sub(other Pair) Pair {
	return p.Add(other.Neg())
}

// Scale returns p scaled by a uniform scalar.
func (p Pair) Scale(f float32) Pair {
	return Pair{X: p.X * f, Y: p.Y * f}
}

// Mins returns the component-wise minimum of p and other.
func (p Pair) Mins(other Pair) Pair {
	return Pair{X: min32(p.X, other.X), Y: min32(p.Y, other.Y)}
}

// Maxs returns the component-wise maximum of p and other.
func (p Pair) Maxs(other Pair) Pair {
	return Pair{X: max32(p.X, other.X), Y: max32(p.Y, other.Y)}
}

// Ang returns the principal angle of p, folded into [0, pi) by adding
// pi to negative angles. This collapses the lower and upper half-planes
// onto the same range; it is a preserved property of the arena's scan
// sensor, not a bug to be fixed (spec.md §9).
func (p Pair) Ang() float32 {
	a := float32(math.Atan2(float64(p.Y), float64(p.X)))
	if a < 0 {
		a += math.Pi
	}
	return a
}

// Limag is the arena's cheap L1-like distance proxy: the signed sum of
// components, not |x|+|y| and not Euclidean distance. Explosion-radius
// membership is asymmetric in direction because of this; preserve it
// bit-for-bit (spec.md §9).
func (p Pair) Limag() float32 {
	return p.X + p.Y
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// AABB is an axis-aligned box: a lower-left origin plus a non-negative
// dimension. Contains uses half-open intervals [org, org+dim).
type AABB struct {
	Org, Dim Pair
}

// NewAABB normalizes org/dim so Dim is always non-negative.
func NewAABB(org, dim Pair) AABB {
	if dim.X < 0 {
		org.X += dim.X
		dim.X = -dim.X
	}
	if dim.Y < 0 {
		org.Y += dim.Y
		dim.Y = -dim.Y
	}
	return AABB{Org: org, Dim: dim}
}

// FromCorners builds a normalized AABB spanning two arbitrary corners.
func FromCorners(c1, c2 Pair) AABB {
	return NewAABB(c1, c2.Sub(c1))
}

// Empty is the degenerate, zero-volume box at the origin.
func Empty() AABB {
	return AABB{}
}

// Opp returns the box's upper-right corner (Org+Dim).
func (b AABB) Opp() Pair {
	return b.Org.Add(b.Dim)
}

// Contains reports whether p lies in the half-open box [Org, Org+Dim).
func (b AABB) Contains(p Pair) bool {
	opp := b.Opp()
	return p.X >= b.Org.X && p.X < opp.X && p.Y >= b.Org.Y && p.Y < opp.Y
}

// Unite returns the smallest box containing both b and other.
func (b AABB) Unite(other AABB) AABB {
	return FromCorners(b.Org.Mins(other.Org), b.Opp().Maxs(other.Opp()))
}

// Enclose returns a box that contains point, growing b only if needed.
// Because Contains is half-open, a grown box's far edge lies just past
// the farther of b's old far corner and point.
func (b AABB) Enclose(point Pair) AABB {
	if b.Contains(point) {
		return b
	}
	org := b.Org.Mins(point)
	far := b.Opp().Maxs(point)
	dim := far.Sub(org)
	inf := float32(math.Inf(1))
	for step := float32(math.SmallestNonzeroFloat32); org.X+dim.X <= far.X && dim.X < inf; step *= 2 {
		dim.X += step
	}
	for step := float32(math.SmallestNonzeroFloat32); org.Y+dim.Y <= far.Y && dim.Y < inf; step *= 2 {
		dim.Y += step
	}
	return AABB{Org: org, Dim: dim}
}

// Intersect returns the overlap of b and other, or false if disjoint.
func (b AABB) Intersect(other AABB) (AABB, bool) {
	org := b.Org.Maxs(other.Org)
	opp := b.Opp().Mins(other.Opp())
	dim := opp.Sub(org)
	if dim.X < 0 || dim.Y < 0 {
		return AABB{}, false
	}
	return NewAABB(org, dim), true
}

// OverPoints builds a box for which Contains holds for every point in
// pts; its far edge lies just past the largest coordinates. It returns
// Empty for a nil/empty slice.
func OverPoints(pts []Pair) AABB {
	if len(pts) == 0 {
		return Empty()
	}
	b := NewAABB(pts[0], Zero())
	for _, p := range pts {
		b = b.Enclose(p)
	}
	return b
}

// Around centers a box of the given dimension on p.
func Around(p, dim Pair) AABB {
	half := dim.Scale(0.5)
	return NewAABB(p.Sub(half), dim)
}

// Heading is an angle in radians, quantized to a single byte on
// to/from conversion (divisor 256 over [0, 2*pi)). The upcall ABI does
// not use this encoding: aim and turn take their angle as an f32.
type Heading float32

const headingDivisor = 256

// ToIntegral quantizes a Heading to a byte in [0, 256).
func (h Heading) ToIntegral() uint8 {
	norm := math.Mod(float64(h), 2*math.Pi)
	if norm < 0 {
		norm += 2 * math.Pi
	}
	return uint8(norm / (2 * math.Pi) * headingDivisor)
}

// HeadingFromIntegral reconstructs a Heading from a quantized byte.
func HeadingFromIntegral(b uint8) Heading {
	return Heading(float64(b) / headingDivisor * 2 * math.Pi)
}
