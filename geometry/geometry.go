// Package geometry provides the closest-point queries and basis helpers the narrow phase is
// built on. Everything here is a pure function over mgl64 values.
//
// References:
//   - Ericson: "Real-Time Collision Detection" (2004), chapters 3 and 5
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

const (
	// Epsilon is the length below which a vector is treated as zero.
	Epsilon = 1e-6

	// tangentThreshold is 1/sqrt(3): at least one normal component always reaches it.
	tangentThreshold = 0.57735
)

// Clamp restricts v to [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 restricts v to [0, 1].
func Clamp01[T constraints.Float](v T) T {
	return Clamp(v, 0, 1)
}

// Normalize returns v scaled to unit length, or fallback when v is too short to normalize.
func Normalize(v, fallback mgl64.Vec3) mgl64.Vec3 {
	lenSqr := v.LenSqr()
	if lenSqr < Epsilon*Epsilon {
		return fallback
	}
	return v.Mul(1.0 / math.Sqrt(lenSqr))
}

// TangentBasis builds an orthonormal tangent and bitangent for the unit normal n.
//
// The tangent is taken perpendicular to the largest component of n so the cross product
// never degenerates. A zero normal yields the X/Z pair.
func TangentBasis(n mgl64.Vec3) (tangent, bitangent mgl64.Vec3) {
	if n.LenSqr() < Epsilon*Epsilon {
		return mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}
	}

	if math.Abs(n.X()) >= tangentThreshold {
		tangent = mgl64.Vec3{n.Y(), -n.X(), 0}
	} else {
		tangent = mgl64.Vec3{0, n.Z(), -n.Y()}
	}
	tangent = tangent.Normalize()
	bitangent = n.Cross(tangent)

	return tangent, bitangent
}

// Perpendicular returns some unit vector orthogonal to v.
func Perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	tangent, _ := TangentBasis(Normalize(v, mgl64.Vec3{0, 1, 0}))
	return tangent
}

// ClosestPointOnSegment returns the point of segment [a, b] closest to p.
func ClosestPointOnSegment(p, a, b mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	lenSqr := ab.LenSqr()
	if lenSqr < Epsilon*Epsilon {
		return a
	}

	t := Clamp01(p.Sub(a).Dot(ab) / lenSqr)
	return a.Add(ab.Mul(t))
}

// ClosestPointOnAABB returns the point of the box [min, max] closest to p.
// Points inside the box are returned unchanged.
func ClosestPointOnAABB(p, min, max mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		Clamp(p.X(), min.X(), max.X()),
		Clamp(p.Y(), min.Y(), max.Y()),
		Clamp(p.Z(), min.Z(), max.Z()),
	}
}

// ClosestPointsSegmentSegment computes the closest points c1 on [p1, q1] and c2 on [p2, q2].
// s and t are the segment parameters of c1 and c2.
// Degenerate segments (points) are handled.
func ClosestPointsSegmentSegment(p1, q1, p2, q2 mgl64.Vec3) (s, t float64, c1, c2 mgl64.Vec3) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.LenSqr()
	e := d2.LenSqr()
	f := d2.Dot(r)

	const eps = Epsilon * Epsilon
	switch {
	case a <= eps && e <= eps:
		return 0, 0, p1, p2
	case a <= eps:
		s = 0
		t = Clamp01(f / e)
	default:
		c := d1.Dot(r)
		if e <= eps {
			t = 0
			s = Clamp01(-c / a)
			break
		}

		b := d1.Dot(d2)
		denom := a*e - b*b
		if denom != 0 {
			s = Clamp01((b*f - c*e) / denom)
		}

		t = (b*s + f) / e
		if t < 0 {
			t = 0
			s = Clamp01(-c / a)
		} else if t > 1 {
			t = 1
			s = Clamp01((b - c) / a)
		}
	}

	return s, t, p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

// Barycentric returns the barycentric coordinates (u, v, w) of p with respect to the triangle
// (a, b, c), so that p = u*a + v*b + w*c when p lies in the triangle's plane.
// ok is false for a degenerate triangle, in which case the centroid weights are returned.
func Barycentric(p, a, b, c mgl64.Vec3) (u, v, w float64, ok bool) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)

	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)

	denom := d00*d11 - d01*d01
	if math.Abs(denom) < Epsilon*Epsilon {
		return 1.0 / 3.0, 1.0 / 3.0, 1.0 / 3.0, false
	}

	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	u = 1 - v - w

	return u, v, w, true
}
