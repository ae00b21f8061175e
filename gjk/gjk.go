// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for collision detection.
//
// GJK detects whether two convex shapes overlap by testing if their Minkowski difference
// contains the origin. The algorithm builds a simplex incrementally, converging toward
// the origin in typically 3-6 iterations. Shapes only need to expose a support function.
//
// Every simplex vertex is a SupportPoint which remembers the two shape points it was built
// from, so that EPA can later reconstruct witness points on both shapes.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"github.com/akmonengine/impact/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxIterations bounds the refinement loop against floating point cycling.
	MaxIterations = 64

	// degenerateDirection is the squared length under which a search direction is unusable.
	degenerateDirection = 1e-20

	// tetrahedronTolerance guards the triangle orientation invariant before a tetrahedron is built.
	tetrahedronTolerance = 1e-5
)

// initialDirection is arbitrary; it only needs to avoid the coordinate axes of typical scenes.
var initialDirection = mgl64.Vec3{1, 0.1, -0.2}

// Shape is anything exposing a support function in world space.
type Shape interface {
	Support(direction mgl64.Vec3) mgl64.Vec3
}

// SupportPoint is a vertex of the Minkowski difference A - B together with its origin on each shape.
type SupportPoint struct {
	A     mgl64.Vec3 // farthest point of A along the direction
	B     mgl64.Vec3 // farthest point of B along the opposite direction
	Point mgl64.Vec3 // A - B
}

// Support computes a support point in the Minkowski difference (A - B).
//
// Parameters:
//   - a, b: The two shapes to test
//   - direction: The direction to find the furthest point
//
// Returns:
//
//	SupportPoint with Point = furthestPoint(A, direction) - furthestPoint(B, -direction)
func Support(a, b Shape, direction mgl64.Vec3) SupportPoint {
	supportA := a.Support(direction)
	supportB := b.Support(direction.Mul(-1))
	return SupportPoint{A: supportA, B: supportB, Point: supportA.Sub(supportB)}
}

// Simplex holds up to 4 support points.
//
// Layout by Count:
//   - 2: line (B, C)
//   - 3: triangle (B, C, D), wound so that its normal faces away from the origin side
//   - 4: tetrahedron (A, B, C, D) enclosing the origin, A being the last point added
type Simplex struct {
	A, B, C, D SupportPoint
	Count      int
}

func (s *Simplex) Reset() {
	*s = Simplex{}
}

// Points returns the tetrahedron vertices, newest first.
func (s *Simplex) Points() [4]SupportPoint {
	return [4]SupportPoint{s.A, s.B, s.C, s.D}
}

type step uint8

const (
	stepContinue step = iota
	stepEnclosed
	stepFailed
)

// GJK performs collision detection between two convex shapes.
//
// Algorithm overview:
//  1. Take support points along an arbitrary direction, then toward the origin
//  2. If a new support point does not pass the origin → no collision
//  3. Fold the point into the simplex (line → triangle → tetrahedron) and pick a new direction
//  4. Once the tetrahedron encloses the origin → collision
//
// Returns:
//   - bool: true if collision detected, false otherwise
//
// The simplex is reset and filled in place. On success it holds a tetrahedron (Count == 4)
// enclosing the origin, which EPA uses as its initial polytope.
// Unexpected numerical states are reported as no collision.
func GJK(a, b Shape, simplex *Simplex) bool {
	simplex.Reset()

	direction := initialDirection
	simplex.C = Support(a, b, direction)
	if simplex.C.Point.Dot(direction) < 0 {
		return false
	}

	direction = simplex.C.Point.Mul(-1)
	if direction.LenSqr() < degenerateDirection {
		direction = initialDirection.Mul(-1)
	}
	simplex.B = Support(a, b, direction)
	if simplex.B.Point.Dot(direction) < 0 {
		return false
	}

	direction = crossABA(simplex.C.Point.Sub(simplex.B.Point), simplex.B.Point.Mul(-1))
	simplex.Count = 2

	for range MaxIterations {
		if direction.LenSqr() < degenerateDirection {
			// The origin lies on the current feature: any perpendicular restarts the search
			direction = geometry.Perpendicular(simplex.C.Point.Sub(simplex.B.Point))
		}

		newPoint := Support(a, b, direction)
		if newPoint.Point.Dot(direction) < 0 {
			return false
		}

		switch simplex.update(newPoint, &direction) {
		case stepEnclosed:
			simplex.A = newPoint
			simplex.Count = 4
			return true
		case stepFailed:
			return false
		}
	}

	return false
}

// crossABA returns (a × b) × a, the component of b perpendicular to a, scaled.
func crossABA(a, b mgl64.Vec3) mgl64.Vec3 {
	return a.Cross(b).Cross(a)
}

func (s *Simplex) update(a SupportPoint, direction *mgl64.Vec3) step {
	switch s.Count {
	case 2:
		return s.updateTriangle(a, direction)
	case 3:
		return s.updateTetrahedron(a, direction)
	}
	return stepFailed
}

// updateTriangle folds a into the line (B, C).
// The origin is either in an edge region (reduce to a line) or above/below the triangle plane
// (promote to a triangle wound away from the origin).
func (s *Simplex) updateTriangle(a SupportPoint, direction *mgl64.Vec3) step {
	ao := a.Point.Mul(-1)
	ab := s.B.Point.Sub(a.Point)
	ac := s.C.Point.Sub(a.Point)
	abc := ab.Cross(ac)

	if ab.Cross(abc).Dot(ao) > 0 {
		s.C = a
		*direction = crossABA(ab, ao)
		return stepContinue
	}

	if abc.Cross(ac).Dot(ao) > 0 {
		s.B = a
		*direction = crossABA(ac, ao)
		return stepContinue
	}

	if abc.Dot(ao) >= 0 {
		s.D = s.B
		s.B = a
		s.Count = 3
		*direction = abc
		return stepContinue
	}

	if abc.Dot(ao) < 0 {
		s.D = s.C
		s.C = s.B
		s.B = a
		s.Count = 3
		*direction = abc.Mul(-1)
		return stepContinue
	}

	// NaN
	return stepFailed
}

const (
	overABC = 1 << iota
	overABD
	overADC
)

// tetrahedron caches the vectors of one tetrahedron test. Face normals point outside.
type tetrahedron struct {
	a                SupportPoint
	ao, ab, ac, ad   mgl64.Vec3
	abcN, abdN, adcN mgl64.Vec3
	simplex          *Simplex
	direction        *mgl64.Vec3
}

// updateTetrahedron folds a into the triangle (B, C, D).
// If the origin is behind the three new faces it is enclosed. Otherwise the simplex drops back
// to the face or edge closest to the origin. When two faces see the origin, the shared edge
// decides which face to restart from.
func (s *Simplex) updateTetrahedron(a SupportPoint, direction *mgl64.Vec3) step {
	bcd := s.C.Point.Sub(s.B.Point).Cross(s.D.Point.Sub(s.B.Point))
	if bcd.Dot(*direction) > tetrahedronTolerance || bcd.Dot(s.B.Point) < -tetrahedronTolerance {
		return stepFailed
	}

	t := tetrahedron{
		a:         a,
		ao:        a.Point.Mul(-1),
		ab:        s.B.Point.Sub(a.Point),
		ac:        s.C.Point.Sub(a.Point),
		ad:        s.D.Point.Sub(a.Point),
		simplex:   s,
		direction: direction,
	}
	t.abcN = t.ac.Cross(t.ab)
	t.abdN = t.ab.Cross(t.ad)
	t.adcN = t.ad.Cross(t.ac)

	flags := 0
	if t.abcN.Dot(t.ao) > 0 {
		flags |= overABC
	}
	if t.abdN.Dot(t.ao) > 0 {
		flags |= overABD
	}
	if t.adcN.Dot(t.ao) > 0 {
		flags |= overADC
	}

	switch flags {
	case 0:
		return stepEnclosed
	case overABC:
		return t.faceABC(true)
	case overABD:
		return t.faceABD(true)
	case overADC:
		return t.faceADC(true)
	case overABC | overABD:
		if t.abcN.Cross(t.ab).Dot(t.ao) > 0 {
			return t.faceABD(true)
		}
		return t.faceABC(false)
	case overABD | overADC:
		if t.abdN.Cross(t.ad).Dot(t.ao) > 0 {
			return t.faceADC(true)
		}
		return t.faceABD(false)
	case overADC | overABC:
		if t.adcN.Cross(t.ac).Dot(t.ao) > 0 {
			return t.faceABC(true)
		}
		return t.faceADC(false)
	}

	// The origin cannot be in front of all three faces
	return stepFailed
}

// line reduces the simplex to the segment (b, c)
func (t *tetrahedron) line(b, c SupportPoint, edge mgl64.Vec3) step {
	t.simplex.B = b
	t.simplex.C = c
	t.simplex.Count = 2
	*t.direction = crossABA(edge, t.ao)
	return stepContinue
}

// faceABC handles the origin in front of face ABC. checkAB is false when the edge AB was
// already ruled out by the caller.
func (t *tetrahedron) faceABC(checkAB bool) step {
	s := t.simplex
	if checkAB && t.abcN.Cross(t.ab).Dot(t.ao) > 0 {
		return t.line(s.B, t.a, t.ab)
	}
	if t.ac.Cross(t.abcN).Dot(t.ao) > 0 {
		return t.line(t.a, s.C, t.ac)
	}

	s.D = t.a
	*t.direction = t.abcN
	return stepContinue
}

func (t *tetrahedron) faceABD(checkAD bool) step {
	s := t.simplex
	if checkAD && t.abdN.Cross(t.ad).Dot(t.ao) > 0 {
		return t.line(s.D, t.a, t.ad)
	}
	if t.ab.Cross(t.abdN).Dot(t.ao) > 0 {
		return t.line(s.B, t.a, t.ab)
	}

	s.C = t.a
	*t.direction = t.abdN
	return stepContinue
}

func (t *tetrahedron) faceADC(checkAC bool) step {
	s := t.simplex
	if checkAC && t.adcN.Cross(t.ac).Dot(t.ao) > 0 {
		return t.line(t.a, s.C, t.ac)
	}
	if t.ad.Cross(t.adcN).Dot(t.ao) > 0 {
		return t.line(t.a, s.D, t.ad)
	}

	s.B = t.a
	*t.direction = t.adcN
	return stepContinue
}
