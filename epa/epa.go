// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA is run after GJK detects a collision to determine:
//   - Penetration depth (how far shapes overlap)
//   - Contact normal (direction to separate shapes)
//   - Contact point (midpoint of the witness points on both shapes)
//
// The algorithm expands a polytope (starting from GJK's final tetrahedron) toward the
// boundary of the Minkowski difference, until the face closest to the origin cannot be
// pushed further. That face gives the Minimum Translation Vector separating the shapes.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"errors"
	"fmt"

	"github.com/akmonengine/impact/geometry"
	"github.com/akmonengine/impact/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultMaxIterations limits polytope expansion.
	// Typical convergence: 5-15 iterations for simple shapes.
	DefaultMaxIterations = 20

	// DefaultTolerance defines when EPA has converged: the support point along the closest
	// face normal is less than this far beyond the face.
	DefaultTolerance = 0.01

	// DefaultSecondaryTolerance is the looser gap under which a non-converged result is still used.
	DefaultSecondaryTolerance = 0.02
)

var (
	// ErrNotConverged is returned when the polytope was still expanding after the last iteration
	ErrNotConverged = errors.New("epa: did not converge")
	// ErrCapacity is returned when the polytope arena is exhausted
	ErrCapacity = errors.New("epa: polytope capacity exceeded")
	// ErrDegenerate is returned for flat simplices and broken polytope updates
	ErrDegenerate = errors.New("epa: degenerate polytope")
)

type Options struct {
	MaxIterations      int
	Tolerance          float64
	SecondaryTolerance float64
	// AcceptBorderline returns the best estimate instead of an error when the final gap
	// exceeds SecondaryTolerance
	AcceptBorderline bool
}

func DefaultOptions() Options {
	return Options{
		MaxIterations:      DefaultMaxIterations,
		Tolerance:          DefaultTolerance,
		SecondaryTolerance: DefaultSecondaryTolerance,
	}
}

// withDefaults replaces unset fields by their default value
func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.SecondaryTolerance <= 0 {
		o.SecondaryTolerance = DefaultSecondaryTolerance
	}
	return o
}

// Result describes the penetration of A into B.
type Result struct {
	// Normal points from A toward B: moving B by Normal*Depth separates the shapes
	Normal mgl64.Vec3
	Depth  float64
	// PointA and PointB are the witness points on each shape, Point their midpoint
	PointA mgl64.Vec3
	PointB mgl64.Vec3
	Point  mgl64.Vec3
	// Iterations is the number of expansion steps taken
	Iterations int
}

// EPA computes penetration depth and contact information for overlapping convex shapes.
//
// Algorithm overview:
//  1. Start with the tetrahedron from GJK (it contains the origin)
//  2. Find the face closest to the origin
//  3. Get the support point along the face normal
//  4. If the support point does not go beyond the face by more than Tolerance → done
//  5. Otherwise, expand the polytope with the support point and repeat from step 2
//
// When the loop stops early (iteration cap, arena exhausted, broken update), the closest face
// found so far is still used if its gap is under SecondaryTolerance. Otherwise the cause is
// returned: ErrNotConverged, ErrCapacity or ErrDegenerate.
func EPA(a, b gjk.Shape, simplex *gjk.Simplex, options Options) (Result, error) {
	if simplex.Count != 4 {
		return Result{}, fmt.Errorf("%w: simplex has %d points", ErrDegenerate, simplex.Count)
	}
	options = options.withDefaults()

	p := polytopePool.Get().(*polytope)
	defer polytopePool.Put(p)

	if err := p.init(simplex); err != nil {
		return Result{}, err
	}

	var (
		closest   int
		depth     float64
		converged bool
		failure   error
		iteration int
	)

	for iteration = 0; iteration < options.MaxIterations; iteration++ {
		closest = p.closest()
		if closest < 0 {
			return Result{}, ErrDegenerate
		}
		face := &p.triangles[closest]

		support := gjk.Support(a, b, face.normal)
		depth = support.Point.Dot(face.normal)
		if depth-face.distance < options.Tolerance {
			converged = true
			break
		}

		if failure = p.expand(support); failure != nil {
			break
		}
	}

	face := &p.triangles[closest]
	if !converged && depth-face.distance > options.SecondaryTolerance && !options.AcceptBorderline {
		if failure == nil {
			failure = ErrNotConverged
		}
		return Result{}, fmt.Errorf("%w (gap %.4f after %d iterations)", failure, depth-face.distance, iteration)
	}

	return p.result(face, depth, iteration), nil
}

// result reconstructs the witness points from the barycentric coordinates of the origin's
// projection on the face.
func (p *polytope) result(face *triangle, depth float64, iterations int) Result {
	a := p.points[face.points[0]]
	b := p.points[face.points[1]]
	c := p.points[face.points[2]]

	u, v, w, _ := geometry.Barycentric(face.normal.Mul(face.distance), a.Point, b.Point, c.Point)
	pointA := a.A.Mul(u).Add(b.A.Mul(v)).Add(c.A.Mul(w))
	pointB := a.B.Mul(u).Add(b.B.Mul(v)).Add(c.B.Mul(w))

	return Result{
		Normal:     face.normal,
		Depth:      depth,
		PointA:     pointA,
		PointB:     pointB,
		Point:      pointA.Add(pointB).Mul(0.5),
		Iterations: iterations,
	}
}
