// Package manifold holds the contact manifold produced by the narrow phase, along with the
// Sutherland-Hodgman clipping used to build face contacts and the reduction that keeps the
// most stable four points of a larger contact patch.
//
// References:
//   - Gregorius: "Robust Contact Creation for Physics Simulations", GDC 2015
package manifold

import (
	"math"

	"github.com/akmonengine/impact/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxPoints is the capacity of a manifold
const MaxPoints = 4

// Point is a contact position in world space with its penetration depth (positive when overlapping).
// Clipping also carries the depth of each polygon vertex in a Point.
type Point struct {
	Position    mgl64.Vec3
	Penetration float64
}

// Manifold is a set of up to 4 contact points sharing one normal.
// Normal points from shape A toward shape B; Tangent and Bitangent complete an orthonormal basis.
type Manifold struct {
	Normal    mgl64.Vec3
	Tangent   mgl64.Vec3
	Bitangent mgl64.Vec3

	Points [MaxPoints]Point
	Count  int
}

// SetNormal sets the normal and derives the tangent basis from it
func (m *Manifold) SetNormal(normal mgl64.Vec3) {
	m.Normal = normal
	m.Tangent, m.Bitangent = geometry.TangentBasis(normal)
}

// Add appends a contact point. It reports false once the manifold is full.
func (m *Manifold) Add(position mgl64.Vec3, penetration float64) bool {
	if m.Count == MaxPoints {
		return false
	}
	m.Points[m.Count] = Point{Position: position, Penetration: penetration}
	m.Count++
	return true
}

// Contacts returns the used points
func (m *Manifold) Contacts() []Point {
	return m.Points[:m.Count]
}

// MaxPenetration returns the deepest penetration of the manifold, 0 if empty
func (m *Manifold) MaxPenetration() float64 {
	var deepest float64
	for _, p := range m.Contacts() {
		deepest = math.Max(deepest, p.Penetration)
	}
	return deepest
}

// Flip swaps the roles of A and B: the normal is reversed, points are unchanged.
func (m *Manifold) Flip() {
	m.SetNormal(m.Normal.Mul(-1))
}

// RotateAbout rotates the manifold around pivot, moving it from a box's local frame to world space.
func (m *Manifold) RotateAbout(rotation mgl64.Quat, pivot mgl64.Vec3) {
	m.SetNormal(rotation.Rotate(m.Normal))
	for i := range m.Contacts() {
		p := &m.Points[i]
		p.Position = pivot.Add(rotation.Rotate(p.Position.Sub(pivot)))
	}
}

// signedArea returns the area of the triangle (a, b, c) seen from the normal side:
// positive when counter-clockwise.
func signedArea(a, b, c, normal mgl64.Vec3) float64 {
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Dot(normal)
}

// SetPoints replaces the contact points. More than 4 points are reduced to the 4 spanning the
// largest area, m.Normal must already be set:
//  1. the point farthest along the tangent
//  2. the point farthest from the first
//  3. the point making the largest triangle with the first two
//  4. the point adding the largest area outside that triangle
//
// Ties keep the earlier point, so the result only depends on the input order.
func (m *Manifold) SetPoints(points []Point) {
	m.Count = 0
	if len(points) <= MaxPoints {
		for _, p := range points {
			m.Add(p.Position, p.Penetration)
		}
		return
	}

	first := 0
	best := points[0].Position.Dot(m.Tangent)
	for i := 1; i < len(points); i++ {
		if d := points[i].Position.Dot(m.Tangent); d > best {
			first, best = i, d
		}
	}

	second := first
	best = 0
	for i := range points {
		if d := points[i].Position.Sub(points[first].Position).LenSqr(); d > best {
			second, best = i, d
		}
	}

	a, b := points[first].Position, points[second].Position
	third := -1
	best = 0
	var thirdArea float64
	for i := range points {
		area := signedArea(a, b, points[i].Position, m.Normal)
		if math.Abs(area) > best {
			third, best, thirdArea = i, math.Abs(area), area
		}
	}

	m.Add(points[first].Position, points[first].Penetration)
	if second == first {
		return
	}
	m.Add(points[second].Position, points[second].Penetration)
	if third < 0 || best < geometry.Epsilon*geometry.Epsilon {
		return
	}

	// Wind the triangle counter-clockwise around the normal
	if thirdArea < 0 {
		m.Points[0], m.Points[1] = m.Points[1], m.Points[0]
	}
	m.Add(points[third].Position, points[third].Penetration)

	triangle := [3]mgl64.Vec3{m.Points[0].Position, m.Points[1].Position, m.Points[2].Position}
	fourth := -1
	best = 0
	for i := range points {
		q := points[i].Position
		for k := 0; k < 3; k++ {
			// q beyond edge k adds the triangle (edge end, edge start, q)
			area := signedArea(triangle[(k+1)%3], triangle[k], q, m.Normal)
			if area > best {
				fourth, best = i, area
			}
		}
	}

	if fourth >= 0 {
		m.Add(points[fourth].Position, points[fourth].Penetration)
	}
}
