package manifold

import (
	"github.com/go-gl/mathgl/mgl64"
)

// MaxPolygonVertices bounds the clipped polygon: a quad gains at most one vertex per plane
const MaxPolygonVertices = 16

// Plane is the set of points x where Normal·x + Offset = 0.
// Clipping keeps the side Normal points to.
type Plane struct {
	Normal mgl64.Vec3
	Offset float64
}

// NewPlane creates the plane through point with the given normal
func NewPlane(point, normal mgl64.Vec3) Plane {
	return Plane{Normal: normal, Offset: -normal.Dot(point)}
}

func (p Plane) SignedDistance(point mgl64.Vec3) float64 {
	return p.Normal.Dot(point) + p.Offset
}

// Polygon is a fixed-capacity convex polygon whose vertices carry a penetration depth
type Polygon struct {
	Vertices [MaxPolygonVertices]Point
	Count    int
}

func (p *Polygon) Add(vertex Point) {
	if p.Count < MaxPolygonVertices {
		p.Vertices[p.Count] = vertex
		p.Count++
	}
}

// lerp interpolates position and penetration from a (t = 0) to b (t = 1)
func lerp(a, b Point, t float64) Point {
	return Point{
		Position:    a.Position.Add(b.Position.Sub(a.Position).Mul(t)),
		Penetration: a.Penetration + (b.Penetration-a.Penetration)*t,
	}
}

// ClipPolygon clips the polygon against one plane (Sutherland-Hodgman).
// Vertices on the plane are inside, so clipping a polygon already inside returns it unchanged.
func ClipPolygon(input Polygon, plane Plane) Polygon {
	var output Polygon
	if input.Count == 0 {
		return output
	}

	start := input.Vertices[input.Count-1]
	startDist := plane.SignedDistance(start.Position)
	for i := 0; i < input.Count; i++ {
		end := input.Vertices[i]
		endDist := plane.SignedDistance(end.Position)

		switch {
		case startDist >= 0 && endDist >= 0:
			output.Add(end)
		case startDist >= 0:
			// Leaving: a start lying on the plane is already the crossing point
			if startDist > 0 {
				output.Add(lerp(start, end, startDist/(startDist-endDist)))
			}
		case endDist >= 0:
			// Entering: an end lying on the plane is the crossing point
			if endDist > 0 {
				output.Add(lerp(start, end, startDist/(startDist-endDist)))
			}
			output.Add(end)
		}

		start, startDist = end, endDist
	}

	return output
}

// ClipPolygonPlanes clips the polygon against every plane in turn
func ClipPolygonPlanes(input Polygon, planes []Plane) Polygon {
	for _, plane := range planes {
		if input.Count == 0 {
			break
		}
		input = ClipPolygon(input, plane)
	}
	return input
}

// ClipSegment clips the segment [a, b] against the planes. ok is false when nothing remains.
func ClipSegment(a, b Point, planes []Plane) (Point, Point, bool) {
	for _, plane := range planes {
		da := plane.SignedDistance(a.Position)
		db := plane.SignedDistance(b.Position)

		switch {
		case da < 0 && db < 0:
			return a, b, false
		case da < 0:
			a = lerp(a, b, da/(da-db))
		case db < 0:
			b = lerp(a, b, da/(da-db))
		}
	}
	return a, b, true
}
