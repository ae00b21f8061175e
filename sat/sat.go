// Package sat implements the separating axis test between two oriented boxes.
//
// Up to 15 axes are tested: the 3 face normals of each box and the 9 cross products of their
// edge directions. The axis of minimum penetration decides the contact type:
//   - face axis: the incident face of the other box is clipped against the side planes of the
//     reference face (Sutherland-Hodgman), giving up to 4 points
//     If every clipped point lies above the reference face, the deepest incident corner is kept
//   - edge axis: a single point between the two closest support edges
//
// All tests run in the local frame of box A.
//
// References:
//   - Gottschalk: "Collision Queries using Oriented Bounding Boxes" (2000)
//   - Ericson: "Real-Time Collision Detection" (2004), section 4.4
package sat

import (
	"math"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/geometry"
	"github.com/akmonengine/impact/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultParallelThreshold flags two edges as parallel, skipping the 9 edge axes
	DefaultParallelThreshold = 0.99

	// DefaultEpsilon is added to every |R| entry to absorb rounding when edges are near parallel
	DefaultEpsilon = 1e-6

	// minAxisLengthSqr skips edge axes built from near-parallel edges
	minAxisLengthSqr = 1e-12
)

type Settings struct {
	ParallelThreshold float64
	Epsilon           float64
}

func DefaultSettings() Settings {
	return Settings{
		ParallelThreshold: DefaultParallelThreshold,
		Epsilon:           DefaultEpsilon,
	}
}

// withDefaults replaces unset fields by their default value
func (s Settings) withDefaults() Settings {
	if s.ParallelThreshold <= 0 {
		s.ParallelThreshold = DefaultParallelThreshold
	}
	if s.Epsilon <= 0 {
		s.Epsilon = DefaultEpsilon
	}
	return s
}

type axisKind uint8

const (
	faceA axisKind = iota
	faceB
	edge
)

// axis is a candidate separating axis. normal is expressed in A's local frame, i and j are
// the face or edge indices on A and B.
type axis struct {
	kind        axisKind
	i, j        int
	normal      mgl64.Vec3
	penetration float64
}

// Intersect tests two oriented boxes. When they overlap, the manifold normal points from a to b.
func Intersect(a, b actor.OrientedBox, settings Settings) (manifold.Manifold, bool) {
	settings = settings.withDefaults()
	axesA := a.Axes()
	axesB := b.Axes()

	// R[i][j] = Ai·Bj expresses B's axes in A's frame
	var R, absR [3][3]float64
	parallel := false
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			R[i][j] = axesA[i].Dot(axesB[j])
			absR[i][j] = math.Abs(R[i][j]) + settings.Epsilon
			if absR[i][j] >= settings.ParallelThreshold {
				parallel = true
			}
		}
	}

	tw := b.Center.Sub(a.Center)
	t := a.Rotation.Conjugate().Rotate(tw)
	hA, hB := a.HalfExtents, b.HalfExtents

	best := axis{penetration: math.Inf(1)}

	for i := 0; i < 3; i++ {
		ra := hA[i]
		rb := hB[0]*absR[i][0] + hB[1]*absR[i][1] + hB[2]*absR[i][2]
		penetration := ra + rb - math.Abs(t[i])
		if penetration < 0 {
			return manifold.Manifold{}, false
		}
		if penetration < best.penetration {
			var normal mgl64.Vec3
			normal[i] = 1
			best = axis{kind: faceA, i: i, normal: normal, penetration: penetration}
		}
	}

	for j := 0; j < 3; j++ {
		ra := hA[0]*absR[0][j] + hA[1]*absR[1][j] + hA[2]*absR[2][j]
		rb := hB[j]
		d := t[0]*R[0][j] + t[1]*R[1][j] + t[2]*R[2][j]
		penetration := ra + rb - math.Abs(d)
		if penetration < 0 {
			return manifold.Manifold{}, false
		}
		if penetration < best.penetration {
			best = axis{kind: faceB, j: j, normal: mgl64.Vec3{R[0][j], R[1][j], R[2][j]}, penetration: penetration}
		}
	}

	if !parallel {
		for i := 0; i < 3; i++ {
			i1, i2 := (i+1)%3, (i+2)%3
			for j := 0; j < 3; j++ {
				j1, j2 := (j+1)%3, (j+2)%3

				// Axis Ai × Bj
				ra := hA[i1]*absR[i2][j] + hA[i2]*absR[i1][j]
				rb := hB[j1]*absR[i][j2] + hB[j2]*absR[i][j1]
				d := t[i2]*R[i1][j] - t[i1]*R[i2][j]
				penetration := ra + rb - math.Abs(d)
				if penetration < 0 {
					return manifold.Manifold{}, false
				}

				var normal mgl64.Vec3
				normal[i1] = -R[i2][j]
				normal[i2] = R[i1][j]
				lenSqr := normal.LenSqr()
				if lenSqr < minAxisLengthSqr {
					continue
				}

				length := math.Sqrt(lenSqr)
				penetration /= length
				if penetration < best.penetration {
					best = axis{kind: edge, i: i, j: j, normal: normal.Mul(1 / length), penetration: penetration}
				}
			}
		}
	}

	normal := a.Rotation.Rotate(best.normal)
	if normal.Dot(tw) < 0 {
		normal = normal.Mul(-1)
	}

	var m manifold.Manifold
	m.SetNormal(normal)

	switch best.kind {
	case faceA:
		return m, faceContact(&m, a, b, normal)
	case faceB:
		return m, faceContact(&m, b, a, normal.Mul(-1))
	default:
		edgeContact(&m, a, b, best)
		return m, true
	}
}

// faceContact clips the incident box's face against the reference face, whose outward normal
// is referenceNormal. Points are computed in the reference box's local frame.
func faceContact(m *manifold.Manifold, reference, incident actor.OrientedBox, referenceNormal mgl64.Vec3) bool {
	toReference := reference.Rotation.Conjugate()

	local := toReference.Rotate(referenceNormal)
	k := largestComponent(local)
	s := 1.0
	if local[k] < 0 {
		s = -1
	}
	u, v := (k+1)%3, (k+2)%3
	h := reference.HalfExtents

	var sides [4]manifold.Plane
	for n, side := range [2]int{u, v} {
		var normal mgl64.Vec3
		normal[side] = 1
		sides[2*n] = manifold.Plane{Normal: normal, Offset: h[side]}
		sides[2*n+1] = manifold.Plane{Normal: normal.Mul(-1), Offset: h[side]}
	}

	// The incident face is the one most opposed to the reference normal
	incidentNormal := incident.Rotation.Conjugate().Rotate(referenceNormal)
	f := largestComponent(incidentNormal)
	sign := 1.0
	if incidentNormal[f] > 0 {
		sign = -1
	}
	f1, f2 := (f+1)%3, (f+2)%3
	hI := incident.HalfExtents

	var polygon manifold.Polygon
	for _, corner := range [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		var vertex mgl64.Vec3
		vertex[f] = sign * hI[f]
		vertex[f1] = corner[0] * hI[f1]
		vertex[f2] = corner[1] * hI[f2]

		world := incident.Center.Add(incident.Rotation.Rotate(vertex))
		p := toReference.Rotate(world.Sub(reference.Center))
		polygon.Add(manifold.Point{Position: p, Penetration: h[k] - s*p[k]})
	}

	clipped := manifold.ClipPolygonPlanes(polygon, sides[:])

	points := make([]manifold.Point, 0, clipped.Count)
	for _, p := range clipped.Vertices[:clipped.Count] {
		if p.Penetration < 0 {
			continue
		}
		p.Position[k] = s * h[k]
		p.Position = reference.Center.Add(reference.Rotation.Rotate(p.Position))
		points = append(points, p)
	}

	if len(points) == 0 {
		return deepestCorner(m, reference, polygon, k, s)
	}
	m.SetPoints(points)
	return true
}

// deepestCorner handles an incident face lying outside the side planes while another face of the
// incident box dips below the reference face. Its deepest corner is kept, clamped onto the
// reference face.
func deepestCorner(m *manifold.Manifold, reference actor.OrientedBox, polygon manifold.Polygon, k int, s float64) bool {
	deepest := polygon.Vertices[0]
	for _, p := range polygon.Vertices[1:polygon.Count] {
		if p.Penetration > deepest.Penetration {
			deepest = p
		}
	}
	if deepest.Penetration < 0 {
		return false
	}

	h := reference.HalfExtents
	for i := 0; i < 3; i++ {
		deepest.Position[i] = geometry.Clamp(deepest.Position[i], -h[i], h[i])
	}
	deepest.Position[k] = s * h[k]

	m.Add(reference.Center.Add(reference.Rotation.Rotate(deepest.Position)), deepest.Penetration)
	return true
}

// edgeContact places a single point between the edge of A along axis i and the edge of B
// along axis j that are deepest along the normal.
func edgeContact(m *manifold.Manifold, a, b actor.OrientedBox, best axis) {
	a0, a1 := supportEdge(a, best.i, m.Normal)
	b0, b1 := supportEdge(b, best.j, m.Normal.Mul(-1))

	_, _, pa, pb := geometry.ClosestPointsSegmentSegment(a0, a1, b0, b1)
	m.Add(pa.Add(pb).Mul(0.5), best.penetration)
}

// supportEdge returns the edge parallel to the box axis that lies farthest along direction
func supportEdge(box actor.OrientedBox, axis int, direction mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	axes := box.Axes()

	center := box.Center
	for u := 0; u < 3; u++ {
		if u == axis {
			continue
		}
		offset := axes[u].Mul(box.HalfExtents[u])
		if axes[u].Dot(direction) < 0 {
			offset = offset.Mul(-1)
		}
		center = center.Add(offset)
	}

	half := axes[axis].Mul(box.HalfExtents[axis])
	return center.Sub(half), center.Add(half)
}

func largestComponent(v mgl64.Vec3) int {
	x, y, z := math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])
	if x > y {
		if x > z {
			return 0
		}
		return 2
	}
	if y > z {
		return 1
	}
	return 2
}
