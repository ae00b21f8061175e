package narrowphase

import (
	"math"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/epa"
	"github.com/akmonengine/impact/geometry"
	"github.com/akmonengine/impact/gjk"
	"github.com/akmonengine/impact/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// axisAlignedThreshold: a normal with a component above it is treated as a box face normal
	axisAlignedThreshold = 0.99
	// flatThreshold: a capsule axis with |cos| below it lies flat on the face
	flatThreshold = 0.01
)

// CapsuleCapsule tests two capsules. Near-parallel segments produce up to two points over their
// overlapping interval, others a single point between the closest points of the segments.
func CapsuleCapsule(a, b actor.Capsule) (manifold.Manifold, bool) {
	axisA := a.B.Sub(a.A)
	axisB := b.B.Sub(b.A)
	lenA, lenB := axisA.Len(), axisB.Len()

	if lenA > geometry.Epsilon && lenB > geometry.Epsilon {
		axisA = axisA.Mul(1 / lenA)
		if math.Abs(axisA.Dot(axisB.Mul(1/lenB))) > parallelThreshold {
			return parallelCapsules(a, b, axisA, lenA)
		}
	}

	_, _, closestA, closestB := geometry.ClosestPointsSegmentSegment(a.A, a.B, b.A, b.B)
	return spheres(closestA, a.Radius, closestB, b.Radius)
}

// parallelCapsules projects b's segment on a's axis. Overlapping intervals give a contact at
// each end of the overlap that lies within the radii, disjoint ones fall back to the nearest
// endpoints.
func parallelCapsules(a, b actor.Capsule, axis mgl64.Vec3, length float64) (manifold.Manifold, bool) {
	b0, b1 := b.A, b.B
	t0, t1 := b0.Sub(a.A).Dot(axis), b1.Sub(a.A).Dot(axis)
	if t0 > t1 {
		b0, b1 = b1, b0
		t0, t1 = t1, t0
	}

	switch {
	case t1 < 0:
		return spheres(a.A, a.Radius, b1, b.Radius)
	case t0 > length:
		return spheres(a.B, a.Radius, b0, b.Radius)
	}

	lo, hi := math.Max(0, t0), math.Min(length, t1)
	pointsA := [2]mgl64.Vec3{a.A.Add(axis.Mul(lo)), a.A.Add(axis.Mul(hi))}
	count := 2
	if hi-lo < geometry.Epsilon {
		count = 1
	}

	var pointsB [2]mgl64.Vec3
	for i := 0; i < count; i++ {
		pointsB[i] = geometry.ClosestPointOnSegment(pointsA[i], b.A, b.B)
	}

	var m manifold.Manifold
	radiusSum := a.Radius + b.Radius
	for i := 0; i < count; i++ {
		delta := pointsB[i].Sub(pointsA[i])
		if delta.LenSqr() > radiusSum*radiusSum {
			continue
		}
		if m.Count == 0 {
			m.SetNormal(geometry.Normalize(delta, geometry.Perpendicular(axis)))
		}

		surfaceA := pointsA[i].Add(m.Normal.Mul(a.Radius))
		surfaceB := pointsB[i].Sub(m.Normal.Mul(b.Radius))
		m.Add(surfaceA.Add(surfaceB).Mul(0.5), radiusSum-delta.Len())
	}

	return m, m.Count > 0
}

// CapsuleBox runs GJK and EPA. A capsule lying flat on a face gets a second point: its segment,
// pushed to the surface, is clipped against the side planes of that face.
func CapsuleBox(a actor.Capsule, b actor.Box, settings Settings) (manifold.Manifold, bool, error) {
	var m manifold.Manifold

	var simplex gjk.Simplex
	if !gjk.GJK(a, b, &simplex) {
		return m, false, nil
	}

	result, err := epa.EPA(a, b, &simplex, settings.EPA)
	if err != nil {
		return m, false, err
	}

	m.SetNormal(result.Normal)
	if !clipCapsuleOnFace(&m, a, b) {
		m.Add(result.Point, result.Depth)
	}
	return m, true, nil
}

// CapsuleOrientedBox runs CapsuleBox in the box's local frame
func CapsuleOrientedBox(a actor.Capsule, b actor.OrientedBox, settings Settings) (manifold.Manifold, bool, error) {
	local := actor.Capsule{
		A:      toLocal(a.A, b.Center, b.Rotation),
		B:      toLocal(a.B, b.Center, b.Rotation),
		Radius: a.Radius,
	}

	m, ok, err := CapsuleBox(local, localBox(b), settings)
	if ok {
		m.RotateAbout(b.Rotation, b.Center)
	}
	return m, ok, err
}

// clipCapsuleOnFace adds the clipped capsule segment to m when the normal is a face normal of
// the box and the capsule lies flat on that face. It reports whether points were added.
func clipCapsuleOnFace(m *manifold.Manifold, a actor.Capsule, b actor.Box) bool {
	normal := m.Normal

	k := -1
	for i := 0; i < 3; i++ {
		if math.Abs(normal[i]) > axisAlignedThreshold {
			k = i
		}
	}
	if k < 0 {
		return false
	}

	axis := a.B.Sub(a.A)
	length := axis.Len()
	if length < geometry.Epsilon || math.Abs(normal.Dot(axis)/length) >= flatThreshold {
		return false
	}

	// Reference face of the box, its outward normal facing the capsule
	reference := manifold.NewPlane(b.Support(normal.Mul(-1)), normal.Mul(-1))

	var sides []manifold.Plane
	for _, u := range [2]int{(k + 1) % 3, (k + 2) % 3} {
		var e mgl64.Vec3
		e[u] = 1
		sides = append(sides,
			manifold.Plane{Normal: e, Offset: -b.Min[u]},
			manifold.Plane{Normal: e.Mul(-1), Offset: b.Max[u]},
		)
	}

	pa := a.A.Add(normal.Mul(a.Radius))
	pb := a.B.Add(normal.Mul(a.Radius))
	start := manifold.Point{Position: pa, Penetration: -reference.SignedDistance(pa)}
	end := manifold.Point{Position: pb, Penetration: -reference.SignedDistance(pb)}

	start, end, ok := manifold.ClipSegment(start, end, sides)
	if !ok {
		return false
	}

	added := false
	for _, p := range [2]manifold.Point{start, end} {
		if p.Penetration < 0 {
			continue
		}
		// Onto the face
		m.Add(p.Position.Add(reference.Normal.Mul(p.Penetration)), p.Penetration)
		added = true
	}
	return added
}
