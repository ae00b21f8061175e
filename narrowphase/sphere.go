package narrowphase

import (
	"math"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/geometry"
	"github.com/akmonengine/impact/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

// spheres tests the spheres (ca, ra) and (cb, rb). The contact point lies halfway between the
// two surface points.
func spheres(ca mgl64.Vec3, ra float64, cb mgl64.Vec3, rb float64) (manifold.Manifold, bool) {
	var m manifold.Manifold

	delta := cb.Sub(ca)
	distSqr := delta.LenSqr()
	radiusSum := ra + rb
	if distSqr > radiusSum*radiusSum {
		return m, false
	}

	dist := math.Sqrt(distSqr)
	normal := fallbackNormal
	if dist > geometry.Epsilon {
		normal = delta.Mul(1 / dist)
	}

	m.SetNormal(normal)
	surfaceA := ca.Add(normal.Mul(ra))
	surfaceB := cb.Sub(normal.Mul(rb))
	m.Add(surfaceA.Add(surfaceB).Mul(0.5), radiusSum-dist)

	return m, true
}

func SphereSphere(a, b actor.Sphere) (manifold.Manifold, bool) {
	return spheres(a.Center, a.Radius, b.Center, b.Radius)
}

// SphereCapsule tests the sphere against the capsule's segment point closest to its center
func SphereCapsule(a actor.Sphere, b actor.Capsule) (manifold.Manifold, bool) {
	closest := geometry.ClosestPointOnSegment(a.Center, b.A, b.B)
	return spheres(a.Center, a.Radius, closest, b.Radius)
}

// SphereBox tests a sphere against an axis-aligned box. A center inside the box is pushed out
// through the nearest face.
func SphereBox(a actor.Sphere, b actor.Box) (manifold.Manifold, bool) {
	var m manifold.Manifold

	closest := geometry.ClosestPointOnAABB(a.Center, b.Min, b.Max)
	delta := closest.Sub(a.Center)
	distSqr := delta.LenSqr()
	if distSqr > a.Radius*a.Radius {
		return m, false
	}

	if distSqr > geometry.Epsilon*geometry.Epsilon {
		dist := math.Sqrt(distSqr)
		normal := delta.Mul(1 / dist)

		m.SetNormal(normal)
		m.Add(closest.Add(a.Center).Add(normal.Mul(a.Radius)).Mul(0.5), a.Radius-dist)
		return m, true
	}

	// Center inside: find the nearest face
	axis, side := 0, 1.0
	nearest := math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := b.Max[i] - a.Center[i]; d < nearest {
			axis, side, nearest = i, 1, d
		}
		if d := a.Center[i] - b.Min[i]; d < nearest {
			axis, side, nearest = i, -1, d
		}
	}

	// The sphere leaves through that face, the box is pushed the other way
	var normal mgl64.Vec3
	normal[axis] = -side
	face := a.Center
	face[axis] += side * nearest

	m.SetNormal(normal)
	m.Add(face.Add(a.Center).Add(normal.Mul(a.Radius)).Mul(0.5), a.Radius+nearest)
	return m, true
}

// SphereOrientedBox runs SphereBox in the box's local frame
func SphereOrientedBox(a actor.Sphere, b actor.OrientedBox) (manifold.Manifold, bool) {
	local := actor.Sphere{Center: toLocal(a.Center, b.Center, b.Rotation), Radius: a.Radius}

	m, ok := SphereBox(local, localBox(b))
	if ok {
		m.RotateAbout(b.Rotation, b.Center)
	}
	return m, ok
}
