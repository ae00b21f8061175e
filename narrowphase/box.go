package narrowphase

import (
	"math"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/manifold"
	"github.com/akmonengine/impact/sat"
	"github.com/go-gl/mathgl/mgl64"
)

// BoxBox tests two axis-aligned boxes. The axis of least overlap gives the normal, the four
// corners of the overlap rectangle, on the plane halfway through the overlap, give the points.
func BoxBox(a, b actor.Box) (manifold.Manifold, bool) {
	var m manifold.Manifold

	delta := b.Center().Sub(a.Center())
	halfA, halfB := a.HalfExtents(), b.HalfExtents()

	axis := 0
	penetration := math.Inf(1)
	for i := 0; i < 3; i++ {
		overlap := halfA[i] + halfB[i] - math.Abs(delta[i])
		if overlap < 0 {
			return m, false
		}
		if overlap < penetration {
			axis, penetration = i, overlap
		}
	}

	var normal mgl64.Vec3
	plane := a.Min[axis] + penetration*0.5
	if delta[axis] >= 0 {
		normal[axis] = 1
		plane = a.Max[axis] - penetration*0.5
	} else {
		normal[axis] = -1
	}
	m.SetNormal(normal)

	u, v := (axis+1)%3, (axis+2)%3
	lo := mgl64.Vec3{math.Max(a.Min[0], b.Min[0]), math.Max(a.Min[1], b.Min[1]), math.Max(a.Min[2], b.Min[2])}
	hi := mgl64.Vec3{math.Min(a.Max[0], b.Max[0]), math.Min(a.Max[1], b.Max[1]), math.Min(a.Max[2], b.Max[2])}

	for _, corner := range [4][2]bool{{false, false}, {true, false}, {true, true}, {false, true}} {
		var p mgl64.Vec3
		p[axis] = plane
		p[u], p[v] = lo[u], lo[v]
		if corner[0] {
			p[u] = hi[u]
		}
		if corner[1] {
			p[v] = hi[v]
		}
		m.Add(p, penetration)
	}

	return m, true
}

// BoxOrientedBox runs the separating axis test with the box given an identity rotation
func BoxOrientedBox(a actor.Box, b actor.OrientedBox, settings sat.Settings) (manifold.Manifold, bool) {
	return sat.Intersect(a.Oriented(), b, settings)
}
