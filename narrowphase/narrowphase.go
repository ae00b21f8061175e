// Package narrowphase routes a pair of shapes to the intersection test written for their types.
//
// Shape types are ordered (sphere < capsule < box < oriented box) and every pair is normalized
// so the lower type comes first, leaving ten tests for the sixteen ordered combinations:
//   - closed form for sphere, capsule and axis-aligned box pairs
//   - local frame of the oriented box for sphere/obb and capsule/obb
//   - GJK + EPA for capsule/box
//   - SAT for box/obb and obb/obb
package narrowphase

import (
	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/epa"
	"github.com/akmonengine/impact/manifold"
	"github.com/akmonengine/impact/sat"
	"github.com/go-gl/mathgl/mgl64"
)

// parallelThreshold flags two segments as parallel (|cos| above it)
const parallelThreshold = 0.99

// fallbackNormal is used when two centers coincide
var fallbackNormal = mgl64.Vec3{0, 1, 0}

type Settings struct {
	EPA epa.Options
	SAT sat.Settings
}

func DefaultSettings() Settings {
	return Settings{
		EPA: epa.DefaultOptions(),
		SAT: sat.DefaultSettings(),
	}
}

// test is a pair test taking its shapes in ascending type order
type test func(a, b actor.Shape, settings Settings) (manifold.Manifold, bool, error)

var tests = [actor.ShapeTypeCount][actor.ShapeTypeCount]test{
	actor.ShapeTypeSphere: {
		actor.ShapeTypeSphere:      closedForm(SphereSphere),
		actor.ShapeTypeCapsule:     closedForm(SphereCapsule),
		actor.ShapeTypeBox:         closedForm(SphereBox),
		actor.ShapeTypeOrientedBox: closedForm(SphereOrientedBox),
	},
	actor.ShapeTypeCapsule: {
		actor.ShapeTypeCapsule:     closedForm(CapsuleCapsule),
		actor.ShapeTypeBox:         withSettings(CapsuleBox),
		actor.ShapeTypeOrientedBox: withSettings(CapsuleOrientedBox),
	},
	actor.ShapeTypeBox: {
		actor.ShapeTypeBox: closedForm(BoxBox),
		actor.ShapeTypeOrientedBox: func(a, b actor.Shape, settings Settings) (manifold.Manifold, bool, error) {
			m, ok := BoxOrientedBox(a.(actor.Box), b.(actor.OrientedBox), settings.SAT)
			return m, ok, nil
		},
	},
	actor.ShapeTypeOrientedBox: {
		actor.ShapeTypeOrientedBox: func(a, b actor.Shape, settings Settings) (manifold.Manifold, bool, error) {
			m, ok := sat.Intersect(a.(actor.OrientedBox), b.(actor.OrientedBox), settings.SAT)
			return m, ok, nil
		},
	},
}

func closedForm[A, B actor.Shape](fn func(A, B) (manifold.Manifold, bool)) test {
	return func(a, b actor.Shape, _ Settings) (manifold.Manifold, bool, error) {
		m, ok := fn(a.(A), b.(B))
		return m, ok, nil
	}
}

func withSettings[A, B actor.Shape](fn func(A, B, Settings) (manifold.Manifold, bool, error)) test {
	return func(a, b actor.Shape, settings Settings) (manifold.Manifold, bool, error) {
		return fn(a.(A), b.(B), settings)
	}
}

// Collide tests two shapes given in world space. The manifold normal points from a to b.
//
// A separated pair returns false with a nil error. An error means the penetration query
// failed (see epa): the pair should be treated as non-colliding for this step.
func Collide(a, b actor.Shape, settings Settings) (manifold.Manifold, bool, error) {
	if a.Type() > b.Type() {
		m, ok, err := tests[b.Type()][a.Type()](b, a, settings)
		if ok {
			m.Flip()
		}
		return m, ok, err
	}

	return tests[a.Type()][b.Type()](a, b, settings)
}

// toLocal moves point into the frame of a box rotated by rotation around center, keeping the
// center in place. Manifold.RotateAbout(rotation, center) is the inverse.
func toLocal(point, center mgl64.Vec3, rotation mgl64.Quat) mgl64.Vec3 {
	return center.Add(rotation.Conjugate().Rotate(point.Sub(center)))
}

// localBox is the oriented box expressed in its own frame, around its center
func localBox(o actor.OrientedBox) actor.Box {
	return actor.NewBox(o.Center, o.HalfExtents)
}
