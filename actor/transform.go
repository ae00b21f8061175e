package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform places a body frame in world space
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}
}

// Apply maps a body-local point to world space
func (t Transform) Apply(point mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(point).Add(t.Position)
}

// ApplyInverse maps a world-space point to body-local space
func (t Transform) ApplyInverse(point mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Conjugate().Rotate(point.Sub(t.Position))
}

// isIdentityRotation reports whether q leaves vectors unchanged, for either sign of W
func isIdentityRotation(q mgl64.Quat) bool {
	return q.V.LenSqr() < 1e-18
}
