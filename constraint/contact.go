package constraint

import (
	"math"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/geometry"
	"github.com/akmonengine/impact/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactPoint is one point of a contact constraint, with everything the solver precomputes
// for it and the impulses accumulated over the iterations.
type ContactPoint struct {
	Position    mgl64.Vec3
	Penetration float64

	// Anchors relative to each body's center of mass
	RelativeA mgl64.Vec3
	RelativeB mgl64.Vec3
	Tangent   mgl64.Vec3

	NormalMass  float64
	TangentMass float64
	// Bias is the target separating velocity: restitution plus penetration correction
	Bias float64

	NormalImpulse  float64
	TangentImpulse float64
}

// ContactConstraint keeps two bodies from interpenetrating along Normal (from A to B), with
// Coulomb friction.
type ContactConstraint struct {
	BodyA  *actor.RigidBody
	BodyB  *actor.RigidBody
	Normal mgl64.Vec3
	Points []ContactPoint

	Friction    float64
	Restitution float64

	invInertiaA mgl64.Mat3
	invInertiaB mgl64.Mat3
}

// NewContactConstraint prepares a constraint from a manifold: anchors, tangent directions,
// effective masses and velocity bias for every point.
func NewContactConstraint(bodyA, bodyB *actor.RigidBody, m manifold.Manifold, friction, restitution, dt float64, settings Settings) *ContactConstraint {
	c := &ContactConstraint{
		BodyA:       bodyA,
		BodyB:       bodyB,
		Normal:      m.Normal,
		Points:      make([]ContactPoint, 0, m.Count),
		Friction:    friction,
		Restitution: restitution,
		invInertiaA: bodyA.GetInverseInertiaWorld(),
		invInertiaB: bodyB.GetInverseInertiaWorld(),
	}

	centerA := bodyA.CenterOfMass()
	centerB := bodyB.CenterOfMass()

	for _, p := range m.Contacts() {
		point := ContactPoint{
			Position:    p.Position,
			Penetration: p.Penetration,
			RelativeA:   p.Position.Sub(centerA),
			RelativeB:   p.Position.Sub(centerB),
		}

		relativeVelocity := c.relativeVelocity(&point)

		// Friction opposes the sliding direction, any tangent works when not sliding
		normalVelocity := relativeVelocity.Dot(c.Normal)
		point.Tangent = geometry.Normalize(relativeVelocity.Sub(c.Normal.Mul(normalVelocity)), m.Tangent)

		point.NormalMass = c.effectiveMass(&point, c.Normal)
		point.TangentMass = c.effectiveMass(&point, point.Tangent)

		if dt > minTimestep && p.Penetration > settings.Slop && normalVelocity < 0 {
			point.Bias = -restitution*normalVelocity + settings.BaumgarteFactor*(p.Penetration-settings.Slop)/dt
		}

		c.Points = append(c.Points, point)
	}

	return c
}

// effectiveMass returns 1 / (invMassA + invMassB + angular terms) along direction, 0 when both
// bodies are immovable.
func (c *ContactConstraint) effectiveMass(point *ContactPoint, direction mgl64.Vec3) float64 {
	crossA := point.RelativeA.Cross(direction)
	crossB := point.RelativeB.Cross(direction)

	inverse := c.BodyA.InverseMass + c.BodyB.InverseMass +
		crossA.Dot(c.invInertiaA.Mul3x1(crossA)) +
		crossB.Dot(c.invInertiaB.Mul3x1(crossB))
	if inverse == 0 {
		return 0
	}
	return 1 / inverse
}

func (c *ContactConstraint) relativeVelocity(point *ContactPoint) mgl64.Vec3 {
	velocityA := c.BodyA.Velocity.Add(c.BodyA.AngularVelocity.Cross(point.RelativeA))
	velocityB := c.BodyB.Velocity.Add(c.BodyB.AngularVelocity.Cross(point.RelativeB))
	return velocityB.Sub(velocityA)
}

// applyImpulse pushes B along impulse and A the opposite way
func (c *ContactConstraint) applyImpulse(point *ContactPoint, impulse mgl64.Vec3) {
	c.BodyA.ApplyImpulse(impulse.Mul(-1), point.RelativeA, c.invInertiaA)
	c.BodyB.ApplyImpulse(impulse, point.RelativeB, c.invInertiaB)
}

// SolveVelocity runs one pass over the points: friction first, bounded by the normal impulse
// accumulated so far, then the non-penetration impulse.
func (c *ContactConstraint) SolveVelocity() {
	if c.BodyA.InverseMass == 0 && c.BodyB.InverseMass == 0 {
		return
	}

	for i := range c.Points {
		point := &c.Points[i]

		// Friction
		vt := c.relativeVelocity(point).Dot(point.Tangent)
		lambda := -point.TangentMass * vt

		maxFriction := c.Friction * point.NormalImpulse
		impulse := geometry.Clamp(point.TangentImpulse+lambda, -maxFriction, maxFriction)
		lambda = impulse - point.TangentImpulse
		point.TangentImpulse = impulse
		c.applyImpulse(point, point.Tangent.Mul(lambda))

		// Non-penetration
		vn := c.relativeVelocity(point).Dot(c.Normal)
		lambda = -point.NormalMass * (vn - point.Bias)

		impulse = math.Max(point.NormalImpulse+lambda, 0)
		lambda = impulse - point.NormalImpulse
		point.NormalImpulse = impulse
		c.applyImpulse(point, c.Normal.Mul(lambda))
	}
}
