package actor

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable: zero inverse mass and zero inverse inertia
	BodyTypeStatic
)

// RigidBody holds the global state the collision core reads and the solver mutates.
// Transform locates the body frame; mass properties are derived from the attached colliders.
type RigidBody struct {
	Transform Transform

	Velocity        mgl64.Vec3 // Linear velocity of the center of mass (m/s)
	AngularVelocity mgl64.Vec3 // rad/s

	InverseMass         float64
	InverseInertiaLocal mgl64.Mat3
	// LocalCenterOfMass is the center of mass in the body frame
	LocalCenterOfMass mgl64.Vec3

	GravityFactor  float64
	LinearDamping  float64
	AngularDamping float64

	BodyType  BodyType
	Colliders []*Collider

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3
}

// NewRigidBody creates a body without colliders. Dynamic bodies start with unit mass until
// colliders are attached.
func NewRigidBody(transform Transform, bodyType BodyType) *RigidBody {
	rb := &RigidBody{
		Transform:     transform,
		BodyType:      bodyType,
		GravityFactor: 1,
	}

	if bodyType == BodyTypeDynamic {
		rb.InverseMass = 1
		rb.InverseInertiaLocal = mgl64.Ident3()
	}

	return rb
}

// AddCollider attaches a body-local shape to the body and recomputes its mass properties
func (rb *RigidBody) AddCollider(shape Shape, material Material) *Collider {
	collider := &Collider{
		Shape:    shape,
		Material: material,
		Body:     rb,
	}
	rb.Colliders = append(rb.Colliders, collider)
	rb.RecalculateMassProperties()
	collider.UpdateWorldShape()

	return collider
}

// RecalculateMassProperties combines the colliders' mass properties into the body's inverse
// mass, center of mass and inverse inertia. Static bodies keep zero inverse mass.
func (rb *RigidBody) RecalculateMassProperties() {
	if rb.BodyType == BodyTypeStatic {
		rb.InverseMass = 0
		rb.InverseInertiaLocal = mgl64.Mat3{}
		return
	}

	properties := make([]MassProperties, 0, len(rb.Colliders))
	var mass float64
	var center mgl64.Vec3
	for _, collider := range rb.Colliders {
		p := collider.Shape.MassProperties(collider.Material.Density)
		properties = append(properties, p)
		mass += p.Mass
		center = center.Add(p.Center.Mul(p.Mass))
	}

	if mass <= 0 {
		return
	}

	center = center.Mul(1 / mass)

	// Parallel axis theorem, every shape shares the body frame orientation
	var inertia mgl64.Mat3
	for _, p := range properties {
		r := p.Center.Sub(center)
		shift := mgl64.Ident3().Mul(r.Dot(r)).Sub(outerProduct(r, r)).Mul(p.Mass)
		inertia = inertia.Add(p.Inertia).Add(shift)
	}

	rb.InverseMass = 1 / mass
	rb.LocalCenterOfMass = center
	rb.InverseInertiaLocal = inertia.Inv()
}

func (rb *RigidBody) GetMass() float64 {
	if rb.InverseMass == 0 {
		return 0
	}
	return 1 / rb.InverseMass
}

// CenterOfMass returns the world-space center of mass
func (rb *RigidBody) CenterOfMass() mgl64.Vec3 {
	return rb.Transform.Apply(rb.LocalCenterOfMass)
}

// GetInverseInertiaWorld returns R * I_local^-1 * R^T
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.BodyType == BodyTypeStatic {
		return mgl64.Mat3{}
	}

	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}

// PointVelocity returns the world velocity of a world-space point rigidly attached to the body
func (rb *RigidBody) PointVelocity(point mgl64.Vec3) mgl64.Vec3 {
	return rb.Velocity.Add(rb.AngularVelocity.Cross(point.Sub(rb.CenterOfMass())))
}

// ApplyImpulse changes the velocities by an impulse applied at offset r from the center of mass.
// invInertia is the world-space inverse inertia.
func (rb *RigidBody) ApplyImpulse(impulse, r mgl64.Vec3, invInertia mgl64.Mat3) {
	if rb.InverseMass == 0 {
		return
	}
	rb.Velocity = rb.Velocity.Add(impulse.Mul(rb.InverseMass))
	rb.AngularVelocity = rb.AngularVelocity.Add(invInertia.Mul3x1(r.Cross(impulse)))
}

// IntegrateForces applies gravity, accumulated forces and damping to the velocities
// (semi-implicit Euler, first half).
func (rb *RigidBody) IntegrateForces(dt float64, gravity mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic || rb.InverseMass == 0 {
		return
	}

	linearAcceleration := gravity.Mul(rb.GravityFactor).Add(rb.accumulatedForce.Mul(rb.InverseMass))
	angularAcceleration := rb.GetInverseInertiaWorld().Mul3x1(rb.accumulatedTorque)

	rb.Velocity = rb.Velocity.Add(linearAcceleration.Mul(dt))
	rb.AngularVelocity = rb.AngularVelocity.Add(angularAcceleration.Mul(dt))

	rb.Velocity = rb.Velocity.Mul(1 / (1 + dt*rb.LinearDamping))
	rb.AngularVelocity = rb.AngularVelocity.Mul(1 / (1 + dt*rb.AngularDamping))
}

// IntegrateVelocity moves the body by its solved velocities (semi-implicit Euler, second half)
// and clears the accumulated forces.
func (rb *RigidBody) IntegrateVelocity(dt float64) {
	rb.ClearForces()
	if rb.BodyType == BodyTypeStatic {
		return
	}

	center := rb.CenterOfMass().Add(rb.Velocity.Mul(dt))

	omega := mgl64.Quat{V: rb.AngularVelocity.Mul(0.5), W: 0}
	qDot := omega.Mul(rb.Transform.Rotation)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()

	rb.Transform.Position = center.Sub(rb.Transform.Rotation.Rotate(rb.LocalCenterOfMass))
}

// AddForce accumulates a force (N) applied at the center of mass until the next step
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.BodyType != BodyTypeStatic {
		rb.accumulatedForce = rb.accumulatedForce.Add(force)
	}
}

// AddTorque accumulates a torque (N⋅m) until the next step
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.BodyType != BodyTypeStatic {
		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	}
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

func outerProduct(a, b mgl64.Vec3) mgl64.Mat3 {
	// column-major: column j is a * b[j]
	return mgl64.Mat3{
		a[0] * b[0], a[1] * b[0], a[2] * b[0],
		a[0] * b[1], a[1] * b[1], a[2] * b[1],
		a[0] * b[2], a[1] * b[2], a[2] * b[2],
	}
}
