package actor

import (
	"math"

	"github.com/akmonengine/impact/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType tags the primitive behind a Shape.
// The declaration order is the narrow-phase ordering: pair tests always take the lower type first.
type ShapeType uint8

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeCapsule
	ShapeTypeBox
	ShapeTypeOrientedBox

	// ShapeTypeCount is the number of primitive types
	ShapeTypeCount
)

var shapeTypeNames = [ShapeTypeCount]string{"sphere", "capsule", "box", "oriented box"}

func (t ShapeType) String() string {
	if t < ShapeTypeCount {
		return shapeTypeNames[t]
	}
	return "unknown"
}

// MassProperties describes the mass distribution of a shape for a given density.
// Inertia is expressed around Center, in the frame the shape is described in.
type MassProperties struct {
	Mass    float64
	Center  mgl64.Vec3
	Inertia mgl64.Mat3
}

// Shape is the closed set of collision primitives: Sphere, Capsule, Box and OrientedBox.
type Shape interface {
	Type() ShapeType
	// Support returns the farthest point of the shape along direction
	Support(direction mgl64.Vec3) mgl64.Vec3
	// Bounds returns the axis-aligned box enclosing the shape
	Bounds() AABB
	MassProperties(density float64) MassProperties
	// Transformed moves the shape from a body frame to world space
	Transformed(transform Transform) Shape

	sealed()
}

// fallbackDirection is used by support functions queried with a zero direction
var fallbackDirection = mgl64.Vec3{1, 0, 0}

// Sphere is a ball around Center
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

func (s Sphere) Type() ShapeType { return ShapeTypeSphere }

func (s Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return s.Center.Add(geometry.Normalize(direction, fallbackDirection).Mul(s.Radius))
}

func (s Sphere) Bounds() AABB {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
}

func (s Sphere) MassProperties(density float64) MassProperties {
	mass := 4.0 / 3.0 * math.Pi * s.Radius * s.Radius * s.Radius * density
	i := 2.0 / 5.0 * mass * s.Radius * s.Radius

	return MassProperties{
		Mass:   mass,
		Center: s.Center,
		Inertia: mgl64.Mat3{
			i, 0, 0,
			0, i, 0,
			0, 0, i,
		},
	}
}

func (s Sphere) Transformed(transform Transform) Shape {
	return Sphere{Center: transform.Apply(s.Center), Radius: s.Radius}
}

func (Sphere) sealed() {}

// Capsule is the set of points within Radius of the segment [A, B]
type Capsule struct {
	A, B   mgl64.Vec3
	Radius float64
}

func (c Capsule) Type() ShapeType { return ShapeTypeCapsule }

func (c Capsule) Support(direction mgl64.Vec3) mgl64.Vec3 {
	farther := c.B
	if direction.Dot(c.A) > direction.Dot(c.B) {
		farther = c.A
	}
	return farther.Add(geometry.Normalize(direction, fallbackDirection).Mul(c.Radius))
}

func (c Capsule) Bounds() AABB {
	r := mgl64.Vec3{c.Radius, c.Radius, c.Radius}
	segment := AABB{Min: c.A, Max: c.A}.Union(AABB{Min: c.B, Max: c.B})
	return AABB{Min: segment.Min.Sub(r), Max: segment.Max.Add(r)}
}

// MassProperties treats the capsule as a cylinder along [A, B] plus two hemispherical caps.
func (c Capsule) MassProperties(density float64) MassProperties {
	axis := c.A.Sub(c.B)
	if axis.Y() < 0 {
		axis = axis.Mul(-1)
	}
	height := axis.Len()

	r2 := c.Radius * c.Radius
	cylinderMass := density * math.Pi * r2 * height
	hemisphereMass := density * 2.0 / 3.0 * math.Pi * r2 * c.Radius

	// Local frame: the capsule axis is Y
	iy := r2 * cylinderMass * 0.5
	ixz := iy*0.5 + cylinderMass*height*height/12.0

	capInertia := hemisphereMass * 2.0 * r2 / 5.0
	iy += capInertia * 2.0
	offset := height * 0.5
	capOffset := capInertia + hemisphereMass*(offset*offset+3.0/8.0*height*c.Radius)
	ixz += capOffset * 2.0

	inertia := mgl64.Mat3{
		ixz, 0, 0,
		0, iy, 0,
		0, 0, ixz,
	}

	if height > geometry.Epsilon {
		rot := mgl64.QuatBetweenVectors(mgl64.Vec3{0, 1, 0}, axis.Mul(1/height)).Mat4().Mat3()
		inertia = rot.Mul3(inertia).Mul3(rot.Transpose())
	}

	return MassProperties{
		Mass:    cylinderMass + 2*hemisphereMass,
		Center:  c.A.Add(c.B).Mul(0.5),
		Inertia: inertia,
	}
}

func (c Capsule) Transformed(transform Transform) Shape {
	return Capsule{A: transform.Apply(c.A), B: transform.Apply(c.B), Radius: c.Radius}
}

func (Capsule) sealed() {}

// Box is an axis-aligned box given by its corners
type Box struct {
	Min, Max mgl64.Vec3
}

// NewBox creates an axis-aligned box from its center and half-extents
func NewBox(center, halfExtents mgl64.Vec3) Box {
	return Box{Min: center.Sub(halfExtents), Max: center.Add(halfExtents)}
}

func (b Box) Type() ShapeType { return ShapeTypeBox }

func (b Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	support := b.Max
	for i := 0; i < 3; i++ {
		if direction[i] < 0 {
			support[i] = b.Min[i]
		}
	}
	return support
}

func (b Box) Bounds() AABB {
	return AABB{Min: b.Min, Max: b.Max}
}

func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Box) HalfExtents() mgl64.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

func (b Box) MassProperties(density float64) MassProperties {
	size := b.Max.Sub(b.Min)
	mass := size.X() * size.Y() * size.Z() * density

	return MassProperties{
		Mass:    mass,
		Center:  b.Center(),
		Inertia: boxInertia(mass, size),
	}
}

// Transformed keeps the box axis-aligned under a pure translation. Any rotation turns it
// into an OrientedBox.
func (b Box) Transformed(transform Transform) Shape {
	if isIdentityRotation(transform.Rotation) {
		return Box{Min: b.Min.Add(transform.Position), Max: b.Max.Add(transform.Position)}
	}

	return OrientedBox{
		Center:      transform.Apply(b.Center()),
		HalfExtents: b.HalfExtents(),
		Rotation:    transform.Rotation,
	}
}

// Oriented converts the box into an OrientedBox with identity rotation
func (b Box) Oriented() OrientedBox {
	return OrientedBox{Center: b.Center(), HalfExtents: b.HalfExtents(), Rotation: mgl64.QuatIdent()}
}

func (Box) sealed() {}

// OrientedBox is a box of HalfExtents around Center, rotated by Rotation
type OrientedBox struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Rotation    mgl64.Quat
}

func (o OrientedBox) Type() ShapeType { return ShapeTypeOrientedBox }

func (o OrientedBox) Support(direction mgl64.Vec3) mgl64.Vec3 {
	local := o.Rotation.Conjugate().Rotate(direction)

	corner := o.HalfExtents
	for i := 0; i < 3; i++ {
		if local[i] < 0 {
			corner[i] = -corner[i]
		}
	}

	return o.Center.Add(o.Rotation.Rotate(corner))
}

func (o OrientedBox) Bounds() AABB {
	rot := o.Rotation.Mat4().Mat3()

	var extents mgl64.Vec3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			extents[i] += math.Abs(rot.At(i, j)) * o.HalfExtents[j]
		}
	}

	return AABB{Min: o.Center.Sub(extents), Max: o.Center.Add(extents)}
}

// Axes returns the box's local X, Y and Z axes in world space
func (o OrientedBox) Axes() [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{
		o.Rotation.Rotate(mgl64.Vec3{1, 0, 0}),
		o.Rotation.Rotate(mgl64.Vec3{0, 1, 0}),
		o.Rotation.Rotate(mgl64.Vec3{0, 0, 1}),
	}
}

func (o OrientedBox) MassProperties(density float64) MassProperties {
	size := o.HalfExtents.Mul(2)
	mass := size.X() * size.Y() * size.Z() * density

	rot := o.Rotation.Mat4().Mat3()
	return MassProperties{
		Mass:    mass,
		Center:  o.Center,
		Inertia: rot.Mul3(boxInertia(mass, size)).Mul3(rot.Transpose()),
	}
}

func (o OrientedBox) Transformed(transform Transform) Shape {
	return OrientedBox{
		Center:      transform.Apply(o.Center),
		HalfExtents: o.HalfExtents,
		Rotation:    transform.Rotation.Mul(o.Rotation).Normalize(),
	}
}

func (OrientedBox) sealed() {}

// boxInertia is the inertia tensor of a solid box of full size (x, y, z): I = m/12 * (d1² + d2²)
func boxInertia(mass float64, size mgl64.Vec3) mgl64.Mat3 {
	x, y, z := size.X(), size.Y(), size.Z()
	factor := mass / 12.0

	return mgl64.Mat3{
		factor * (y*y + z*z), 0, 0,
		0, factor * (x*x + z*z), 0,
		0, 0, factor * (x*x + y*y),
	}
}
