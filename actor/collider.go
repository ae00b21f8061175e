package actor

import "math"

// Material describes the surface and bulk properties of a collider
type Material struct {
	Restitution float64 // 0 = no rebound, 1 = perfect rebound
	Friction    float64 // Coulomb coefficient
	Density     float64 // kg/m³, only used for dynamic bodies
}

// CombineFriction returns the friction of a contact between two materials: the geometric mean.
// Coefficients above 1 are kept for high grip surfaces.
func CombineFriction(a, b Material) float64 {
	return math.Sqrt(math.Max(a.Friction*b.Friction, 0))
}

// CombineRestitution returns the restitution of a contact between two materials: the larger one
func CombineRestitution(a, b Material) float64 {
	return math.Max(a.Restitution, b.Restitution)
}

// Collider attaches a body-local Shape to a RigidBody.
// The world-space shape is refreshed with UpdateWorldShape whenever the body moves.
type Collider struct {
	Shape    Shape
	Material Material
	Body     *RigidBody
	// IsTrigger colliders report overlaps but never produce contact constraints
	IsTrigger bool

	worldShape Shape
	bounds     AABB
}

// UpdateWorldShape transforms the shape by the body transform and refreshes the bounds
func (c *Collider) UpdateWorldShape() {
	if c.Body == nil {
		c.worldShape = c.Shape
	} else {
		c.worldShape = c.Shape.Transformed(c.Body.Transform)
	}
	c.bounds = c.worldShape.Bounds()
}

// WorldShape returns the shape in world space as of the last UpdateWorldShape
func (c *Collider) WorldShape() Shape {
	if c.worldShape == nil {
		c.UpdateWorldShape()
	}
	return c.worldShape
}

// Bounds returns the world-space AABB as of the last UpdateWorldShape
func (c *Collider) Bounds() AABB {
	if c.worldShape == nil {
		c.UpdateWorldShape()
	}
	return c.bounds
}
