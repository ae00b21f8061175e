package sat

import (
	"math"
	"math/rand"
	"testing"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

func createBox(center mgl64.Vec3, half float64, rotation mgl64.Quat) actor.OrientedBox {
	return actor.OrientedBox{
		Center:      center,
		HalfExtents: mgl64.Vec3{half, half, half},
		Rotation:    rotation,
	}
}

func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()
	if settings.ParallelThreshold != 0.99 {
		t.Errorf("ParallelThreshold = %v, want 0.99", settings.ParallelThreshold)
	}
	if settings.Epsilon != 1e-6 {
		t.Errorf("Epsilon = %v, want 1e-6", settings.Epsilon)
	}
}

func TestIntersect_FaceContact(t *testing.T) {
	a := createBox(mgl64.Vec3{0, 0, 0}, 1, mgl64.QuatIdent())
	b := createBox(mgl64.Vec3{1.9, 0, 0}, 1, mgl64.QuatIdent())

	m, ok := Intersect(a, b, DefaultSettings())
	if !ok {
		t.Fatal("overlapping boxes reported as separated")
	}
	if !vec3Equal(m.Normal, mgl64.Vec3{1, 0, 0}, 1e-9) {
		t.Errorf("normal = %v, want (1,0,0)", m.Normal)
	}
	if m.Count != 4 {
		t.Fatalf("Count = %d, want 4", m.Count)
	}
	for _, p := range m.Contacts() {
		if math.Abs(p.Penetration-0.1) > 1e-4 {
			t.Errorf("penetration = %v, want 0.1", p.Penetration)
		}
		if math.Abs(p.Position.X()-1) > 1e-9 {
			t.Errorf("point %v is not on the reference face x = 1", p.Position)
		}
		if math.Abs(math.Abs(p.Position.Y())-1) > 1e-9 || math.Abs(math.Abs(p.Position.Z())-1) > 1e-9 {
			t.Errorf("point %v is not a face corner", p.Position)
		}
	}
}

func TestIntersect_SmallerIncidentFace(t *testing.T) {
	// A's top face is the reference, B's smaller bottom face lies within it
	a := createBox(mgl64.Vec3{0, 0, 0}, 2, mgl64.QuatIdent())
	b := createBox(mgl64.Vec3{0, 2.4, 0}, 0.5, mgl64.QuatIdent())

	m, ok := Intersect(a, b, DefaultSettings())
	if !ok {
		t.Fatal("overlapping boxes reported as separated")
	}
	if !vec3Equal(m.Normal, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("normal = %v, want (0,1,0)", m.Normal)
	}
	if m.Count != 4 {
		t.Fatalf("Count = %d, want 4", m.Count)
	}
	for _, p := range m.Contacts() {
		if math.Abs(p.Penetration-0.1) > 1e-4 {
			t.Errorf("penetration = %v, want 0.1", p.Penetration)
		}
		if math.Abs(p.Position.X()) > 0.5+1e-9 || math.Abs(p.Position.Z()) > 0.5+1e-9 {
			t.Errorf("point %v lies outside the smaller face", p.Position)
		}
	}
}

func TestIntersect_Separated(t *testing.T) {
	tests := []struct {
		name string
		b    actor.OrientedBox
	}{
		{"face axis", createBox(mgl64.Vec3{2.1, 0, 0}, 1, mgl64.QuatIdent())},
		{"rotated", createBox(mgl64.Vec3{2.5, 0, 0}, 1, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}))},
		{"diagonal", createBox(mgl64.Vec3{2.1, 2.1, 2.1}, 1, mgl64.QuatIdent())},
	}

	a := createBox(mgl64.Vec3{}, 1, mgl64.QuatIdent())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Intersect(a, tt.b, DefaultSettings()); ok {
				t.Error("separated boxes reported as colliding")
			}
		})
	}
}

func TestIntersect_EdgeContact(t *testing.T) {
	// A's top edge runs along Z, B's bottom edge runs along X: they cross with 0.1 overlap
	a := createBox(mgl64.Vec3{}, 1, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}))
	b := createBox(mgl64.Vec3{0, 2*math.Sqrt2 - 0.1, 0}, 1, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{1, 0, 0}))

	m, ok := Intersect(a, b, DefaultSettings())
	if !ok {
		t.Fatal("crossing edges reported as separated")
	}
	if m.Count != 1 {
		t.Fatalf("Count = %d, want a single edge point", m.Count)
	}
	if !vec3Equal(m.Normal, mgl64.Vec3{0, 1, 0}, 1e-6) {
		t.Errorf("normal = %v, want (0,1,0)", m.Normal)
	}
	if math.Abs(m.Points[0].Penetration-0.1) > 1e-3 {
		t.Errorf("penetration = %v, want 0.1", m.Points[0].Penetration)
	}
	if !vec3Equal(m.Points[0].Position, mgl64.Vec3{0, math.Sqrt2 - 0.05, 0}, 1e-6) {
		t.Errorf("point = %v, want (0, %v, 0)", m.Points[0].Position, math.Sqrt2-0.05)
	}
}

func TestIntersect_UnsetSettings(t *testing.T) {
	a := createBox(mgl64.Vec3{}, 1, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}))
	b := createBox(mgl64.Vec3{0, 2*math.Sqrt2 - 0.1, 0}, 1, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{1, 0, 0}))

	expected, _ := Intersect(a, b, DefaultSettings())
	for _, settings := range []Settings{{}, {Epsilon: DefaultEpsilon}, {ParallelThreshold: -1}} {
		m, ok := Intersect(a, b, settings)
		if !ok {
			t.Fatalf("%+v: crossing edges reported as separated", settings)
		}
		if m != expected {
			t.Errorf("%+v: manifold = %+v, want the edge contact %+v", settings, m, expected)
		}
	}

	got := Settings{}.withDefaults()
	if got != DefaultSettings() {
		t.Errorf("Settings{}.withDefaults() = %+v, want %+v", got, DefaultSettings())
	}
	custom := Settings{ParallelThreshold: 0.5, Epsilon: 1e-3}
	if custom.withDefaults() != custom {
		t.Errorf("set fields were overwritten: %+v", custom.withDefaults())
	}
}

func TestFaceContact_IncidentFaceOutsideSides(t *testing.T) {
	// B's bottom face starts right of A at (1.1, 0.8) and rises away from it, while B's left
	// face crosses A's top right edge at y ≈ 0.92
	a := createBox(mgl64.Vec3{}, 1, mgl64.QuatIdent())
	rotation := mgl64.QuatRotate(mgl64.DegToRad(40), mgl64.Vec3{0, 0, 1})
	corner := mgl64.Vec3{1.1, 0.8, 0}
	b := actor.OrientedBox{
		Center:      corner.Sub(rotation.Rotate(mgl64.Vec3{-1, -0.5, 0})),
		HalfExtents: mgl64.Vec3{1, 0.5, 1},
		Rotation:    rotation,
	}

	var m manifold.Manifold
	m.SetNormal(mgl64.Vec3{0, 1, 0})
	if !faceContact(&m, a, b, m.Normal) {
		t.Fatal("overlapping boxes produced no contact")
	}
	if m.Count != 1 {
		t.Fatalf("Count = %d, want the deepest corner only", m.Count)
	}
	if math.Abs(m.Points[0].Penetration-0.2) > 1e-9 {
		t.Errorf("penetration = %v, want 0.2", m.Points[0].Penetration)
	}
	if !vec3Equal(m.Points[0].Position, mgl64.Vec3{1, 1, -1}, 1e-9) {
		t.Errorf("point = %v, want (1, 1, -1) on A's top face", m.Points[0].Position)
	}
}

func TestIntersect_RotatedRandom(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	randomRotation := func() mgl64.Quat {
		axis := mgl64.Vec3{r.Float64() - 0.5, r.Float64() - 0.5, r.Float64() - 0.5}
		if axis.Len() < 1e-3 {
			axis = mgl64.Vec3{0, 1, 0}
		}
		return mgl64.QuatRotate(r.Float64()*2*math.Pi, axis.Normalize())
	}

	for i := 0; i < 200; i++ {
		a := createBox(mgl64.Vec3{}, 1, randomRotation())
		offset := mgl64.Vec3{r.Float64() - 0.5, r.Float64() - 0.5, r.Float64() - 0.5}.Normalize().Mul(1.2)
		b := createBox(offset, 1, randomRotation())

		// Inscribed spheres of radius 1 overlap, so the boxes always do
		m, ok := Intersect(a, b, DefaultSettings())
		if !ok {
			t.Fatalf("case %d: overlapping boxes reported as separated", i)
		}
		if m.Count < 1 || m.Count > 4 {
			t.Fatalf("case %d: Count = %d, want 1 to 4", i, m.Count)
		}
		if math.Abs(m.Normal.Len()-1) > 1e-9 {
			t.Errorf("case %d: normal %v is not normalized", i, m.Normal)
		}
		if m.Normal.Dot(offset) < 0 {
			t.Errorf("case %d: normal %v points from B to A", i, m.Normal)
		}
		for _, p := range m.Contacts() {
			if p.Penetration < 0 {
				t.Errorf("case %d: negative penetration %v", i, p.Penetration)
			}
		}
	}
}

func BenchmarkIntersect(b *testing.B) {
	boxA := createBox(mgl64.Vec3{}, 1, mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0}))
	boxB := createBox(mgl64.Vec3{1.5, 0.4, 0}, 1, mgl64.QuatRotate(0.7, mgl64.Vec3{1, 0, 0}))
	settings := DefaultSettings()

	for b.Loop() {
		Intersect(boxA, boxB, settings)
	}
}
