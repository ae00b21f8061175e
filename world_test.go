package impact

import (
	"bytes"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/constraint"
	"github.com/akmonengine/impact/manifold"
	"github.com/akmonengine/impact/sat"
	"github.com/go-gl/mathgl/mgl64"
)

const testTimestep = 1.0 / 60.0

func createTestWorld(workers int) *World {
	world := &World{
		Gravity:  mgl64.Vec3{0, -9.81, 0},
		Substeps: 4,
		Workers:  workers,
	}
	world.AddBody(createGround())
	return world
}

type debugCapture struct {
	manifolds   int
	failures    int
	constraints int
}

func (d *debugCapture) DebugManifold(pair Pair, m manifold.Manifold) { d.manifolds++ }
func (d *debugCapture) DebugEPAFailure(pair Pair, err error)         { d.failures++ }
func (d *debugCapture) DebugConstraint(c *constraint.ContactConstraint) {
	d.constraints++
}

func TestWorld_StepDefaults(t *testing.T) {
	var world World
	body := createSphereBody(mgl64.Vec3{0, 5, 0}, 0.5, actor.BodyTypeDynamic)
	world.AddBody(body)

	world.Step(testTimestep)

	if world.Substeps != 1 {
		t.Errorf("Substeps = %d, want 1", world.Substeps)
	}
	if world.Workers != DEFAULT_WORKERS {
		t.Errorf("Workers = %d, want %d", world.Workers, DEFAULT_WORKERS)
	}
	if world.SpatialGrid == nil {
		t.Error("SpatialGrid should be created")
	}
	if world.Settings != DefaultSettings() {
		t.Errorf("Settings = %+v, want defaults", world.Settings)
	}
	if body.Transform.Position != (mgl64.Vec3{0, 5, 0}) {
		t.Errorf("body should not move without gravity, got %v", body.Transform.Position)
	}
}

func TestWorld_PartialSettings(t *testing.T) {
	world := World{Settings: Settings{SolverIterations: 20, Slop: 0.02}}
	world.AddBody(createSphereBody(mgl64.Vec3{0, 5, 0}, 0.5, actor.BodyTypeDynamic))

	world.Step(testTimestep)

	expected := DefaultSettings()
	expected.SolverIterations = 20
	expected.Slop = 0.02
	if world.Settings != expected {
		t.Errorf("Settings = %+v, want %+v", world.Settings, expected)
	}
	if world.Settings.BaumgarteFactor != constraint.DEFAULT_BAUMGARTE {
		t.Errorf("BaumgarteFactor = %v, want %v", world.Settings.BaumgarteFactor, constraint.DEFAULT_BAUMGARTE)
	}
	if world.Settings.narrowPhaseSettings().SAT != sat.DefaultSettings() {
		t.Errorf("SAT settings = %+v, want defaults", world.Settings.narrowPhaseSettings().SAT)
	}
}

func TestWorld_FreeFall(t *testing.T) {
	world := &World{Gravity: mgl64.Vec3{0, -10, 0}, Substeps: 1}
	body := createSphereBody(mgl64.Vec3{0, 10, 0}, 0.5, actor.BodyTypeDynamic)
	world.AddBody(body)

	world.Step(0.1)

	// Semi-implicit Euler: v = -1, y = 10 - 0.1
	if math.Abs(body.Velocity.Y()+1) > 1e-9 {
		t.Errorf("velocity = %v, want -1", body.Velocity.Y())
	}
	if math.Abs(body.Transform.Position.Y()-9.9) > 1e-9 {
		t.Errorf("position = %v, want 9.9", body.Transform.Position.Y())
	}
}

func TestWorld_SphereRestsOnGround(t *testing.T) {
	world := createTestWorld(1)
	sphere := createSphereBody(mgl64.Vec3{0, 1.0, 0}, 0.5, actor.BodyTypeDynamic)
	world.AddBody(sphere)

	for range 120 {
		world.Step(testTimestep)
	}

	y := sphere.Transform.Position.Y()
	if y < 0.9 || y > 1.05 {
		t.Errorf("sphere height = %v, want about 1.0", y)
	}
	if sphere.Velocity.Len() > 0.5 {
		t.Errorf("sphere should be at rest, velocity = %v", sphere.Velocity)
	}
}

func TestWorld_BoxRestsOnGround(t *testing.T) {
	world := createTestWorld(2)
	box := createBoxBody(mgl64.Vec3{0, 1.0, 0}, mgl64.Vec3{0.5, 0.5, 0.5}, actor.BodyTypeDynamic)
	world.AddBody(box)

	for range 120 {
		world.Step(testTimestep)
	}

	y := box.Transform.Position.Y()
	if y < 0.85 || y > 1.1 {
		t.Errorf("box height = %v, want about 1.0", y)
	}
	if box.Velocity.Len() > 0.5 {
		t.Errorf("box should be at rest, velocity = %v", box.Velocity)
	}
}

func TestWorld_Bounce(t *testing.T) {
	world := createTestWorld(1)
	world.Bodies[0].Colliders[0].Material.Restitution = 1
	sphere := createSphereBody(mgl64.Vec3{0, 1.05, 0}, 0.5, actor.BodyTypeDynamic)
	sphere.Colliders[0].Material.Restitution = 1
	sphere.Velocity = mgl64.Vec3{0, -5, 0}
	world.AddBody(sphere)

	for range 5 {
		world.Step(testTimestep)
	}

	if sphere.Velocity.Y() <= 0 {
		t.Errorf("sphere should bounce back up, velocity = %v", sphere.Velocity)
	}
	if sphere.Transform.Position.Y() < 0.8 {
		t.Errorf("sphere went through the ground, y = %v", sphere.Transform.Position.Y())
	}
}

func TestWorld_TriggerDoesNotBlock(t *testing.T) {
	world := createTestWorld(1)
	sphere := createSphereBody(mgl64.Vec3{0, 1.2, 0}, 0.5, actor.BodyTypeDynamic)
	sphere.Colliders[0].IsTrigger = true
	world.AddBody(sphere)

	captureEnter := &eventCapture{}
	captureCollision := &eventCapture{}
	world.Events.Subscribe(TRIGGER_ENTER, captureEnter.capture)
	world.Events.Subscribe(COLLISION_ENTER, captureCollision.capture)

	for range 60 {
		world.Step(testTimestep)
	}

	if sphere.Transform.Position.Y() > 0 {
		t.Errorf("trigger should fall through the ground, y = %v", sphere.Transform.Position.Y())
	}
	if captureEnter.count() != 1 {
		t.Errorf("expected 1 TRIGGER_ENTER, got %d", captureEnter.count())
	}
	if captureCollision.count() != 0 {
		t.Errorf("expected no COLLISION_ENTER, got %d", captureCollision.count())
	}
}

func TestWorld_CollisionEvents(t *testing.T) {
	world := createTestWorld(1)
	sphere := createSphereBody(mgl64.Vec3{0, 1.5, 0}, 0.5, actor.BodyTypeDynamic)
	world.AddBody(sphere)

	captureEnter := &eventCapture{}
	captureStay := &eventCapture{}
	world.Events.Subscribe(COLLISION_ENTER, captureEnter.capture)
	world.Events.Subscribe(COLLISION_STAY, captureStay.capture)

	for range 60 {
		world.Step(testTimestep)
	}

	if captureEnter.count() != 1 {
		t.Fatalf("expected 1 COLLISION_ENTER, got %d", captureEnter.count())
	}
	if captureStay.count() == 0 {
		t.Error("expected COLLISION_STAY events while resting")
	}

	event := captureEnter.events[0].(CollisionEnterEvent)
	involved := []*actor.Collider{event.ColliderA, event.ColliderB}
	if !(involved[0] == sphere.Colliders[0] || involved[1] == sphere.Colliders[0]) {
		t.Error("event should involve the sphere collider")
	}
}

func TestWorld_RemoveBody(t *testing.T) {
	world := createTestWorld(1)
	sphere := createSphereBody(mgl64.Vec3{0, 0.95, 0}, 0.5, actor.BodyTypeDynamic)
	world.AddBody(sphere)

	captureExit := &eventCapture{}
	world.Events.Subscribe(COLLISION_EXIT, captureExit.capture)

	world.Step(testTimestep)
	world.RemoveBody(sphere)
	world.Step(testTimestep)

	if len(world.Bodies) != 1 {
		t.Errorf("expected 1 body left, got %d", len(world.Bodies))
	}
	if len(world.Colliders()) != 1 {
		t.Errorf("expected 1 collider left, got %d", len(world.Colliders()))
	}
	if captureExit.count() != 0 {
		t.Errorf("expected no EXIT event for a removed body, got %d", captureExit.count())
	}
}

func TestWorld_Debugger(t *testing.T) {
	world := createTestWorld(1)
	world.AddBody(createSphereBody(mgl64.Vec3{0, 0.95, 0}, 0.5, actor.BodyTypeDynamic))
	debugger := &debugCapture{}
	world.Debugger = debugger

	world.Step(testTimestep)

	if debugger.manifolds != world.Substeps {
		t.Errorf("expected %d manifolds, got %d", world.Substeps, debugger.manifolds)
	}
	if debugger.constraints != world.Substeps {
		t.Errorf("expected %d constraints, got %d", world.Substeps, debugger.constraints)
	}
	if debugger.failures != 0 {
		t.Errorf("expected no failures, got %d", debugger.failures)
	}
}

func TestLogDebugger(t *testing.T) {
	var buffer bytes.Buffer
	world := createTestWorld(1)
	world.Substeps = 1
	world.AddBody(createSphereBody(mgl64.Vec3{0, 0.95, 0}, 0.5, actor.BodyTypeDynamic))
	world.Debugger = NewLogDebugger(log.New(&buffer, "", 0))

	world.Step(testTimestep)

	output := buffer.String()
	if !strings.Contains(output, "manifold 0/1") {
		t.Errorf("expected a manifold line, got %q", output)
	}
	if !strings.Contains(output, "constraint at") {
		t.Errorf("expected a constraint line, got %q", output)
	}
}

func TestWorld_DeterministicAcrossWorkers(t *testing.T) {
	build := func(workers int) (*World, []*actor.RigidBody) {
		world := createTestWorld(workers)
		var bodies []*actor.RigidBody
		for i := range 5 {
			for j := range 5 {
				position := mgl64.Vec3{float64(i)*1.1 - 2.2, 1.0 + float64(i+j)*0.3, float64(j)*1.1 - 2.2}
				var body *actor.RigidBody
				if (i+j)%2 == 0 {
					body = createSphereBody(position, 0.5, actor.BodyTypeDynamic)
				} else {
					body = createBoxBody(position, mgl64.Vec3{0.45, 0.45, 0.45}, actor.BodyTypeDynamic)
				}
				world.AddBody(body)
				bodies = append(bodies, body)
			}
		}
		return world, bodies
	}

	worldA, bodiesA := build(1)
	worldB, bodiesB := build(4)

	for range 30 {
		worldA.Step(testTimestep)
		worldB.Step(testTimestep)
	}

	for i := range bodiesA {
		if bodiesA[i].Transform != bodiesB[i].Transform {
			t.Fatalf("body %d differs: %v vs %v", i, bodiesA[i].Transform, bodiesB[i].Transform)
		}
		if bodiesA[i].Velocity != bodiesB[i].Velocity {
			t.Fatalf("body %d velocity differs: %v vs %v", i, bodiesA[i].Velocity, bodiesB[i].Velocity)
		}
	}
}

func BenchmarkWorldStep(b *testing.B) {
	world := createTestWorld(4)
	for i := range 100 {
		position := mgl64.Vec3{float64(i%10) - 4.5, 1.0 + float64(i/10)*1.1, 0}
		world.AddBody(createSphereBody(position, 0.5, actor.BodyTypeDynamic))
	}

	for b.Loop() {
		world.Step(testTimestep)
	}
}
