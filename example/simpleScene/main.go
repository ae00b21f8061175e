package main

import (
	"fmt"
	"log"
	"os"

	"github.com/akmonengine/impact"
	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/narrowphase"
	"github.com/go-gl/mathgl/mgl64"
)

// SetupScene creates a static ground with a tilted cube, a capsule and a trigger zone
func SetupScene() (*impact.World, *actor.RigidBody, *actor.RigidBody) {
	world := &impact.World{
		Gravity:  mgl64.Vec3{0, -9.81, 0},
		Substeps: 4,
		Workers:  2,
		Settings: impact.DefaultSettings(),
	}

	// Ground slab, top face at y=0
	groundTransform := actor.NewTransform()
	groundTransform.Position = mgl64.Vec3{0, -0.5, 0}
	groundBody := actor.NewRigidBody(groundTransform, actor.BodyTypeStatic)
	groundBody.AddCollider(
		actor.NewBox(mgl64.Vec3{}, mgl64.Vec3{20, 0.5, 20}),
		actor.Material{Friction: 0.6},
	)
	world.AddBody(groundBody)

	// Cube falling on an edge, with restitution
	cubeTransform := actor.Transform{
		Position: mgl64.Vec3{-5.0, 5.0, -5.0},
		Rotation: mgl64.QuatRotate(mgl64.DegToRad(30), mgl64.Vec3{0, 0, 1}),
	}
	cubeBody := actor.NewRigidBody(cubeTransform, actor.BodyTypeDynamic)
	cubeBody.AddCollider(
		actor.NewBox(mgl64.Vec3{}, mgl64.Vec3{1.5, 1.5, 1.5}),
		actor.Material{Density: 1, Friction: 0.5, Restitution: 0.8},
	)
	world.AddBody(cubeBody)

	// Capsule lying down
	capsuleTransform := actor.NewTransform()
	capsuleTransform.Position = mgl64.Vec3{3, 2, 0}
	capsuleBody := actor.NewRigidBody(capsuleTransform, actor.BodyTypeDynamic)
	capsuleBody.AddCollider(
		actor.Capsule{A: mgl64.Vec3{-1, 0, 0}, B: mgl64.Vec3{1, 0, 0}, Radius: 0.4},
		actor.Material{Density: 1, Friction: 0.5},
	)
	world.AddBody(capsuleBody)

	// Trigger volume around the capsule landing spot
	zoneBody := actor.NewRigidBody(capsuleTransform, actor.BodyTypeStatic)
	zone := zoneBody.AddCollider(actor.Sphere{Radius: 1.5}, actor.Material{})
	zone.IsTrigger = true
	world.AddBody(zoneBody)

	return world, groundBody, cubeBody
}

func main() {
	logger := log.New(os.Stdout, "", 0)

	world, groundBody, cubeBody := SetupScene()
	if len(os.Args) > 1 && os.Args[1] == "-debug" {
		world.Debugger = impact.NewLogDebugger(logger)
	}

	world.Events.Subscribe(impact.COLLISION_ENTER, func(event impact.Event) {
		e := event.(impact.CollisionEnterEvent)
		logger.Printf("collision enter: %v / %v", e.ColliderA.Shape.Type(), e.ColliderB.Shape.Type())
	})
	world.Events.Subscribe(impact.COLLISION_EXIT, func(event impact.Event) {
		e := event.(impact.CollisionExitEvent)
		logger.Printf("collision exit: %v / %v", e.ColliderA.Shape.Type(), e.ColliderB.Shape.Type())
	})
	world.Events.Subscribe(impact.TRIGGER_ENTER, func(event impact.Event) {
		e := event.(impact.TriggerEnterEvent)
		logger.Printf("trigger enter: %v / %v", e.ColliderA.Shape.Type(), e.ColliderB.Shape.Type())
	})

	const dt float64 = 1.0 / 60.0
	const maxSteps int = 200

	settings := narrowphase.DefaultSettings()
	for step := 0; step < maxSteps; step++ {
		world.Step(dt)

		if step%20 != 0 {
			continue
		}

		fmt.Printf("--- step %d ---\n", step+1)
		fmt.Printf("  cube position: %v\n", cubeBody.Transform.Position)
		fmt.Printf("  cube velocity: %v\n", cubeBody.Velocity)
		fmt.Printf("  cube angular velocity: %v (len=%.3f)\n", cubeBody.AngularVelocity, cubeBody.AngularVelocity.Len())

		// Query the cube against the ground directly, outside of the world
		m, ok, err := narrowphase.Collide(
			groundBody.Colliders[0].WorldShape(),
			cubeBody.Colliders[0].WorldShape(),
			settings,
		)
		switch {
		case err != nil:
			fmt.Printf("  query failed: %v\n", err)
		case ok:
			fmt.Printf("  touching ground: normal %v, %d points, depth %.4f\n", m.Normal, m.Count, m.MaxPenetration())
		default:
			fmt.Printf("  airborne\n")
		}
	}
}
