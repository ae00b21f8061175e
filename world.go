package impact

import (
	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const DEFAULT_WORKERS = 1

type World struct {
	// List of all rigid bodies in the world
	Bodies []*actor.RigidBody
	// Gravity acceleration (m/s², or N/kg)
	Gravity     mgl64.Vec3
	Substeps    int
	SpatialGrid *SpatialGrid
	Workers     int
	Settings    Settings

	Events Events
	// Debugger is optional
	Debugger Debugger

	colliders []*actor.Collider
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(body *actor.RigidBody) {
	w.Bodies = append(w.Bodies, body)
}

// RemoveBody removes a rigid body from the world
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}

	if k != -1 {
		w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)
	}

	if w.Events.initialized() {
		w.Events.forget(body)
	}
}

// Colliders returns the colliders of every body, in body order, as indexed by the pairs of
// the last step
func (w *World) Colliders() []*actor.Collider {
	return w.colliders
}

func (w *World) Step(dt float64) {
	w.prepare()
	h := dt / float64(w.Substeps)

	for range w.Substeps {
		// Phase 1: Gravity, forces and damping
		w.integrateForces(h)

		// Phase 2.0: Collision pair finding - Broad phase
		// Phase 2.1: Collision pair finding - narrow phase
		contacts := w.detectCollision()
		w.Events.recordContacts(contacts)

		// Phase 3: Velocity solver
		w.solveVelocity(h, contacts)

		// Phase 4: Positions from the solved velocities
		w.integrateVelocity(h)
	}

	w.Events.flush()
}

func (w *World) prepare() {
	w.Settings = w.Settings.withDefaults()
	w.Substeps = max(1, w.Substeps)
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	if w.SpatialGrid == nil {
		w.SpatialGrid = NewSpatialGrid(DEFAULT_CELL_SIZE, DEFAULT_CELLS)
	}
	if !w.Events.initialized() {
		w.Events = NewEvents()
	}

	w.colliders = w.colliders[:0]
	for _, body := range w.Bodies {
		w.colliders = append(w.colliders, body.Colliders...)
	}
}

func (w *World) integrateForces(h float64) {
	task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.IntegrateForces(h, w.Gravity)
	})
}

func (w *World) detectCollision() []Contact {
	task(w.Workers, w.colliders, func(collider *actor.Collider) {
		collider.UpdateWorldShape()
	})

	pairs := BroadPhase(w.SpatialGrid, w.colliders, w.Workers)
	contacts, failures := NarrowPhase(pairs, w.colliders, w.Settings.narrowPhaseSettings(), w.Workers)

	if w.Debugger != nil {
		for _, failure := range failures {
			w.Debugger.DebugEPAFailure(failure.Pair, failure.Err)
		}
		for _, c := range contacts {
			w.Debugger.DebugManifold(c.Pair, c.Manifold)
		}
	}

	return contacts
}

// solveVelocity runs sequentially: constraints sharing a body must see each other's impulses
func (w *World) solveVelocity(h float64, contacts []Contact) {
	contactConstraints := BuildConstraints(contacts, h, w.Settings.constraintSettings())

	constraints := make([]constraint.Constraint, len(contactConstraints))
	for i, c := range contactConstraints {
		constraints[i] = c
	}
	constraint.Solve(constraints, w.Settings.SolverIterations)

	if w.Debugger != nil {
		for _, c := range contactConstraints {
			w.Debugger.DebugConstraint(c)
		}
	}
}

func (w *World) integrateVelocity(h float64) {
	task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.IntegrateVelocity(h)
	})
}
