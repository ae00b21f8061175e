package impact

import (
	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/constraint"
	"github.com/akmonengine/impact/manifold"
	"github.com/akmonengine/impact/narrowphase"
)

// Contact is a colliding pair of colliders with its manifold, the normal pointing from
// ColliderA to ColliderB
type Contact struct {
	Pair      Pair
	ColliderA *actor.Collider
	ColliderB *actor.Collider
	Manifold  manifold.Manifold
}

// IsTrigger reports whether the contact only reports an overlap
func (c Contact) IsTrigger() bool {
	return c.ColliderA.IsTrigger || c.ColliderB.IsTrigger
}

// Failure is a pair whose penetration query gave up. It is treated as separated for the step.
type Failure struct {
	Pair Pair
	Err  error
}

type narrowResult struct {
	contact Contact
	err     error
}

// BroadPhase rebuilds the grid from the colliders' world bounds and returns the candidate
// pairs, sorted by collider index
func BroadPhase(spatialGrid *SpatialGrid, colliders []*actor.Collider, workersCount int) []Pair {
	spatialGrid.Clear()
	for i, collider := range colliders {
		spatialGrid.Insert(i, collider.Bounds())
	}
	spatialGrid.SortCells()

	return spatialGrid.FindPairsParallel(colliders, workersCount)
}

// NarrowPhase runs the exact test on every pair. Workers write to private slices, so the
// contacts keep the order of pairs.
func NarrowPhase(pairs []Pair, colliders []*actor.Collider, settings narrowphase.Settings, workersCount int) ([]Contact, []Failure) {
	results := gather(workersCount, pairs, func(pair Pair, out []narrowResult) []narrowResult {
		colliderA, colliderB := colliders[pair.A], colliders[pair.B]

		m, ok, err := narrowphase.Collide(colliderA.WorldShape(), colliderB.WorldShape(), settings)
		if err != nil {
			return append(out, narrowResult{contact: Contact{Pair: pair}, err: err})
		}
		if !ok {
			return out
		}

		return append(out, narrowResult{contact: Contact{
			Pair:      pair,
			ColliderA: colliderA,
			ColliderB: colliderB,
			Manifold:  m,
		}})
	})

	contacts := make([]Contact, 0, len(results))
	var failures []Failure
	for _, result := range results {
		if result.err != nil {
			failures = append(failures, Failure{Pair: result.contact.Pair, Err: result.err})
			continue
		}
		contacts = append(contacts, result.contact)
	}

	return contacts, failures
}

// BuildConstraints turns the contacts into velocity constraints, skipping triggers
func BuildConstraints(contacts []Contact, dt float64, settings constraint.Settings) []*constraint.ContactConstraint {
	constraints := make([]*constraint.ContactConstraint, 0, len(contacts))

	for _, c := range contacts {
		if c.IsTrigger() || c.Manifold.Count == 0 {
			continue
		}

		materialA, materialB := c.ColliderA.Material, c.ColliderB.Material
		constraints = append(constraints, constraint.NewContactConstraint(
			c.ColliderA.Body,
			c.ColliderB.Body,
			c.Manifold,
			actor.CombineFriction(materialA, materialB),
			actor.CombineRestitution(materialA, materialB),
			dt,
			settings,
		))
	}

	return constraints
}
