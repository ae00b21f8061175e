package impact

import (
	"slices"
	"sort"
	"testing"

	"github.com/akmonengine/impact/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func createBoxBody(position mgl64.Vec3, halfExtents mgl64.Vec3, bodyType actor.BodyType) *actor.RigidBody {
	transform := actor.NewTransform()
	transform.Position = position

	body := actor.NewRigidBody(transform, bodyType)
	body.AddCollider(actor.NewBox(mgl64.Vec3{}, halfExtents), actor.Material{Density: 1, Friction: 0.5})

	return body
}

func createSphereBody(position mgl64.Vec3, radius float64, bodyType actor.BodyType) *actor.RigidBody {
	transform := actor.NewTransform()
	transform.Position = position

	body := actor.NewRigidBody(transform, bodyType)
	body.AddCollider(actor.Sphere{Radius: radius}, actor.Material{Density: 1, Friction: 0.5})

	return body
}

func collidersOf(bodies ...*actor.RigidBody) []*actor.Collider {
	var colliders []*actor.Collider
	for _, body := range bodies {
		colliders = append(colliders, body.Colliders...)
	}
	return colliders
}

func insertAll(grid *SpatialGrid, colliders []*actor.Collider) {
	for i, collider := range colliders {
		grid.Insert(i, collider.Bounds())
	}
	grid.SortCells()
}

func cellContains(grid *SpatialGrid, key CellKey, colliderIndex int) bool {
	return slices.Contains(grid.cells[grid.hashCell(key)].colliderIndices, colliderIndex)
}

func TestWorldToCell(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)

	tests := []struct {
		name     string
		position mgl64.Vec3
		expected CellKey
	}{
		{"origin", mgl64.Vec3{0, 0, 0}, CellKey{0, 0, 0}},
		{"positive", mgl64.Vec3{1.5, 2.3, 3.7}, CellKey{1, 2, 3}},
		{"negative", mgl64.Vec3{-1.5, -2.3, -3.7}, CellKey{-2, -3, -4}},
		{"fractional", mgl64.Vec3{0.5, 0.5, 0.5}, CellKey{0, 0, 0}},
		{"large", mgl64.Vec3{100.7, -200.3, 50.1}, CellKey{100, -201, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := grid.worldToCell(tt.position)
			if result != tt.expected {
				t.Errorf("worldToCell(%v) = %v, want %v", tt.position, result, tt.expected)
			}
		})
	}
}

func TestHashCell(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16) // mask = 15

	tests := []struct {
		name     string
		key      CellKey
		expected int
	}{
		{"origin", CellKey{0, 0, 0}, 0},
		{"simple", CellKey{1, 2, 3}, 6},
		{"negative", CellKey{-1, -2, -3}, 10},
		{"large", CellKey{100, 200, 300}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := grid.hashCell(tt.key)
			if result < 0 || result >= len(grid.cells) {
				t.Errorf("hashCell(%v) = %d, out of range [0, %d)", tt.key, result, len(grid.cells))
			}
			if result != tt.expected {
				t.Errorf("hashCell(%v) = %d, want %d", tt.key, result, tt.expected)
			}
		})
	}
}

func TestNewSpatialGrid_PowerOfTwo(t *testing.T) {
	tests := []struct {
		numCells int
		expected int
	}{
		{0, 1},
		{1, 1},
		{16, 16},
		{17, 32},
		{1000, 1024},
	}

	for _, tt := range tests {
		grid := NewSpatialGrid(1.0, tt.numCells)
		if len(grid.cells) != tt.expected {
			t.Errorf("NewSpatialGrid(%d) has %d cells, want %d", tt.numCells, len(grid.cells), tt.expected)
		}
		if grid.cellMask != tt.expected-1 {
			t.Errorf("NewSpatialGrid(%d) mask = %d, want %d", tt.numCells, grid.cellMask, tt.expected-1)
		}
	}
}

func TestInsert(t *testing.T) {
	t.Run("single collider", func(t *testing.T) {
		grid := NewSpatialGrid(1.0, 16)
		bounds := actor.AABB{Min: mgl64.Vec3{1.1, 2.1, 3.1}, Max: mgl64.Vec3{1.9, 2.9, 3.9}}

		grid.Insert(0, bounds)

		if !cellContains(grid, CellKey{1, 2, 3}, 0) {
			t.Error("collider not found in its cell after insertion")
		}
	})

	t.Run("spanning cells", func(t *testing.T) {
		grid := NewSpatialGrid(1.0, 1024)
		bounds := actor.AABB{Min: mgl64.Vec3{0.5, 0.5, 0.5}, Max: mgl64.Vec3{1.5, 1.5, 1.5}}

		grid.Insert(0, bounds)

		for x := 0; x <= 1; x++ {
			for y := 0; y <= 1; y++ {
				for z := 0; z <= 1; z++ {
					if !cellContains(grid, CellKey{x, y, z}, 0) {
						t.Errorf("collider not found in cell %v", CellKey{x, y, z})
					}
				}
			}
		}
	})
}

func TestClear(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)
	colliders := collidersOf(
		createBoxBody(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0.4, 0.4, 0.4}, actor.BodyTypeDynamic),
		createBoxBody(mgl64.Vec3{2, 2, 2}, mgl64.Vec3{0.4, 0.4, 0.4}, actor.BodyTypeDynamic),
	)
	insertAll(grid, colliders)

	grid.Clear()

	for _, cell := range grid.cells {
		if len(cell.colliderIndices) != 0 {
			t.Fatal("cells should be empty after clear")
		}
	}
}

func TestSortCells(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)
	grid.cells[0].colliderIndices = append(grid.cells[0].colliderIndices, 5, 2, 8, 1, 9, 3)

	grid.SortCells()

	if !sort.IntsAreSorted(grid.cells[0].colliderIndices) {
		t.Error("cell indices should be sorted")
	}
}

func TestFindPairs(t *testing.T) {
	half := mgl64.Vec3{0.4, 0.4, 0.4}

	t.Run("no overlap", func(t *testing.T) {
		grid := NewSpatialGrid(1.0, 16)
		colliders := collidersOf(
			createBoxBody(mgl64.Vec3{0, 0, 0}, half, actor.BodyTypeDynamic),
			createBoxBody(mgl64.Vec3{10, 10, 10}, half, actor.BodyTypeDynamic),
		)
		insertAll(grid, colliders)

		if pairs := grid.FindPairs(colliders); len(pairs) != 0 {
			t.Errorf("expected 0 pairs, got %v", pairs)
		}
	})

	t.Run("overlap", func(t *testing.T) {
		grid := NewSpatialGrid(1.0, 16)
		colliders := collidersOf(
			createBoxBody(mgl64.Vec3{0, 0, 0}, half, actor.BodyTypeDynamic),
			createBoxBody(mgl64.Vec3{0.5, 0.5, 0.5}, half, actor.BodyTypeDynamic),
		)
		insertAll(grid, colliders)

		pairs := grid.FindPairs(colliders)
		if len(pairs) != 1 || pairs[0] != (Pair{A: 0, B: 1}) {
			t.Errorf("expected [{0 1}], got %v", pairs)
		}
	})

	t.Run("static bodies", func(t *testing.T) {
		grid := NewSpatialGrid(1.0, 16)
		colliders := collidersOf(
			createBoxBody(mgl64.Vec3{0, 0, 0}, half, actor.BodyTypeStatic),
			createBoxBody(mgl64.Vec3{0.5, 0.5, 0.5}, half, actor.BodyTypeStatic),
		)
		insertAll(grid, colliders)

		if pairs := grid.FindPairs(colliders); len(pairs) != 0 {
			t.Errorf("expected 0 pairs between static bodies, got %v", pairs)
		}
	})

	t.Run("static and dynamic", func(t *testing.T) {
		grid := NewSpatialGrid(1.0, 16)
		colliders := collidersOf(
			createBoxBody(mgl64.Vec3{0, 0, 0}, half, actor.BodyTypeStatic),
			createBoxBody(mgl64.Vec3{0.5, 0.5, 0.5}, half, actor.BodyTypeDynamic),
		)
		insertAll(grid, colliders)

		if pairs := grid.FindPairs(colliders); len(pairs) != 1 {
			t.Errorf("expected 1 pair, got %v", pairs)
		}
	})

	t.Run("same body", func(t *testing.T) {
		grid := NewSpatialGrid(1.0, 16)
		body := createBoxBody(mgl64.Vec3{0, 0, 0}, half, actor.BodyTypeDynamic)
		body.AddCollider(actor.Sphere{Center: mgl64.Vec3{0.3, 0, 0}, Radius: 0.3}, actor.Material{Density: 1})
		colliders := collidersOf(body)
		insertAll(grid, colliders)

		if pairs := grid.FindPairs(colliders); len(pairs) != 0 {
			t.Errorf("expected 0 pairs between colliders of one body, got %v", pairs)
		}
	})

	t.Run("no duplicates across cells", func(t *testing.T) {
		grid := NewSpatialGrid(1.0, 1024)
		colliders := collidersOf(
			createBoxBody(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 2, 2}, actor.BodyTypeDynamic),
			createBoxBody(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{2, 2, 2}, actor.BodyTypeDynamic),
		)
		insertAll(grid, colliders)

		if pairs := grid.FindPairs(colliders); len(pairs) != 1 {
			t.Errorf("expected 1 pair, got %v", pairs)
		}
	})
}

func TestFindPairsParallel_MatchesSequential(t *testing.T) {
	bodies := make([]*actor.RigidBody, 0, 125)
	for i := range 125 {
		position := mgl64.Vec3{
			float64(i%5) * 0.7,
			float64((i/5)%5) * 0.7,
			float64(i/25) * 0.7,
		}
		bodyType := actor.BodyTypeDynamic
		if i%7 == 0 {
			bodyType = actor.BodyTypeStatic
		}
		bodies = append(bodies, createSphereBody(position, 0.4, bodyType))
	}
	colliders := collidersOf(bodies...)

	grid := NewSpatialGrid(1.0, 64)
	insertAll(grid, colliders)
	expected := grid.FindPairs(colliders)

	if len(expected) == 0 {
		t.Fatal("expected overlapping pairs in the lattice")
	}
	for i := 1; i < len(expected); i++ {
		previous, current := expected[i-1], expected[i]
		if previous.A > current.A || (previous.A == current.A && previous.B >= current.B) {
			t.Fatalf("pairs not sorted at %d: %v then %v", i, previous, current)
		}
	}

	for _, workers := range []int{0, 1, 2, 3, 8, 200} {
		pairs := grid.FindPairsParallel(colliders, workers)
		if !slices.Equal(pairs, expected) {
			t.Errorf("FindPairsParallel with %d workers differs from FindPairs: %d pairs, want %d", workers, len(pairs), len(expected))
		}
	}
}

func TestFindPairsParallel_Empty(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)
	if pairs := grid.FindPairsParallel(nil, 4); len(pairs) != 0 {
		t.Errorf("expected no pairs, got %v", pairs)
	}
}

func BenchmarkFindPairsParallel(b *testing.B) {
	grid := NewSpatialGrid(1.0, 1024)
	bodies := make([]*actor.RigidBody, 100)

	for i := range bodies {
		pos := mgl64.Vec3{
			float64(i%10) * 2.0,
			float64((i/10)%10) * 2.0,
			float64((i/100)%10) * 2.0,
		}
		bodies[i] = createBoxBody(pos, mgl64.Vec3{0.4, 0.4, 0.4}, actor.BodyTypeDynamic)
	}
	colliders := collidersOf(bodies...)
	insertAll(grid, colliders)

	for b.Loop() {
		grid.FindPairsParallel(colliders, 4)
	}
}
