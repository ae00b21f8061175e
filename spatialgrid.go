package impact

import (
	"math"
	"sort"

	"github.com/akmonengine/impact/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_CELL_SIZE = 4.0
	DEFAULT_CELLS     = 1024
)

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the colliders overlapping it
type Cell struct {
	colliderIndices []int
}

// Pair is a candidate pair of colliders, by index in the collider list given to the grid.
// A is always lower than B.
type Pair struct {
	A, B int
}

// SpatialGrid is a uniform hashed grid over collider bounds, used as the broad phase
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
}

// NewSpatialGrid creates a grid of cellSize cells, hashed into numCells buckets
// (rounded up to a power of two)
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].colliderIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert adds the collider index to every cell its bounds overlap
func (sg *SpatialGrid) Insert(colliderIndex int, bounds actor.AABB) {
	minCell := sg.worldToCell(bounds.Min)
	maxCell := sg.worldToCell(bounds.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})

				sg.cells[cellIdx].colliderIndices = append(
					sg.cells[cellIdx].colliderIndices,
					colliderIndex,
				)
			}
		}
	}
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].colliderIndices = sg.cells[i].colliderIndices[:0]
	}
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].colliderIndices) > 1 {
			sort.Ints(sg.cells[i].colliderIndices)
		}
	}
}

// canCollide filters pairs the narrow phase never needs to see
func canCollide(a, b *actor.Collider) bool {
	if a.Body != nil && a.Body == b.Body {
		return false
	}
	if isStatic(a) && isStatic(b) {
		return false
	}
	return true
}

func isStatic(c *actor.Collider) bool {
	return c.Body == nil || c.Body.BodyType == actor.BodyTypeStatic
}

// findPairs appends the pairs (index, other) with other > index whose bounds overlap
func (sg *SpatialGrid) findPairs(colliders []*actor.Collider, index int, seen []bool, pairs []Pair) []Pair {
	clear(seen)

	colliderA := colliders[index]
	bounds := colliderA.Bounds()
	minCell := sg.worldToCell(bounds.Min)
	maxCell := sg.worldToCell(bounds.Max)

	first := len(pairs)
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})

				for _, otherIdx := range sg.cells[cellIdx].colliderIndices {
					// Avoid duplicates
					if otherIdx <= index || seen[otherIdx] {
						continue
					}
					seen[otherIdx] = true

					colliderB := colliders[otherIdx]
					if !canCollide(colliderA, colliderB) {
						continue
					}
					if bounds.Overlaps(colliderB.Bounds()) {
						pairs = append(pairs, Pair{A: index, B: otherIdx})
					}
				}
			}
		}
	}

	// Cells are visited in hash order: sort for a deterministic output
	found := pairs[first:]
	sort.Slice(found, func(i, j int) bool { return found[i].B < found[j].B })

	return pairs
}

// FindPairs returns the overlapping pairs sorted by (A, B)
func (sg *SpatialGrid) FindPairs(colliders []*actor.Collider) []Pair {
	pairs := make([]Pair, 0, len(colliders)/2)
	seen := make([]bool, len(colliders))

	for index := range colliders {
		pairs = sg.findPairs(colliders, index, seen, pairs)
	}

	return pairs
}

// FindPairsParallel splits the colliders between workers. The result is the same as FindPairs.
func (sg *SpatialGrid) FindPairsParallel(colliders []*actor.Collider, numWorkers int) []Pair {
	numWorkers = max(1, numWorkers)
	if len(colliders) == 0 {
		return nil
	}

	type span struct {
		start, end int
	}
	chunkSize := (len(colliders) + numWorkers - 1) / numWorkers
	spans := make([]span, 0, numWorkers)
	for start := 0; start < len(colliders); start += chunkSize {
		spans = append(spans, span{start, min(start+chunkSize, len(colliders))})
	}

	return gather(numWorkers, spans, func(s span, pairs []Pair) []Pair {
		seen := make([]bool, len(colliders))
		for index := s.start; index < s.end; index++ {
			pairs = sg.findPairs(colliders, index, seen, pairs)
		}
		return pairs
	})
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
