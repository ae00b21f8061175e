package epa

import (
	"math"
	"sync"

	"github.com/akmonengine/impact/geometry"
	"github.com/akmonengine/impact/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	MaxPoints      = 1024
	MaxTriangles   = 1024
	MaxEdges       = 1024
	MaxBorderEdges = 128

	// degenerateArea is the squared cross-product length under which a triangle has no usable normal
	degenerateArea = 1e-24
)

// triangle is a face of the polytope. Points are counter-clockwise seen from outside, so that
// the normal points away from the origin.
type triangle struct {
	points [3]int
	// edges[i] joins points[i] to points[(i+1)%3]
	edges    [3]int
	normal   mgl64.Vec3
	distance float64
}

// edge links two points and the two triangles sharing them.
// triangles[0] walks the edge from a to b, triangles[1] walks it from b to a.
type edge struct {
	a, b      int
	triangles [2]int
}

// polytope is an arena of points, triangles and edges linked by index.
// Triangles are never freed: replaced ones are only cleared from the active mask.
type polytope struct {
	points    [MaxPoints]gjk.SupportPoint
	triangles [MaxTriangles]triangle
	edges     [MaxEdges]edge
	active    [MaxTriangles / 64]uint64

	numPoints    int
	numTriangles int
	numEdges     int

	// per-update scratch
	references [MaxEdges]uint8
	touched    [MaxEdges]int
	border     [MaxBorderEdges]int
	spokes     [MaxPoints]int
}

// polytopePool keeps polytope arenas between queries: they are too large for the stack.
var polytopePool = sync.Pool{
	New: func() interface{} {
		return &polytope{}
	},
}

func (p *polytope) Reset() {
	p.numPoints = 0
	p.numTriangles = 0
	p.numEdges = 0
	p.active = [MaxTriangles / 64]uint64{}
}

func (p *polytope) isActive(t int) bool {
	return p.active[t/64]&(1<<(t%64)) != 0
}

func (p *polytope) setActive(t int, active bool) {
	if active {
		p.active[t/64] |= 1 << (t % 64)
	} else {
		p.active[t/64] &^= 1 << (t % 64)
	}
}

// init builds the tetrahedron (p0, p1, p2, p3) with outward winding:
//
//	F0 (0,1,2)  F1 (0,3,1)  F2 (1,3,2)  F3 (2,3,0)
func (p *polytope) init(simplex *gjk.Simplex) error {
	p.Reset()

	points := simplex.Points()
	a, b, c, d := points[0].Point, points[1].Point, points[2].Point, points[3].Point
	volume := b.Sub(a).Cross(c.Sub(a)).Dot(d.Sub(a))
	if math.Abs(volume) < geometry.Epsilon*geometry.Epsilon {
		return ErrDegenerate
	}
	// F0 must face away from p3
	if volume > 0 {
		points[1], points[2] = points[2], points[1]
	}

	for _, point := range points {
		p.points[p.numPoints] = point
		p.numPoints++
	}

	p.pushEdge(0, 1, 0, 1)
	p.pushEdge(1, 2, 0, 2)
	p.pushEdge(2, 0, 0, 3)
	p.pushEdge(0, 3, 1, 3)
	p.pushEdge(3, 1, 1, 2)
	p.pushEdge(3, 2, 2, 3)

	p.pushTriangle([3]int{0, 1, 2}, [3]int{0, 1, 2})
	p.pushTriangle([3]int{0, 3, 1}, [3]int{3, 4, 0})
	p.pushTriangle([3]int{1, 3, 2}, [3]int{4, 5, 1})
	p.pushTriangle([3]int{2, 3, 0}, [3]int{5, 3, 2})

	return nil
}

func (p *polytope) pushEdge(a, b, forward, backward int) int {
	index := p.numEdges
	p.edges[index] = edge{a: a, b: b, triangles: [2]int{forward, backward}}
	p.numEdges++
	return index
}

func (p *polytope) pushTriangle(points, edges [3]int) int {
	index := p.numTriangles
	t := &p.triangles[index]
	t.points = points
	t.edges = edges

	a := p.points[points[0]].Point
	normal := p.points[points[1]].Point.Sub(a).Cross(p.points[points[2]].Point.Sub(a))
	if normal.LenSqr() < degenerateArea {
		// Never closest, never visible
		t.normal = mgl64.Vec3{}
		t.distance = math.Inf(1)
	} else {
		t.normal = normal.Normalize()
		t.distance = t.normal.Dot(a)
	}

	p.setActive(index, true)
	p.numTriangles++
	return index
}

// closest returns the active triangle nearest to the origin, or -1 if none is usable.
func (p *polytope) closest() int {
	closest := -1
	minDistance := math.Inf(1)
	for i := 0; i < p.numTriangles; i++ {
		if p.isActive(i) && p.triangles[i].distance < minDistance {
			minDistance = p.triangles[i].distance
			closest = i
		}
	}
	return closest
}

// expand removes every triangle facing support and closes the hole with a fan of triangles
// around it. Each border edge keeps its surviving neighbor and gets the new triangle in the
// slot of the removed one; the spokes from the border vertices to support are shared by two
// consecutive fan triangles.
func (p *polytope) expand(support gjk.SupportPoint) error {
	touched := 0
	for i := 0; i < p.numTriangles; i++ {
		if !p.isActive(i) {
			continue
		}
		t := &p.triangles[i]
		if t.normal.Dot(support.Point.Sub(p.points[t.points[0]].Point)) <= 0 {
			continue
		}

		p.setActive(i, false)
		for _, e := range t.edges {
			if p.references[e] == 0 {
				p.touched[touched] = e
				touched++
			}
			p.references[e]++
		}
	}

	borders := 0
	for _, e := range p.touched[:touched] {
		isBorder := p.references[e] == 1
		p.references[e] = 0
		if !isBorder {
			continue
		}
		if borders == MaxBorderEdges {
			p.clearReferences(touched)
			return ErrCapacity
		}
		p.border[borders] = e
		borders++
	}

	if borders < 3 {
		return ErrDegenerate
	}
	if p.numPoints+1 > MaxPoints || p.numTriangles+borders > MaxTriangles || p.numEdges+2*borders > MaxEdges {
		return ErrCapacity
	}

	newPoint := p.numPoints
	p.points[newPoint] = support
	p.numPoints++

	for _, e := range p.border[:borders] {
		ed := &p.edges[e]
		p.spokes[ed.a] = -1
		p.spokes[ed.b] = -1
	}

	for _, e := range p.border[:borders] {
		ed := &p.edges[e]

		// Walk the edge in the direction of the removed triangle
		slot, u, v := 0, ed.a, ed.b
		if p.isActive(ed.triangles[0]) {
			slot, u, v = 1, ed.b, ed.a
		}

		spokeU := p.spoke(u, newPoint)
		spokeV := p.spoke(v, newPoint)

		t := p.pushTriangle([3]int{u, v, newPoint}, [3]int{e, spokeV, spokeU})
		p.edges[e].triangles[slot] = t
		p.edges[spokeV].triangles[0] = t
		p.edges[spokeU].triangles[1] = t
	}

	// Every spoke must close between two fan triangles, otherwise the border was not a loop
	for _, e := range p.border[:borders] {
		for _, vertex := range [2]int{p.edges[e].a, p.edges[e].b} {
			spoke := p.edges[p.spokes[vertex]]
			if spoke.triangles[0] < 0 || spoke.triangles[1] < 0 {
				return ErrDegenerate
			}
		}
	}

	return nil
}

func (p *polytope) clearReferences(touched int) {
	for _, e := range p.touched[:touched] {
		p.references[e] = 0
	}
}

// spoke returns the edge from vertex to the new point, creating it on first use.
func (p *polytope) spoke(vertex, newPoint int) int {
	if p.spokes[vertex] < 0 {
		p.spokes[vertex] = p.pushEdge(vertex, newPoint, -1, -1)
	}
	return p.spokes[vertex]
}
