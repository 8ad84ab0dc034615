package epa

import (
	"fmt"
	"math"
	"sync"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// Edge is an edge of the polytope with its outward normal and its distance to the origin.
type Edge struct {
	// Index of the first vertex; the edge goes to the next vertex
	Index    int
	Normal   mgl64.Vec2
	Distance float64
}

// PolytopeBuilder holds the polytope as a counter-clockwise polygon of
// Minkowski difference points surrounding the origin.
type PolytopeBuilder struct {
	vertices []mgl64.Vec2
}

// polytopeBuilderPool is the single sync.Pool for PolytopeBuilder instances.
var polytopeBuilderPool = sync.Pool{
	New: func() interface{} {
		return &PolytopeBuilder{
			vertices: make([]mgl64.Vec2, 0, polytopeInitialCapacity),
		}
	},
}

// Reset prepares the builder for reuse.
func (b *PolytopeBuilder) Reset() {
	b.vertices = b.vertices[:0]
}

// BuildInitialPolygon creates the initial polytope from a GJK triangle simplex,
// ordering it counter-clockwise.
func (b *PolytopeBuilder) BuildInitialPolygon(simplex *gjk.Simplex) error {
	if simplex.Count != 3 {
		return fmt.Errorf("invalid simplex count: %d (expected 3)", simplex.Count)
	}

	p0, p1, p2 := simplex.Points[0], simplex.Points[1], simplex.Points[2]
	area := actor.Cross(p1.Sub(p0), p2.Sub(p0))
	if math.Abs(area) <= actor.Epsilon {
		return fmt.Errorf("degenerate simplex: area %v", area)
	}
	if area < 0 {
		p1, p2 = p2, p1
	}
	b.vertices = append(b.vertices, p0, p1, p2)

	return nil
}

// Vertices returns the current polygon, counter-clockwise.
func (b *PolytopeBuilder) Vertices() []mgl64.Vec2 {
	return b.vertices
}

// FindClosestEdge returns the edge of the polytope nearest to the origin.
// Degenerate edges are skipped.
func (b *PolytopeBuilder) FindClosestEdge() (Edge, bool) {
	n := len(b.vertices)
	closest := Edge{Distance: math.Inf(1)}
	found := false

	for i := 0; i < n; i++ {
		v1 := b.vertices[i]
		v2 := b.vertices[(i+1)%n]
		e := v2.Sub(v1)

		// outward normal of a counter-clockwise edge
		normal, length := actor.SafeNormalize(mgl64.Vec2{e[1], -e[0]})
		if length == 0 {
			continue
		}
		distance := normal.Dot(v1)
		if distance < closest.Distance {
			closest = Edge{Index: i, Normal: normal, Distance: distance}
			found = true
		}
	}

	return closest, found
}

// Insert adds point between the two vertices of edge, expanding the polytope.
func (b *PolytopeBuilder) Insert(edge Edge, point mgl64.Vec2) {
	at := edge.Index + 1
	b.vertices = append(b.vertices, mgl64.Vec2{})
	copy(b.vertices[at+1:], b.vertices[at:])
	b.vertices[at] = point
}
