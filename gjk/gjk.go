// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for 2D convex shapes.
//
// GJK detects whether two convex shapes overlap by testing if their Minkowski difference
// contains the origin. The algorithm builds a simplex incrementally, converging toward
// the origin in a handful of iterations. The same simplex machinery computes the
// distance and the closest points of separated shapes (see Distance).
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"math"
	"sync"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const maxIterations = 32

// Simplex represents a set of 1-3 points in the Minkowski difference space.
// The simplex evolves during GJK iterations, always containing the most recent support points.
// Size progression: 1 point → 2 points (segment) → 3 points (triangle)
type Simplex struct {
	Points [3]mgl64.Vec2
	// SupportA and SupportB are the points of each shape producing Points
	SupportA [3]mgl64.Vec2
	SupportB [3]mgl64.Vec2
	Count    int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

func (s *Simplex) push(p, a, b mgl64.Vec2) {
	s.Points[s.Count] = p
	s.SupportA[s.Count] = a
	s.SupportB[s.Count] = b
	s.Count++
}

// keep reduces the simplex to the given indices, in order.
func (s *Simplex) keep(indices ...int) {
	var points, supportA, supportB [3]mgl64.Vec2
	for i, index := range indices {
		points[i] = s.Points[index]
		supportA[i] = s.SupportA[index]
		supportB[i] = s.SupportB[index]
	}
	s.Points, s.SupportA, s.SupportB = points, supportA, supportB
	s.Count = len(indices)
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport computes a support point in the Minkowski difference (A - B).
//
// Returns the support point furthestPoint(A, direction) - furthestPoint(B, -direction)
// along with the two shape points producing it.
func MinkowskiSupport(a actor.Convex, ta actor.Transform, b actor.Convex, tb actor.Transform, direction mgl64.Vec2) (point, supportA, supportB mgl64.Vec2) {
	supportA = a.Support(direction, ta)
	supportB = b.Support(direction.Mul(-1), tb)
	return supportA.Sub(supportB), supportA, supportB
}

// initialDirection points from the center of A toward the center of B.
func initialDirection(a actor.Convex, ta actor.Transform, b actor.Convex, tb actor.Transform) mgl64.Vec2 {
	direction := tb.ToWorld(b.Center()).Sub(ta.ToWorld(a.Center()))
	if actor.LenSqr(direction) < 1e-8 {
		direction = mgl64.Vec2{1, 0} // Fallback if centers are identical
	}
	return direction
}

// Detect performs the GJK overlap test between two convex shapes.
//
// Algorithm overview:
//  1. Start with initial search direction (toward B from A)
//  2. Get first support point in Minkowski difference
//  3. Iteratively refine simplex toward origin
//  4. If origin is contained → collision
//  5. If can't reach origin → no collision
//
// The simplex is modified in place. On collision it usually is a triangle containing
// the origin, which EPA uses as its initial polytope; touching contacts may end with
// a segment or a single point.
func Detect(a actor.Convex, ta actor.Transform, b actor.Convex, tb actor.Transform, simplex *Simplex) bool {
	simplex.Reset()
	direction := initialDirection(a, ta, b, tb)

	// Get first point of the simplex in the Minkowski difference
	simplex.push(MinkowskiSupport(a, ta, b, tb, direction))

	// New direction towards the origin from this first point
	direction = simplex.Points[0].Mul(-1)

	// If first support point is at/near origin, shapes are touching
	if actor.LenSqr(direction) < 1e-16 {
		return true
	}

	for i := 0; i < maxIterations; i++ {
		point, supportA, supportB := MinkowskiSupport(a, ta, b, tb, direction)

		// If the new point doesn't pass the origin in the search direction,
		// the origin cannot be reached, therefore no collision.
		if point.Dot(direction) <= 0 {
			return false
		}

		simplex.push(point, supportA, supportB)

		// Check if the simplex contains the origin, reducing the simplex
		// to its closest feature to the origin otherwise
		if containsOrigin(simplex, &direction) {
			return true
		}
	}

	// Failed to converge after maxIterations
	return false
}

// containsOrigin tests if the simplex contains the origin and refines the simplex.
//
// Behavior by simplex dimension:
//   - 2 points (segment): reduce to the closest point or keep the segment
//   - 3 points (triangle): reduce to the closest edge or report the origin inside
func containsOrigin(simplex *Simplex, direction *mgl64.Vec2) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	}
	return false
}

// perpendicularToward returns a vector perpendicular to edge on the side of target.
func perpendicularToward(edge, target mgl64.Vec2) mgl64.Vec2 {
	perp := mgl64.Vec2{-edge[1], edge[0]}
	if perp.Dot(target) < 0 {
		perp = perp.Mul(-1)
	}
	return perp
}

// line handles the segment simplex case (2 points: A the most recent, B).
//
// Returns true only when the origin lies on the segment (touching shapes).
func line(simplex *Simplex, direction *mgl64.Vec2) bool {
	a := simplex.Points[1]
	b := simplex.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	// Handle degenerate case: identical points
	if actor.LenSqr(ab) < 1e-12 {
		if actor.LenSqr(ao) < 1e-16 {
			return true
		}
		simplex.keep(1)
		*direction = ao
		return false
	}

	// Origin is closest to point A alone
	if ab.Dot(ao) <= 0 {
		simplex.keep(1)
		*direction = ao
		return false
	}

	// Origin on the segment → touching
	if math.Abs(actor.Cross(ab, ao)) < 1e-12 {
		return true
	}

	*direction = perpendicularToward(ab, ao)
	return false
}

// triangle handles the triangle simplex case (3 points: A the most recent, B, C).
//
// Tests the two edges adjacent to A; the edge BC was already tested by the
// previous iteration. If the origin is outside neither, it is inside the triangle.
func triangle(simplex *Simplex, direction *mgl64.Vec2) bool {
	a := simplex.Points[2]
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	// Collinear points: fall back to the segment made of the two most recent points
	if math.Abs(actor.Cross(ab, ac)) < 1e-12 {
		simplex.keep(1, 2)
		return line(simplex, direction)
	}

	// Region AB: outward normal of AB, away from C
	abPerp := perpendicularToward(ab, ac).Mul(-1)
	if abPerp.Dot(ao) > 0 {
		simplex.keep(1, 2)
		*direction = abPerp
		return false
	}

	// Region AC: outward normal of AC, away from B
	acPerp := perpendicularToward(ac, ab).Mul(-1)
	if acPerp.Dot(ao) > 0 {
		simplex.keep(0, 2)
		*direction = acPerp
		return false
	}

	// The origin is inside the triangle
	return true
}
