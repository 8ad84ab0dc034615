// Package epa implements the Expanding Polytope Algorithm for computing penetration depth
// of overlapping 2D convex shapes, and the contact manifold generation built on it.
//
// EPA is run after GJK detects a collision to determine:
//   - Penetration depth (how far shapes overlap)
//   - Contact normal (direction to separate shapes)
//
// The algorithm expands a polygon (starting from GJK's final simplex) toward the boundary
// of the Minkowski difference, finding the edge closest to the origin which gives us the
// Minimum Translation Vector (MTV) to separate the shapes.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// EPAMaxIterations limits polytope expansion to prevent infinite loops.
	// Polygons converge in a few iterations, circles need more.
	EPAMaxIterations = 64

	// EPAConvergenceTolerance defines when EPA has converged.
	// If the distance to a new support point improves by less than this threshold,
	// we've found the edge of the Minkowski difference closest to the origin.
	EPAConvergenceTolerance = 1e-6

	// NormalSnapThreshold is used to clamp nearly-zero normal components to exactly zero.
	NormalSnapThreshold = 1e-8

	polytopeInitialCapacity = 8
)

// Penetration is the minimum translation separating two shapes: moving B by
// Normal * Depth separates them.
type Penetration struct {
	// Normal points from A toward B
	Normal mgl64.Vec2
	Depth  float64
}

// EPA computes the penetration of two overlapping convex shapes.
//
// Algorithm overview:
//  1. Complete the simplex from GJK into a triangle containing the origin
//  2. Find edge closest to origin
//  3. Get support point in edge normal direction
//  4. If converged (new point doesn't improve distance) → done
//  5. Otherwise, expand polygon by inserting the support point in the edge
//  6. Repeat from step 2
//
// The simplex is the final simplex of gjk.Detect and may be modified.
// When the iteration limit is reached the best estimate so far is returned.
func EPA(a actor.Convex, ta actor.Transform, b actor.Convex, tb actor.Transform, simplex *gjk.Simplex) Penetration {
	if !completeSimplex(a, ta, b, tb, simplex) {
		return handleDegenerateSimplex(a, ta, b, tb)
	}

	builder := polytopeBuilderPool.Get().(*PolytopeBuilder)
	defer polytopeBuilderPool.Put(builder)
	builder.Reset()

	if err := builder.BuildInitialPolygon(simplex); err != nil {
		return handleDegenerateSimplex(a, ta, b, tb)
	}

	var closest Edge
	for i := 0; i < EPAMaxIterations; i++ {
		edge, ok := builder.FindClosestEdge()
		if !ok {
			break
		}
		closest = edge

		support, _, _ := gjk.MinkowskiSupport(a, ta, b, tb, edge.Normal)
		distance := support.Dot(edge.Normal)

		if distance-edge.Distance < EPAConvergenceTolerance {
			break
		}

		builder.Insert(edge, support)
	}

	return Penetration{
		Normal: snapNormalToAxis(closest.Normal),
		Depth:  math.Max(closest.Distance, 0),
	}
}

// completeSimplex grows a point or segment simplex into a triangle with a
// non-zero area, as happens for shapes in touching contact.
func completeSimplex(a actor.Convex, ta actor.Transform, b actor.Convex, tb actor.Transform, simplex *gjk.Simplex) bool {
	if simplex.Count == 1 {
		p := simplex.Points[0]
		for _, direction := range []mgl64.Vec2{p.Mul(-1), {1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			if actor.IsZero(direction) {
				continue
			}
			point, supportA, supportB := gjk.MinkowskiSupport(a, ta, b, tb, direction)
			if actor.LenSqr(point.Sub(p)) > actor.Epsilon {
				simplex.Points[1], simplex.SupportA[1], simplex.SupportB[1] = point, supportA, supportB
				simplex.Count = 2
				break
			}
		}
	}

	if simplex.Count == 2 {
		p0, p1 := simplex.Points[0], simplex.Points[1]
		e := p1.Sub(p0)
		perp := mgl64.Vec2{-e[1], e[0]}
		for _, direction := range []mgl64.Vec2{perp, perp.Mul(-1)} {
			point, supportA, supportB := gjk.MinkowskiSupport(a, ta, b, tb, direction)
			if math.Abs(actor.Cross(e, point.Sub(p0))) > actor.Epsilon {
				simplex.Points[2], simplex.SupportA[2], simplex.SupportB[2] = point, supportA, supportB
				simplex.Count = 3
				break
			}
		}
	}

	return simplex.Count == 3
}

// handleDegenerateSimplex estimates a zero depth contact along the line of
// centers when no triangle can be built from the Minkowski difference.
func handleDegenerateSimplex(a actor.Convex, ta actor.Transform, b actor.Convex, tb actor.Transform) Penetration {
	normal, length := actor.SafeNormalize(tb.ToWorld(b.Center()).Sub(ta.ToWorld(a.Center())))
	if length == 0 {
		// Centers are at same location, use default upward direction
		normal = mgl64.Vec2{0, 1}
	}

	return Penetration{Normal: normal, Depth: 0}
}

// snapNormalToAxis clamps nearly-zero components of a normal vector to exactly zero.
//
// This improves numerical stability for axis-aligned collisions (box on ground)
// by preventing tiny floating-point errors from causing jitter in tangent directions.
func snapNormalToAxis(normal mgl64.Vec2) mgl64.Vec2 {
	x, y := normal[0], normal[1]
	if math.Abs(x) < NormalSnapThreshold {
		x = 0
	}
	if math.Abs(y) < NormalSnapThreshold {
		y = 0
	}

	clamped, length := actor.SafeNormalize(mgl64.Vec2{x, y})
	if length == 0 {
		// If all components were clamped to zero, return default
		return mgl64.Vec2{0, 1}
	}

	return clamped
}
