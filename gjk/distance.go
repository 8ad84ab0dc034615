package gjk

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// distanceTolerance is the relative progress under which the distance
// iteration stops.
const distanceTolerance = 1e-10

// Separation describes two disjoint convex shapes.
type Separation struct {
	// Normal is the unit vector from PointA toward PointB
	Normal   mgl64.Vec2
	Distance float64
	// PointA and PointB are the closest points of each shape
	PointA mgl64.Vec2
	PointB mgl64.Vec2
}

// Distance computes the separation of two convex shapes.
// It returns false when the shapes overlap or touch.
//
// The simplex keeps the support points of both shapes; once the closest point
// of the Minkowski difference to the origin is found, its barycentric
// coordinates give the witness points on A and B.
func Distance(a actor.Convex, ta actor.Transform, b actor.Convex, tb actor.Transform) (Separation, bool) {
	simplex := SimplexPool.Get().(*Simplex)
	defer SimplexPool.Put(simplex)
	simplex.Reset()

	direction := initialDirection(a, ta, b, tb)
	simplex.push(MinkowskiSupport(a, ta, b, tb, direction))
	weights := [3]float64{1}
	closest := simplex.Points[0]

	for i := 0; i < maxIterations; i++ {
		dist2 := actor.LenSqr(closest)
		if dist2 <= actor.Epsilon {
			return Separation{}, false
		}

		point, supportA, supportB := MinkowskiSupport(a, ta, b, tb, closest.Mul(-1))

		// the new support point does not get closer to the origin
		if dist2-closest.Dot(point) <= distanceTolerance*dist2 {
			break
		}

		simplex.push(point, supportA, supportB)

		var inside bool
		closest, weights, inside = closestToOrigin(simplex)
		if inside {
			return Separation{}, false
		}

		if actor.LenSqr(closest) >= dist2 {
			break
		}
	}

	var pointA, pointB mgl64.Vec2
	for i := 0; i < simplex.Count; i++ {
		pointA = pointA.Add(simplex.SupportA[i].Mul(weights[i]))
		pointB = pointB.Add(simplex.SupportB[i].Mul(weights[i]))
	}

	normal, distance := actor.SafeNormalize(pointB.Sub(pointA))
	if distance <= actor.Epsilon {
		return Separation{}, false
	}

	return Separation{
		Normal:   normal,
		Distance: distance,
		PointA:   pointA,
		PointB:   pointB,
	}, true
}

// closestToOrigin reduces the simplex to the feature closest to the origin
// and returns the closest point with its barycentric weights.
// inside reports a triangle containing the origin.
func closestToOrigin(simplex *Simplex) (closest mgl64.Vec2, weights [3]float64, inside bool) {
	switch simplex.Count {
	case 1:
		return simplex.Points[0], [3]float64{1}, false
	case 2:
		closest, weights = closestOnSegment(simplex, 0, 1)
		return closest, weights, false
	}

	a, b, c := simplex.Points[0], simplex.Points[1], simplex.Points[2]
	area := actor.Cross(b.Sub(a), c.Sub(a))
	if math.Abs(area) > actor.Epsilon {
		// barycentric coordinates of the origin
		u := actor.Cross(b, c) / area
		v := actor.Cross(c, a) / area
		w := actor.Cross(a, b) / area
		if u >= 0 && v >= 0 && w >= 0 {
			return mgl64.Vec2{}, [3]float64{u, v, w}, true
		}
	}

	// closest of the three edges
	bestDist := math.Inf(1)
	var best [2]int
	for _, edge := range [3][2]int{{0, 1}, {1, 2}, {0, 2}} {
		p, _ := closestOnSegment(simplex, edge[0], edge[1])
		if d := actor.LenSqr(p); d < bestDist {
			bestDist = d
			best = edge
		}
	}
	simplex.keep(best[0], best[1])
	closest, weights = closestOnSegment(simplex, 0, 1)

	return closest, weights, false
}

// closestOnSegment returns the point of segment [i, j] closest to the origin.
// When i and j are the whole simplex and the closest point is an end point,
// the simplex is reduced to it.
func closestOnSegment(simplex *Simplex, i, j int) (mgl64.Vec2, [3]float64) {
	a, b := simplex.Points[i], simplex.Points[j]
	ab := b.Sub(a)
	l2 := actor.LenSqr(ab)

	t := 0.0
	if l2 > actor.Epsilon {
		t = actor.Clamp(-a.Dot(ab)/l2, 0, 1)
	}

	whole := simplex.Count == 2 && i == 0 && j == 1
	switch {
	case t <= 0 && whole:
		simplex.keep(0)
		return a, [3]float64{1}
	case t >= 1 && whole:
		simplex.keep(1)
		return b, [3]float64{1}
	}

	var weights [3]float64
	weights[0], weights[1] = 1-t, t
	return a.Add(ab.Mul(t)), weights
}
