package epa

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ManifoldPointID identifies a contact point across steps.
// Points from clipped edges are indexed by the features that produced them;
// the zero value is a distance id, used for point features, which can only be
// matched by proximity.
type ManifoldPointID struct {
	ReferenceEdge  int
	IncidentEdge   int
	IncidentVertex int
	// Flipped is set when the reference edge belongs to the second shape
	Flipped bool
	Indexed bool
}

// DistanceID is the id of points that have no stable features.
var DistanceID = ManifoldPointID{}

// ManifoldPoint is a world space contact point and its penetration depth.
type ManifoldPoint struct {
	ID    ManifoldPointID
	Point mgl64.Vec2
	Depth float64
}

// Manifold is the contact surface of two shapes: 1 or 2 points sharing a normal.
type Manifold struct {
	// Normal points from the first shape toward the second
	Normal mgl64.Vec2
	Points []ManifoldPoint
}

// ClippingManifoldSolver is the default manifold solver.
//
// Algorithm:
//  1. Get the farthest feature of each shape along the penetration normal
//  2. If either is a single vertex, it is the only contact point
//  3. The reference edge is the one most perpendicular to the normal, the other is incident
//  4. Clip the incident edge against the side planes of the reference edge
//  5. Keep the clipped points that are behind the reference edge
type ClippingManifoldSolver struct{}

// Manifold builds the contact manifold of a penetration between a and b.
// It returns false when clipping leaves no point.
func (ClippingManifoldSolver) Manifold(penetration Penetration, a actor.Convex, ta actor.Transform, b actor.Convex, tb actor.Transform) (Manifold, bool) {
	n := penetration.Normal

	featureA := a.FarthestFeature(n, ta)
	if !featureA.IsEdge {
		return singlePoint(n, featureA.Max.Point, penetration.Depth), true
	}
	featureB := b.FarthestFeature(n.Mul(-1), tb)
	if !featureB.IsEdge {
		return singlePoint(n, featureB.Max.Point, penetration.Depth), true
	}

	reference, incident := featureA, featureB
	flipped := false
	if math.Abs(featureA.Edge().Dot(n)) > math.Abs(featureB.Edge().Dot(n)) {
		reference, incident = featureB, featureA
		flipped = true
	}

	refEdge, length := actor.SafeNormalize(reference.Edge())
	if length == 0 {
		return singlePoint(n, featureB.Max.Point, penetration.Depth), true
	}

	// side planes at both ends of the reference edge
	o1 := refEdge.Dot(reference.Vertex1.Point)
	clipped := clip(incident.Vertex1, incident.Vertex2, refEdge, o1)
	if len(clipped) < 2 {
		return Manifold{}, false
	}
	o2 := refEdge.Dot(reference.Vertex2.Point)
	clipped = clip(clipped[0], clipped[1], refEdge.Mul(-1), -o2)
	if len(clipped) < 2 {
		return Manifold{}, false
	}

	// outward normal of the counter-clockwise reference edge
	refNormal := mgl64.Vec2{refEdge[1], -refEdge[0]}
	front := refNormal.Dot(reference.Vertex1.Point)

	manifold := Manifold{Normal: refNormal, Points: make([]ManifoldPoint, 0, 2)}
	if flipped {
		manifold.Normal = refNormal.Mul(-1)
	}

	for _, v := range clipped {
		depth := front - refNormal.Dot(v.Point)
		if depth < 0 {
			continue
		}
		manifold.Points = append(manifold.Points, ManifoldPoint{
			ID: ManifoldPointID{
				ReferenceEdge:  reference.Index,
				IncidentEdge:   incident.Index,
				IncidentVertex: v.Index,
				Flipped:        flipped,
				Indexed:        true,
			},
			Point: v.Point,
			Depth: depth,
		})
	}

	if len(manifold.Points) == 0 {
		return Manifold{}, false
	}

	return manifold, true
}

func singlePoint(normal, point mgl64.Vec2, depth float64) Manifold {
	return Manifold{
		Normal: normal,
		Points: []ManifoldPoint{{ID: DistanceID, Point: point, Depth: depth}},
	}
}

// clip keeps the part of segment v1-v2 where n·p >= offset.
// A point created by the clipping takes the index of the vertex it replaces.
func clip(v1, v2 actor.Vertex, n mgl64.Vec2, offset float64) []actor.Vertex {
	points := make([]actor.Vertex, 0, 2)

	d1 := n.Dot(v1.Point) - offset
	d2 := n.Dot(v2.Point) - offset
	if d1 >= 0 {
		points = append(points, v1)
	}
	if d2 >= 0 {
		points = append(points, v2)
	}

	if d1*d2 < 0 {
		u := d1 / (d1 - d2)
		p := v1.Point.Add(v2.Point.Sub(v1.Point).Mul(u))
		index := v2.Index
		if d1 < 0 {
			index = v1.Index
		}
		points = append(points, actor.Vertex{Point: p, Index: index})
	}

	return points
}
