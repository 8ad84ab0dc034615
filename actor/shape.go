package actor

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Convex is the interface that all collision shapes must implement.
// Shapes are defined in body local space; every query taking a Transform
// answers in world space.
type Convex interface {
	// Center returns the local center of the shape
	Center() mgl64.Vec2
	// RadiusFrom returns the maximum distance from the local point to the shape
	RadiusFrom(point mgl64.Vec2) float64
	// CreateAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	CreateAABB(transform Transform) AABB
	// CreateMass calculates mass data for the shape given a density
	CreateMass(density float64) Mass
	// Support returns the farthest world point of the shape along direction
	Support(direction mgl64.Vec2, transform Transform) mgl64.Vec2
	// FarthestFeature returns the edge or vertex most aligned with direction
	FarthestFeature(direction mgl64.Vec2, transform Transform) Feature
	Raycast(ray Ray, maxLength float64, transform Transform) (RaycastResult, bool)
	Contains(point mgl64.Vec2, transform Transform) bool
}

// Vertex is a world space point of a feature with its index in the shape.
type Vertex struct {
	Point mgl64.Vec2
	Index int
}

// Feature is either a single vertex or an edge going counter-clockwise from
// Vertex1 to Vertex2. Max is the vertex farthest along the query direction.
type Feature struct {
	IsEdge  bool
	Vertex1 Vertex
	Vertex2 Vertex
	Max     Vertex
	// Index is the index of the edge in the shape
	Index int
}

// NewPointFeature returns a feature made of a single vertex.
func NewPointFeature(v Vertex) Feature {
	return Feature{Vertex1: v, Vertex2: v, Max: v, Index: v.Index}
}

// Edge returns the edge vector, zero for point features.
func (f Feature) Edge() mgl64.Vec2 {
	return f.Vertex2.Point.Sub(f.Vertex1.Point)
}

// Ray is a half line from Start along the unit vector Direction.
type Ray struct {
	Start     mgl64.Vec2
	Direction mgl64.Vec2
}

// NewRay creates a ray, normalizing direction.
func NewRay(start, direction mgl64.Vec2) Ray {
	d, _ := SafeNormalize(direction)
	return Ray{Start: start, Direction: d}
}

// PointAt returns the point at distance along the ray.
func (r Ray) PointAt(distance float64) mgl64.Vec2 {
	return r.Start.Add(r.Direction.Mul(distance))
}

// RaycastResult is the entry point of a ray into a shape.
type RaycastResult struct {
	Point    mgl64.Vec2
	Normal   mgl64.Vec2
	Distance float64
}
