package actor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Circle represents a circular collision shape
type Circle struct {
	center mgl64.Vec2
	radius float64
}

// NewCircle creates a circle centered on the body origin.
func NewCircle(radius float64) (*Circle, error) {
	return NewCircleAt(mgl64.Vec2{}, radius)
}

// NewCircleAt creates a circle centered on the local point center.
func NewCircleAt(center mgl64.Vec2, radius float64) (*Circle, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("circle radius %v: %w", radius, ErrInvalidDimension)
	}
	return &Circle{center: center, radius: radius}, nil
}

func (c *Circle) Center() mgl64.Vec2 {
	return c.center
}

func (c *Circle) Radius() float64 {
	return c.radius
}

func (c *Circle) RadiusFrom(point mgl64.Vec2) float64 {
	return c.center.Sub(point).Len() + c.radius
}

// CreateAABB is not affected by rotation, only by the center position
func (c *Circle) CreateAABB(transform Transform) AABB {
	return NewAABBFromCircle(transform.ToWorld(c.center), c.radius)
}

// CreateMass calculates mass data for the circle
func (c *Circle) CreateMass(density float64) Mass {
	// Area = π * r²
	mass := density * math.Pi * c.radius * c.radius
	// Disc: I = m * r² / 2
	inertia := mass * c.radius * c.radius * 0.5

	return NewMass(c.center, mass, inertia)
}

func (c *Circle) Support(direction mgl64.Vec2, transform Transform) mgl64.Vec2 {
	n, l := SafeNormalize(direction)
	if l == 0 {
		n = mgl64.Vec2{1, 0}
	}
	return transform.ToWorld(c.center).Add(n.Mul(c.radius))
}

// FarthestFeature of a circle is always its support point
func (c *Circle) FarthestFeature(direction mgl64.Vec2, transform Transform) Feature {
	return NewPointFeature(Vertex{Point: c.Support(direction, transform), Index: 0})
}

func (c *Circle) Raycast(ray Ray, maxLength float64, transform Transform) (RaycastResult, bool) {
	center := transform.ToWorld(c.center)
	m := ray.Start.Sub(center)

	// |m + t*d|² = r², with |d| = 1
	b := m.Dot(ray.Direction)
	cc := LenSqr(m) - c.radius*c.radius
	if cc <= 0 {
		// starting inside the circle
		return RaycastResult{}, false
	}
	discriminant := b*b - cc
	if discriminant < 0 {
		return RaycastResult{}, false
	}

	t := -b - math.Sqrt(discriminant)
	if t < 0 || (maxLength > 0 && t > maxLength) {
		return RaycastResult{}, false
	}

	point := ray.PointAt(t)
	normal, _ := SafeNormalize(point.Sub(center))

	return RaycastResult{Point: point, Normal: normal, Distance: t}, true
}

func (c *Circle) Contains(point mgl64.Vec2, transform Transform) bool {
	return LenSqr(point.Sub(transform.ToWorld(c.center))) <= c.radius*c.radius
}
