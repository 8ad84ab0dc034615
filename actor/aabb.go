package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// NewAABBFromCircle creates the box enclosing the circle of the given center and radius.
func NewAABBFromCircle(center mgl64.Vec2, radius float64) AABB {
	return AABB{
		Min: mgl64.Vec2{center[0] - radius, center[1] - radius},
		Max: mgl64.Vec2{center[0] + radius, center[1] + radius},
	}
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec2) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y()
}

// Contains checks if other is fully inside the AABB
func (a AABB) Contains(other AABB) bool {
	return a.Min.X() <= other.Min.X() && a.Max.X() >= other.Max.X() &&
		a.Min.Y() <= other.Min.Y() && a.Max.Y() >= other.Max.Y()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on both axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y()
}

// Union returns the smallest AABB containing both boxes.
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec2{math.Min(a.Min.X(), other.Min.X()), math.Min(a.Min.Y(), other.Min.Y())},
		Max: mgl64.Vec2{math.Max(a.Max.X(), other.Max.X()), math.Max(a.Max.Y(), other.Max.Y())},
	}
}

// Translate returns the AABB moved by delta.
func (a AABB) Translate(delta mgl64.Vec2) AABB {
	return AABB{Min: a.Min.Add(delta), Max: a.Max.Add(delta)}
}

func (a AABB) Width() float64 {
	return a.Max.X() - a.Min.X()
}

func (a AABB) Height() float64 {
	return a.Max.Y() - a.Min.Y()
}

// Raycast reports whether the ray hits the box within maxLength, using the slab test.
// A maxLength <= 0 means the ray is infinite.
func (a AABB) Raycast(ray Ray, maxLength float64) bool {
	tMin := 0.0
	tMax := math.Inf(1)
	if maxLength > 0 {
		tMax = maxLength
	}

	for axis := 0; axis < 2; axis++ {
		origin := ray.Start[axis]
		direction := ray.Direction[axis]

		if math.Abs(direction) <= Epsilon {
			if origin < a.Min[axis] || origin > a.Max[axis] {
				return false
			}
			continue
		}

		inv := 1.0 / direction
		t1 := (a.Min[axis] - origin) * inv
		t2 := (a.Max[axis] - origin) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}

	return true
}
