package feather2d

import (
	"fmt"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Bounds limits the region where bodies are simulated. A body found outside
// is deactivated.
type Bounds interface {
	IsOutside(body *actor.Body) bool
	Shift(delta mgl64.Vec2)
}

// AxisAlignedBounds is a rectangular region. A body is outside when its
// bounding box no longer overlaps it.
type AxisAlignedBounds struct {
	aabb actor.AABB
}

// NewAxisAlignedBounds creates a width x height region centered on the origin.
func NewAxisAlignedBounds(width, height float64) (*AxisAlignedBounds, error) {
	if !(width > 0) || !(height > 0) {
		return nil, fmt.Errorf("bounds %vx%v: %w", width, height, actor.ErrInvalidDimension)
	}
	hw, hh := width*0.5, height*0.5

	return &AxisAlignedBounds{aabb: actor.AABB{
		Min: mgl64.Vec2{-hw, -hh},
		Max: mgl64.Vec2{hw, hh},
	}}, nil
}

func (b *AxisAlignedBounds) AABB() actor.AABB {
	return b.aabb
}

func (b *AxisAlignedBounds) IsOutside(body *actor.Body) bool {
	return !b.aabb.Overlaps(body.CreateAABB())
}

func (b *AxisAlignedBounds) Shift(delta mgl64.Vec2) {
	b.aabb = b.aabb.Translate(delta)
}
