package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rotation is a 2D rotation stored as its cosine and sine
type Rotation struct {
	Cos float64
	Sin float64
}

// NewRotation creates the rotation of the given angle in radians.
func NewRotation(angle float64) Rotation {
	return Rotation{Cos: math.Cos(angle), Sin: math.Sin(angle)}
}

// IdentityRotation is the rotation of angle 0.
func IdentityRotation() Rotation {
	return Rotation{Cos: 1, Sin: 0}
}

func (r Rotation) Angle() float64 {
	return math.Atan2(r.Sin, r.Cos)
}

// Rotate applies the rotation to v.
func (r Rotation) Rotate(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{r.Cos*v[0] - r.Sin*v[1], r.Sin*v[0] + r.Cos*v[1]}
}

// InverseRotate applies the inverse rotation to v.
func (r Rotation) InverseRotate(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{r.Cos*v[0] + r.Sin*v[1], -r.Sin*v[0] + r.Cos*v[1]}
}

// Transform represents a position and an orientation in 2D space
type Transform struct {
	Position mgl64.Vec2
	Rotation Rotation
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec2{0, 0},
		Rotation: IdentityRotation(),
	}
}

// NewTransformAt creates a transform at position with the given angle.
func NewTransformAt(position mgl64.Vec2, angle float64) Transform {
	return Transform{Position: position, Rotation: NewRotation(angle)}
}

func (t Transform) Angle() float64 {
	return t.Rotation.Angle()
}

// ToWorld transforms a local point into world space.
func (t Transform) ToWorld(local mgl64.Vec2) mgl64.Vec2 {
	return t.Rotation.Rotate(local).Add(t.Position)
}

// ToLocal transforms a world point into local space.
func (t Transform) ToLocal(world mgl64.Vec2) mgl64.Vec2 {
	return t.Rotation.InverseRotate(world.Sub(t.Position))
}

// ToWorldVector rotates a local direction into world space.
func (t Transform) ToWorldVector(local mgl64.Vec2) mgl64.Vec2 {
	return t.Rotation.Rotate(local)
}

// ToLocalVector rotates a world direction into local space.
func (t Transform) ToLocalVector(world mgl64.Vec2) mgl64.Vec2 {
	return t.Rotation.InverseRotate(world)
}

// Translate moves the transform by delta.
func (t *Transform) Translate(delta mgl64.Vec2) {
	t.Position = t.Position.Add(delta)
}

// RotateAbout rotates the transform by theta around the world point center.
func (t *Transform) RotateAbout(theta float64, center mgl64.Vec2) {
	r := NewRotation(theta)
	t.Position = r.Rotate(t.Position.Sub(center)).Add(center)
	t.Rotation = Rotation{
		Cos: r.Cos*t.Rotation.Cos - r.Sin*t.Rotation.Sin,
		Sin: r.Sin*t.Rotation.Cos + r.Cos*t.Rotation.Sin,
	}
}

// Lerp returns the transform interpolated between t (alpha = 0) and end
// (alpha = 1). The local point localCenter moves along a straight line while
// the angle is interpolated linearly.
func (t Transform) Lerp(end Transform, alpha float64, localCenter mgl64.Vec2) Transform {
	c0 := t.ToWorld(localCenter)
	c1 := end.ToWorld(localCenter)
	a0 := t.Angle()
	da := angleDelta(a0, end.Angle())

	result := Transform{Rotation: NewRotation(a0 + da*alpha)}
	center := c0.Add(c1.Sub(c0).Mul(alpha))
	result.Position = center.Sub(result.Rotation.Rotate(localCenter))

	return result
}

// angleDelta returns the signed smallest angle going from a to b.
func angleDelta(a, b float64) float64 {
	d := b - a
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// Sweep is the motion of a body during one step: its start transform and the
// displacement of its center of mass and angle.
type Sweep struct {
	Start       Transform
	LocalCenter mgl64.Vec2
	// Translation is the displacement of the center of mass
	Translation mgl64.Vec2
	// Rotation is the angle swept around the center of mass
	Rotation float64
	// Radius bounds the distance from the center of mass to any point of the body
	Radius float64
}

// NewSweep builds the sweep going from start to end.
func NewSweep(start, end Transform, localCenter mgl64.Vec2, radius float64) Sweep {
	return Sweep{
		Start:       start,
		LocalCenter: localCenter,
		Translation: end.ToWorld(localCenter).Sub(start.ToWorld(localCenter)),
		Rotation:    angleDelta(start.Angle(), end.Angle()),
		Radius:      radius,
	}
}

// TransformAt returns the transform at alpha in [0, 1] of the sweep.
func (s Sweep) TransformAt(alpha float64) Transform {
	result := Transform{Rotation: NewRotation(s.Start.Angle() + s.Rotation*alpha)}
	center := s.Start.ToWorld(s.LocalCenter).Add(s.Translation.Mul(alpha))
	result.Position = center.Sub(result.Rotation.Rotate(s.LocalCenter))

	return result
}
