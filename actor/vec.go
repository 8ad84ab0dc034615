package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the machine epsilon for float64
const Epsilon = 2.220446049250313e-16

// Cross returns the z component of the 3D cross product of a and b.
func Cross(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// CrossSV returns s × v, with s the z component of a vector.
func CrossSV(s float64, v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-s * v[1], s * v[0]}
}

// CrossVS returns v × s, with s the z component of a vector.
func CrossVS(v mgl64.Vec2, s float64) mgl64.Vec2 {
	return mgl64.Vec2{s * v[1], -s * v[0]}
}

// LenSqr returns the squared length of v.
func LenSqr(v mgl64.Vec2) float64 {
	return v[0]*v[0] + v[1]*v[1]
}

// SafeNormalize returns v normalized and its original length.
// A vector shorter than Epsilon is returned as the zero vector.
func SafeNormalize(v mgl64.Vec2) (mgl64.Vec2, float64) {
	l := math.Sqrt(LenSqr(v))
	if l <= Epsilon {
		return mgl64.Vec2{}, 0
	}
	return mgl64.Vec2{v[0] / l, v[1] / l}, l
}

// IsZero reports whether both components are within Epsilon of zero.
func IsZero(v mgl64.Vec2) bool {
	return math.Abs(v[0]) <= Epsilon && math.Abs(v[1]) <= Epsilon
}

// Clamp restricts value to [low, high].
func Clamp(value, low, high float64) float64 {
	return math.Max(low, math.Min(high, value))
}
