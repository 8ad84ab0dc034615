// Package constraint implements the sequential impulse solver: contact
// constraints with friction and restitution, the time of impact position
// correction, and the joints.
//
// Every constraint works on the velocities of two bodies during the velocity
// iterations and on their transforms during the position iterations. Impulses
// are accumulated across iterations and kept between steps for warm starting.
package constraint

import (
	"errors"
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrSameBody is returned when a joint is created between a body and itself.
	ErrSameBody = errors.New("joint bodies must be different")
	// ErrNilBody is returned when a joint is created with a nil body.
	ErrNilBody = errors.New("joint body is nil")
	// ErrInvalidParameter is returned for out of range joint parameters.
	ErrInvalidParameter = errors.New("invalid joint parameter")
)

// CoefficientMixer combines the material coefficients of two fixtures.
type CoefficientMixer interface {
	MixFriction(a, b float64) float64
	MixRestitution(a, b float64) float64
}

// DefaultCoefficientMixer uses the geometric mean for friction and the
// maximum for restitution: if one bounces, the pair bounces.
type DefaultCoefficientMixer struct{}

func (DefaultCoefficientMixer) MixFriction(a, b float64) float64 {
	return math.Sqrt(a * b)
}

func (DefaultCoefficientMixer) MixRestitution(a, b float64) float64 {
	return math.Max(a, b)
}

// applyImpulse changes the velocities of body by impulse applied at r from
// its center of mass.
func applyImpulse(body *actor.Body, impulse, r mgl64.Vec2) {
	mass := body.Mass()
	if invM := mass.InverseMass(); invM != 0 {
		body.SetLinearVelocity(body.LinearVelocity().Add(impulse.Mul(invM)))
	}
	if invI := mass.InverseInertia(); invI != 0 {
		body.SetAngularVelocity(body.AngularVelocity() + invI*actor.Cross(r, impulse))
	}
}

// applyAngularImpulse changes the angular velocity of body.
func applyAngularImpulse(body *actor.Body, impulse float64) {
	if invI := body.Mass().InverseInertia(); invI != 0 {
		body.SetAngularVelocity(body.AngularVelocity() + invI*impulse)
	}
}

// applyCorrection moves body by the position impulse applied at r from its
// center of mass.
func applyCorrection(body *actor.Body, impulse, r mgl64.Vec2) {
	mass := body.Mass()
	if invM := mass.InverseMass(); invM != 0 {
		body.Translate(impulse.Mul(invM))
	}
	if invI := mass.InverseInertia(); invI != 0 {
		body.RotateAboutCenter(invI * actor.Cross(r, impulse))
	}
}

// velocityAt returns the velocity of the point at r from the center of mass.
func velocityAt(body *actor.Body, r mgl64.Vec2) mgl64.Vec2 {
	return body.LinearVelocity().Add(actor.CrossSV(body.AngularVelocity(), r))
}

// invert returns 1/k, or 0 for a degenerate effective mass.
func invert(k float64) float64 {
	if k > actor.Epsilon {
		return 1.0 / k
	}
	return 0
}

// applyAngularCorrection rotates body by the angular position impulse.
func applyAngularCorrection(body *actor.Body, impulse float64) {
	if invI := body.Mass().InverseInertia(); invI != 0 {
		body.RotateAboutCenter(invI * impulse)
	}
}
