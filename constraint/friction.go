package constraint

import (
	"fmt"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// FrictionJoint damps the relative motion of two bodies with a bounded force
// and torque, like top-down friction. It has no position constraint.
type FrictionJoint struct {
	jointBase

	localAnchorA mgl64.Vec2
	localAnchorB mgl64.Vec2
	maxForce     float64
	maxTorque    float64

	linearImpulse  mgl64.Vec2
	angularImpulse float64

	rA, rB      mgl64.Vec2
	linearMass  mgl64.Mat2
	angularMass float64
}

// NewFrictionJoint joins bodyA and bodyB at the world point anchor.
func NewFrictionJoint(bodyA, bodyB *actor.Body, anchor mgl64.Vec2) (*FrictionJoint, error) {
	base, err := newJointBase(bodyA, bodyB)
	if err != nil {
		return nil, fmt.Errorf("friction joint: %w", err)
	}

	return &FrictionJoint{
		jointBase:    base,
		localAnchorA: bodyA.ToLocal(anchor),
		localAnchorB: bodyB.ToLocal(anchor),
	}, nil
}

func (j *FrictionJoint) MaxForce() float64 {
	return j.maxForce
}

// SetMaxForce sets the maximum friction force in N.
func (j *FrictionJoint) SetMaxForce(force float64) error {
	if !(force >= 0) {
		return fmt.Errorf("friction joint max force %v: %w", force, ErrInvalidParameter)
	}
	j.maxForce = force
	return nil
}

func (j *FrictionJoint) MaxTorque() float64 {
	return j.maxTorque
}

// SetMaxTorque sets the maximum friction torque in N.m.
func (j *FrictionJoint) SetMaxTorque(torque float64) error {
	if !(torque >= 0) {
		return fmt.Errorf("friction joint max torque %v: %w", torque, ErrInvalidParameter)
	}
	j.maxTorque = torque
	return nil
}

func (j *FrictionJoint) InitializeConstraints(step settings.Step, cfg settings.Settings) {
	bodyA, bodyB := j.bodyA, j.bodyB
	massA, massB := bodyA.Mass(), bodyB.Mass()
	invMA, invIA := massA.InverseMass(), massA.InverseInertia()
	invMB, invIB := massB.InverseMass(), massB.InverseInertia()

	j.rA = bodyA.ToWorldVector(j.localAnchorA.Sub(bodyA.LocalCenter()))
	j.rB = bodyB.ToWorldVector(j.localAnchorB.Sub(bodyB.LocalCenter()))

	j.linearMass = upper22(pointMatrix(invMA, invIA, invMB, invIB, j.rA, j.rB)).Inv()
	j.angularMass = invert(invIA + invIB)

	if !cfg.WarmStartingEnabled {
		j.linearImpulse = mgl64.Vec2{}
		j.angularImpulse = 0
		return
	}

	j.linearImpulse = j.linearImpulse.Mul(step.DtRatio)
	j.angularImpulse *= step.DtRatio

	applyImpulse(bodyA, j.linearImpulse.Mul(-1), j.rA)
	applyAngularImpulse(bodyA, -j.angularImpulse)
	applyImpulse(bodyB, j.linearImpulse, j.rB)
	applyAngularImpulse(bodyB, j.angularImpulse)
}

func (j *FrictionJoint) SolveVelocityConstraints(step settings.Step, cfg settings.Settings) {
	bodyA, bodyB := j.bodyA, j.bodyB

	// angular friction
	cdot := bodyB.AngularVelocity() - bodyA.AngularVelocity()
	maxAngular := j.maxTorque * step.Dt
	previous := j.angularImpulse
	j.angularImpulse = actor.Clamp(previous-j.angularMass*cdot, -maxAngular, maxAngular)
	angular := j.angularImpulse - previous
	applyAngularImpulse(bodyA, -angular)
	applyAngularImpulse(bodyB, angular)

	// linear friction
	cdotLinear := velocityAt(bodyB, j.rB).Sub(velocityAt(bodyA, j.rA))
	previousLinear := j.linearImpulse
	j.linearImpulse = j.linearImpulse.Sub(j.linearMass.Mul2x1(cdotLinear))

	maxLinear := j.maxForce * step.Dt
	if actor.LenSqr(j.linearImpulse) > maxLinear*maxLinear {
		direction, _ := actor.SafeNormalize(j.linearImpulse)
		j.linearImpulse = direction.Mul(maxLinear)
	}

	linear := j.linearImpulse.Sub(previousLinear)
	applyImpulse(bodyA, linear.Mul(-1), j.rA)
	applyImpulse(bodyB, linear, j.rB)
}

func (j *FrictionJoint) SolvePositionConstraints(step settings.Step, cfg settings.Settings) bool {
	return true
}

func (j *FrictionJoint) AnchorA() mgl64.Vec2 {
	return j.bodyA.ToWorld(j.localAnchorA)
}

func (j *FrictionJoint) AnchorB() mgl64.Vec2 {
	return j.bodyB.ToWorld(j.localAnchorB)
}

func (j *FrictionJoint) ReactionForce(invDt float64) mgl64.Vec2 {
	return j.linearImpulse.Mul(invDt)
}

func (j *FrictionJoint) ReactionTorque(invDt float64) float64 {
	return j.angularImpulse * invDt
}
