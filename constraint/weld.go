package constraint

import (
	"fmt"
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// WeldJoint glues two bodies together at an anchor point. The relative
// rotation can be softened into an angular spring-damper.
//
//	C1 = pB - pA
//	C2 = angleB - angleA - referenceAngle
type WeldJoint struct {
	jointBase

	localAnchorA   mgl64.Vec2
	localAnchorB   mgl64.Vec2
	referenceAngle float64
	frequency      float64
	dampingRatio   float64

	impulse mgl64.Vec3

	rA, rB mgl64.Vec2
	mass   mgl64.Mat3
	gamma  float64
	bias   float64
}

// NewWeldJoint welds bodyA and bodyB at the world point anchor, keeping their
// current relative angle.
func NewWeldJoint(bodyA, bodyB *actor.Body, anchor mgl64.Vec2) (*WeldJoint, error) {
	base, err := newJointBase(bodyA, bodyB)
	if err != nil {
		return nil, fmt.Errorf("weld joint: %w", err)
	}

	return &WeldJoint{
		jointBase:      base,
		localAnchorA:   bodyA.ToLocal(anchor),
		localAnchorB:   bodyB.ToLocal(anchor),
		referenceAngle: bodyB.Transform().Angle() - bodyA.Transform().Angle(),
	}, nil
}

func (j *WeldJoint) ReferenceAngle() float64 {
	return j.referenceAngle
}

func (j *WeldJoint) Frequency() float64 {
	return j.frequency
}

func (j *WeldJoint) DampingRatio() float64 {
	return j.dampingRatio
}

// SetSpring softens the angular constraint. A zero frequency makes it rigid.
func (j *WeldJoint) SetSpring(frequency, dampingRatio float64) error {
	if err := validateSpring(frequency, dampingRatio); err != nil {
		return fmt.Errorf("weld joint: %w", err)
	}
	j.frequency = frequency
	j.dampingRatio = dampingRatio
	return nil
}

func (j *WeldJoint) IsSpring() bool {
	return j.frequency > 0
}

func (j *WeldJoint) InitializeConstraints(step settings.Step, cfg settings.Settings) {
	bodyA, bodyB := j.bodyA, j.bodyB
	massA, massB := bodyA.Mass(), bodyB.Mass()
	invMA, invIA := massA.InverseMass(), massA.InverseInertia()
	invMB, invIB := massB.InverseMass(), massB.InverseInertia()

	j.rA = bodyA.ToWorldVector(j.localAnchorA.Sub(bodyA.LocalCenter()))
	j.rB = bodyB.ToWorldVector(j.localAnchorB.Sub(bodyB.LocalCenter()))
	k := pointMatrix(invMA, invIA, invMB, invIB, j.rA, j.rB)

	j.gamma, j.bias = 0, 0
	switch {
	case j.frequency > 0:
		mass22 := upper22(k).Inv()
		invM := invIA + invIB
		gamma, biasFactor := springCoefficients(invert(invM), j.frequency, j.dampingRatio, step.Dt)
		j.gamma = gamma
		j.bias = relativeAngle(bodyA, bodyB, j.referenceAngle) * biasFactor
		j.mass = mgl64.Mat3{
			mass22[0], mass22[1], 0,
			mass22[2], mass22[3], 0,
			0, 0, invert(invM + j.gamma),
		}
	case k[8] == 0:
		mass22 := upper22(k).Inv()
		j.mass = mgl64.Mat3{
			mass22[0], mass22[1], 0,
			mass22[2], mass22[3], 0,
			0, 0, 0,
		}
	default:
		j.mass = k.Inv()
	}

	if !cfg.WarmStartingEnabled {
		j.impulse = mgl64.Vec3{}
		return
	}

	j.impulse = j.impulse.Mul(step.DtRatio)
	p := j.impulse.Vec2()
	applyImpulse(bodyA, p.Mul(-1), j.rA)
	applyAngularImpulse(bodyA, -j.impulse[2])
	applyImpulse(bodyB, p, j.rB)
	applyAngularImpulse(bodyB, j.impulse[2])
}

func (j *WeldJoint) SolveVelocityConstraints(step settings.Step, cfg settings.Settings) {
	bodyA, bodyB := j.bodyA, j.bodyB

	if j.frequency > 0 {
		cdot2 := bodyB.AngularVelocity() - bodyA.AngularVelocity()
		impulse2 := -j.mass[8] * (cdot2 + j.bias + j.gamma*j.impulse[2])
		j.impulse[2] += impulse2
		applyAngularImpulse(bodyA, -impulse2)
		applyAngularImpulse(bodyB, impulse2)

		cdot1 := velocityAt(bodyB, j.rB).Sub(velocityAt(bodyA, j.rA))
		mass22 := mgl64.Mat2{j.mass[0], j.mass[1], j.mass[3], j.mass[4]}
		impulse1 := mass22.Mul2x1(cdot1).Mul(-1)
		j.impulse[0] += impulse1[0]
		j.impulse[1] += impulse1[1]
		applyImpulse(bodyA, impulse1.Mul(-1), j.rA)
		applyImpulse(bodyB, impulse1, j.rB)
		return
	}

	cdot1 := velocityAt(bodyB, j.rB).Sub(velocityAt(bodyA, j.rA))
	cdot2 := bodyB.AngularVelocity() - bodyA.AngularVelocity()
	impulse := j.mass.Mul3x1(mgl64.Vec3{cdot1[0], cdot1[1], cdot2}).Mul(-1)
	j.impulse = j.impulse.Add(impulse)

	p := impulse.Vec2()
	applyImpulse(bodyA, p.Mul(-1), j.rA)
	applyAngularImpulse(bodyA, -impulse[2])
	applyImpulse(bodyB, p, j.rB)
	applyAngularImpulse(bodyB, impulse[2])
}

func (j *WeldJoint) SolvePositionConstraints(step settings.Step, cfg settings.Settings) bool {
	bodyA, bodyB := j.bodyA, j.bodyB
	massA, massB := bodyA.Mass(), bodyB.Mass()
	invMA, invIA := massA.InverseMass(), massA.InverseInertia()
	invMB, invIB := massB.InverseMass(), massB.InverseInertia()

	rA := bodyA.ToWorldVector(j.localAnchorA.Sub(bodyA.LocalCenter()))
	rB := bodyB.ToWorldVector(j.localAnchorB.Sub(bodyB.LocalCenter()))
	k := pointMatrix(invMA, invIA, invMB, invIB, rA, rB)

	c1 := bodyB.WorldCenter().Add(rB).Sub(bodyA.WorldCenter()).Sub(rA)
	positionError := c1.Len()
	angularError := 0.0

	if j.frequency > 0 {
		p := solve22(k, c1).Mul(-1)
		applyCorrection(bodyA, p.Mul(-1), rA)
		applyCorrection(bodyB, p, rB)
	} else {
		c2 := relativeAngle(bodyA, bodyB, j.referenceAngle)
		angularError = math.Abs(c2)

		var impulse mgl64.Vec3
		if k[8] > 0 {
			impulse = solve33(k, mgl64.Vec3{c1[0], c1[1], c2}).Mul(-1)
		} else {
			impulse = solve22(k, c1).Mul(-1).Vec3(0)
		}

		p := impulse.Vec2()
		applyCorrection(bodyA, p.Mul(-1), rA)
		applyAngularCorrection(bodyA, -impulse[2])
		applyCorrection(bodyB, p, rB)
		applyAngularCorrection(bodyB, impulse[2])
	}

	return positionError <= cfg.LinearTolerance && angularError <= cfg.AngularTolerance
}

func (j *WeldJoint) AnchorA() mgl64.Vec2 {
	return j.bodyA.ToWorld(j.localAnchorA)
}

func (j *WeldJoint) AnchorB() mgl64.Vec2 {
	return j.bodyB.ToWorld(j.localAnchorB)
}

func (j *WeldJoint) ReactionForce(invDt float64) mgl64.Vec2 {
	return j.impulse.Vec2().Mul(invDt)
}

func (j *WeldJoint) ReactionTorque(invDt float64) float64 {
	return j.impulse[2] * invDt
}
