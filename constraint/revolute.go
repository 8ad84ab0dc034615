package constraint

import (
	"fmt"
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/settings"
	"github.com/go-gl/mathgl/mgl64"
)

type limitState int

const (
	limitInactive limitState = iota
	limitAtLower
	limitAtUpper
	limitEqual
)

// RevoluteJoint pins two bodies together at a point, leaving the relative
// rotation free. The rotation can be driven by a motor and bounded by limits.
//
//	C1 = pB - pA
//	C2 = angleB - angleA - referenceAngle, only while a limit is reached
type RevoluteJoint struct {
	jointBase

	localAnchorA   mgl64.Vec2
	localAnchorB   mgl64.Vec2
	referenceAngle float64

	motorEnabled   bool
	motorSpeed     float64
	maxMotorTorque float64

	limitEnabled bool
	lowerLimit   float64
	upperLimit   float64
	limitState   limitState

	impulse      mgl64.Vec3
	motorImpulse float64

	rA, rB    mgl64.Vec2
	k         mgl64.Mat3
	motorMass float64
}

// NewRevoluteJoint pins bodyA and bodyB at the world point anchor.
func NewRevoluteJoint(bodyA, bodyB *actor.Body, anchor mgl64.Vec2) (*RevoluteJoint, error) {
	base, err := newJointBase(bodyA, bodyB)
	if err != nil {
		return nil, fmt.Errorf("revolute joint: %w", err)
	}

	return &RevoluteJoint{
		jointBase:      base,
		localAnchorA:   bodyA.ToLocal(anchor),
		localAnchorB:   bodyB.ToLocal(anchor),
		referenceAngle: bodyB.Transform().Angle() - bodyA.Transform().Angle(),
	}, nil
}

// JointAngle returns the rotation of bodyB relative to bodyA since the joint creation.
func (j *RevoluteJoint) JointAngle() float64 {
	return relativeAngle(j.bodyA, j.bodyB, j.referenceAngle)
}

// JointSpeed returns the relative angular velocity.
func (j *RevoluteJoint) JointSpeed() float64 {
	return j.bodyB.AngularVelocity() - j.bodyA.AngularVelocity()
}

func (j *RevoluteJoint) IsMotorEnabled() bool {
	return j.motorEnabled
}

// SetMotor drives the joint at speed rad/s using at most maxTorque N.m.
// The bodies are woken up.
func (j *RevoluteJoint) SetMotor(enabled bool, speed, maxTorque float64) error {
	if !(maxTorque >= 0) {
		return fmt.Errorf("revolute joint max motor torque %v: %w", maxTorque, ErrInvalidParameter)
	}
	j.motorEnabled = enabled
	j.motorSpeed = speed
	j.maxMotorTorque = maxTorque
	j.bodyA.SetAsleep(false)
	j.bodyB.SetAsleep(false)
	return nil
}

func (j *RevoluteJoint) MotorSpeed() float64 {
	return j.motorSpeed
}

func (j *RevoluteJoint) MaxMotorTorque() float64 {
	return j.maxMotorTorque
}

// MotorTorque returns the torque applied by the motor during the last step.
func (j *RevoluteJoint) MotorTorque(invDt float64) float64 {
	return j.motorImpulse * invDt
}

func (j *RevoluteJoint) IsLimitEnabled() bool {
	return j.limitEnabled
}

// SetLimits bounds the joint angle to [lower, upper], both within [-pi, pi].
func (j *RevoluteJoint) SetLimits(enabled bool, lower, upper float64) error {
	if lower > upper || lower < -math.Pi || upper > math.Pi {
		return fmt.Errorf("revolute joint limits [%v, %v]: %w", lower, upper, ErrInvalidParameter)
	}
	if enabled != j.limitEnabled || lower != j.lowerLimit || upper != j.upperLimit {
		j.impulse[2] = 0
	}
	j.limitEnabled = enabled
	j.lowerLimit = lower
	j.upperLimit = upper
	j.bodyA.SetAsleep(false)
	j.bodyB.SetAsleep(false)
	return nil
}

func (j *RevoluteJoint) LowerLimit() float64 {
	return j.lowerLimit
}

func (j *RevoluteJoint) UpperLimit() float64 {
	return j.upperLimit
}

func (j *RevoluteJoint) InitializeConstraints(step settings.Step, cfg settings.Settings) {
	bodyA, bodyB := j.bodyA, j.bodyB
	massA, massB := bodyA.Mass(), bodyB.Mass()
	invMA, invIA := massA.InverseMass(), massA.InverseInertia()
	invMB, invIB := massB.InverseMass(), massB.InverseInertia()

	j.rA = bodyA.ToWorldVector(j.localAnchorA.Sub(bodyA.LocalCenter()))
	j.rB = bodyB.ToWorldVector(j.localAnchorB.Sub(bodyB.LocalCenter()))
	j.k = pointMatrix(invMA, invIA, invMB, invIB, j.rA, j.rB)
	j.motorMass = invert(invIA + invIB)

	fixedRotation := invIA+invIB == 0
	if !j.motorEnabled || fixedRotation {
		j.motorImpulse = 0
	}

	if j.limitEnabled && !fixedRotation {
		angle := j.JointAngle()
		previous := j.limitState
		switch {
		case math.Abs(j.upperLimit-j.lowerLimit) < 2*cfg.AngularTolerance:
			j.limitState = limitEqual
		case angle <= j.lowerLimit:
			j.limitState = limitAtLower
		case angle >= j.upperLimit:
			j.limitState = limitAtUpper
		default:
			j.limitState = limitInactive
		}
		if j.limitState != previous && j.limitState != limitEqual {
			j.impulse[2] = 0
		}
	} else {
		j.limitState = limitInactive
		j.impulse[2] = 0
	}

	if !cfg.WarmStartingEnabled {
		j.impulse = mgl64.Vec3{}
		j.motorImpulse = 0
		return
	}

	j.impulse = j.impulse.Mul(step.DtRatio)
	j.motorImpulse *= step.DtRatio

	p := j.impulse.Vec2()
	angular := j.motorImpulse + j.impulse[2]
	applyImpulse(bodyA, p.Mul(-1), j.rA)
	applyAngularImpulse(bodyA, -angular)
	applyImpulse(bodyB, p, j.rB)
	applyAngularImpulse(bodyB, angular)
}

func (j *RevoluteJoint) SolveVelocityConstraints(step settings.Step, cfg settings.Settings) {
	bodyA, bodyB := j.bodyA, j.bodyB
	fixedRotation := j.motorMass == 0

	if j.motorEnabled && j.limitState != limitEqual && !fixedRotation {
		cdot := j.JointSpeed() - j.motorSpeed
		maxImpulse := j.maxMotorTorque * step.Dt
		previous := j.motorImpulse
		j.motorImpulse = actor.Clamp(previous-j.motorMass*cdot, -maxImpulse, maxImpulse)
		impulse := j.motorImpulse - previous
		applyAngularImpulse(bodyA, -impulse)
		applyAngularImpulse(bodyB, impulse)
	}

	cdot1 := velocityAt(bodyB, j.rB).Sub(velocityAt(bodyA, j.rA))

	if j.limitEnabled && j.limitState != limitInactive && !fixedRotation {
		cdot2 := j.JointSpeed()
		impulse := solve33(j.k, mgl64.Vec3{cdot1[0], cdot1[1], cdot2}).Mul(-1)

		switch j.limitState {
		case limitEqual:
			j.impulse = j.impulse.Add(impulse)
		case limitAtLower, limitAtUpper:
			accumulated := j.impulse[2] + impulse[2]
			// the limit can only push away from its bound
			if (j.limitState == limitAtLower && accumulated < 0) || (j.limitState == limitAtUpper && accumulated > 0) {
				rhs := cdot1.Mul(-1).Add(mgl64.Vec2{j.k[6], j.k[7]}.Mul(j.impulse[2]))
				reduced := solve22(j.k, rhs)
				impulse = mgl64.Vec3{reduced[0], reduced[1], -j.impulse[2]}
				j.impulse[0] += reduced[0]
				j.impulse[1] += reduced[1]
				j.impulse[2] = 0
			} else {
				j.impulse = j.impulse.Add(impulse)
			}
		}

		p := impulse.Vec2()
		applyImpulse(bodyA, p.Mul(-1), j.rA)
		applyAngularImpulse(bodyA, -impulse[2])
		applyImpulse(bodyB, p, j.rB)
		applyAngularImpulse(bodyB, impulse[2])
		return
	}

	impulse := solve22(j.k, cdot1.Mul(-1))
	j.impulse[0] += impulse[0]
	j.impulse[1] += impulse[1]
	applyImpulse(bodyA, impulse.Mul(-1), j.rA)
	applyImpulse(bodyB, impulse, j.rB)
}

func (j *RevoluteJoint) SolvePositionConstraints(step settings.Step, cfg settings.Settings) bool {
	bodyA, bodyB := j.bodyA, j.bodyB
	massA, massB := bodyA.Mass(), bodyB.Mass()
	invMA, invIA := massA.InverseMass(), massA.InverseInertia()
	invMB, invIB := massB.InverseMass(), massB.InverseInertia()
	fixedRotation := invIA+invIB == 0

	angularError := 0.0
	if j.limitEnabled && j.limitState != limitInactive && !fixedRotation {
		angle := j.JointAngle()
		maxCorrection := cfg.MaximumAngularCorrection
		var c float64

		switch j.limitState {
		case limitEqual:
			c = actor.Clamp(angle-j.lowerLimit, -maxCorrection, maxCorrection)
			angularError = math.Abs(c)
		case limitAtLower:
			c = angle - j.lowerLimit
			angularError = -c
			c = actor.Clamp(c+cfg.AngularTolerance, -maxCorrection, 0)
		case limitAtUpper:
			c = angle - j.upperLimit
			angularError = c
			c = actor.Clamp(c-cfg.AngularTolerance, 0, maxCorrection)
		}

		limitImpulse := -invert(invIA+invIB) * c
		applyAngularCorrection(bodyA, -limitImpulse)
		applyAngularCorrection(bodyB, limitImpulse)
	}

	rA := bodyA.ToWorldVector(j.localAnchorA.Sub(bodyA.LocalCenter()))
	rB := bodyB.ToWorldVector(j.localAnchorB.Sub(bodyB.LocalCenter()))
	c := bodyB.WorldCenter().Add(rB).Sub(bodyA.WorldCenter()).Sub(rA)
	positionError := c.Len()

	impulse := solve22(pointMatrix(invMA, invIA, invMB, invIB, rA, rB), c).Mul(-1)
	applyCorrection(bodyA, impulse.Mul(-1), rA)
	applyCorrection(bodyB, impulse, rB)

	return positionError <= cfg.LinearTolerance && angularError <= cfg.AngularTolerance
}

func (j *RevoluteJoint) AnchorA() mgl64.Vec2 {
	return j.bodyA.ToWorld(j.localAnchorA)
}

func (j *RevoluteJoint) AnchorB() mgl64.Vec2 {
	return j.bodyB.ToWorld(j.localAnchorB)
}

func (j *RevoluteJoint) ReactionForce(invDt float64) mgl64.Vec2 {
	return j.impulse.Vec2().Mul(invDt)
}

func (j *RevoluteJoint) ReactionTorque(invDt float64) float64 {
	return j.impulse[2] * invDt
}
