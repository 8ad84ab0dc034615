package constraint

import (
	"fmt"
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// DistanceJoint keeps two anchor points at a fixed distance, or behaves as a
// spring-damper around that distance when a frequency is set.
//
//	C = |pB - pA| - L
//	u = (pB - pA) / |pB - pA|
//	Cdot = dot(u, vB + cross(wB, rB) - vA - cross(wA, rA))
type DistanceJoint struct {
	jointBase

	localAnchorA mgl64.Vec2
	localAnchorB mgl64.Vec2
	length       float64
	frequency    float64
	dampingRatio float64

	impulse float64

	u, rA, rB mgl64.Vec2
	mass      float64
	gamma     float64
	bias      float64
}

// NewDistanceJoint joins the world points anchorA on bodyA and anchorB on
// bodyB, keeping their current distance.
func NewDistanceJoint(bodyA, bodyB *actor.Body, anchorA, anchorB mgl64.Vec2) (*DistanceJoint, error) {
	base, err := newJointBase(bodyA, bodyB)
	if err != nil {
		return nil, fmt.Errorf("distance joint: %w", err)
	}

	return &DistanceJoint{
		jointBase:    base,
		localAnchorA: bodyA.ToLocal(anchorA),
		localAnchorB: bodyB.ToLocal(anchorB),
		length:       anchorB.Sub(anchorA).Len(),
	}, nil
}

func (j *DistanceJoint) Length() float64 {
	return j.length
}

// SetLength changes the rest length, which must not be negative.
func (j *DistanceJoint) SetLength(length float64) error {
	if !(length >= 0) {
		return fmt.Errorf("distance joint length %v: %w", length, ErrInvalidParameter)
	}
	j.length = length
	return nil
}

func (j *DistanceJoint) Frequency() float64 {
	return j.frequency
}

func (j *DistanceJoint) DampingRatio() float64 {
	return j.dampingRatio
}

// SetSpring turns the joint into a spring-damper. A zero frequency makes it rigid.
func (j *DistanceJoint) SetSpring(frequency, dampingRatio float64) error {
	if err := validateSpring(frequency, dampingRatio); err != nil {
		return fmt.Errorf("distance joint: %w", err)
	}
	j.frequency = frequency
	j.dampingRatio = dampingRatio
	return nil
}

func (j *DistanceJoint) IsSpring() bool {
	return j.frequency > 0
}

func (j *DistanceJoint) InitializeConstraints(step settings.Step, cfg settings.Settings) {
	bodyA, bodyB := j.bodyA, j.bodyB
	massA, massB := bodyA.Mass(), bodyB.Mass()
	invMA, invIA := massA.InverseMass(), massA.InverseInertia()
	invMB, invIB := massB.InverseMass(), massB.InverseInertia()

	j.rA = bodyA.ToWorldVector(j.localAnchorA.Sub(bodyA.LocalCenter()))
	j.rB = bodyB.ToWorldVector(j.localAnchorB.Sub(bodyB.LocalCenter()))
	d := bodyB.WorldCenter().Add(j.rB).Sub(bodyA.WorldCenter()).Sub(j.rA)

	length := d.Len()
	j.u = mgl64.Vec2{}
	if length > cfg.LinearTolerance {
		j.u = d.Mul(1.0 / length)
	}

	crA := actor.Cross(j.rA, j.u)
	crB := actor.Cross(j.rB, j.u)
	invMass := invMA + invIA*crA*crA + invMB + invIB*crB*crB
	j.mass = invert(invMass)

	j.gamma, j.bias = 0, 0
	if j.frequency > 0 && j.mass > 0 {
		gamma, biasFactor := springCoefficients(j.mass, j.frequency, j.dampingRatio, step.Dt)
		j.gamma = gamma
		j.bias = (length - j.length) * biasFactor
		j.mass = invert(invMass + j.gamma)
	}

	if !cfg.WarmStartingEnabled {
		j.impulse = 0
		return
	}

	j.impulse *= step.DtRatio
	impulse := j.u.Mul(j.impulse)
	applyImpulse(bodyA, impulse.Mul(-1), j.rA)
	applyImpulse(bodyB, impulse, j.rB)
}

func (j *DistanceJoint) SolveVelocityConstraints(step settings.Step, cfg settings.Settings) {
	cdot := j.u.Dot(velocityAt(j.bodyB, j.rB).Sub(velocityAt(j.bodyA, j.rA)))

	lambda := -j.mass * (cdot + j.bias + j.gamma*j.impulse)
	j.impulse += lambda

	impulse := j.u.Mul(lambda)
	applyImpulse(j.bodyA, impulse.Mul(-1), j.rA)
	applyImpulse(j.bodyB, impulse, j.rB)
}

// SolvePositionConstraints does nothing for a spring: its drift is the spring.
func (j *DistanceJoint) SolvePositionConstraints(step settings.Step, cfg settings.Settings) bool {
	if j.frequency > 0 {
		return true
	}

	bodyA, bodyB := j.bodyA, j.bodyB
	massA, massB := bodyA.Mass(), bodyB.Mass()
	invMA, invIA := massA.InverseMass(), massA.InverseInertia()
	invMB, invIB := massB.InverseMass(), massB.InverseInertia()

	rA := bodyA.ToWorldVector(j.localAnchorA.Sub(bodyA.LocalCenter()))
	rB := bodyB.ToWorldVector(j.localAnchorB.Sub(bodyB.LocalCenter()))
	u, length := actor.SafeNormalize(bodyB.WorldCenter().Add(rB).Sub(bodyA.WorldCenter()).Sub(rA))

	c := actor.Clamp(length-j.length, -cfg.MaximumLinearCorrection, cfg.MaximumLinearCorrection)

	crA := actor.Cross(rA, u)
	crB := actor.Cross(rB, u)
	mass := invert(invMA + invIA*crA*crA + invMB + invIB*crB*crB)

	impulse := u.Mul(-mass * c)
	applyCorrection(bodyA, impulse.Mul(-1), rA)
	applyCorrection(bodyB, impulse, rB)

	return math.Abs(c) < cfg.LinearTolerance
}

func (j *DistanceJoint) AnchorA() mgl64.Vec2 {
	return j.bodyA.ToWorld(j.localAnchorA)
}

func (j *DistanceJoint) AnchorB() mgl64.Vec2 {
	return j.bodyB.ToWorld(j.localAnchorB)
}

func (j *DistanceJoint) ReactionForce(invDt float64) mgl64.Vec2 {
	return j.u.Mul(j.impulse * invDt)
}

func (j *DistanceJoint) ReactionTorque(invDt float64) float64 {
	return 0
}
