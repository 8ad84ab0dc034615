package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// maxConditionNumber bounds the condition number of the two point block
// matrix. Above it the points are solved one after the other.
const maxConditionNumber = 1000.0

// ContactSolver solves contact constraints with sequential impulses.
// It is reused for every island: Initialize replaces its working set.
type ContactSolver struct {
	constraints []*ContactConstraint
	settings    settings.Settings
}

// Initialize prepares the constraints for the velocity iterations and applies
// the warm start impulses. Sensor and disabled constraints are ignored.
func (s *ContactSolver) Initialize(constraints []*ContactConstraint, step settings.Step, cfg settings.Settings) {
	s.settings = cfg
	s.constraints = s.constraints[:0]
	for _, c := range constraints {
		if c.sensor || !c.enabled {
			continue
		}
		s.constraints = append(s.constraints, c)
	}

	for _, c := range s.constraints {
		s.initialize(c, step)
	}
}

func (s *ContactSolver) initialize(c *ContactConstraint, step settings.Step) {
	bodyA, bodyB := c.bodyA, c.bodyB
	massA, massB := bodyA.Mass(), bodyB.Mass()
	invMA, invIA := massA.InverseMass(), massA.InverseInertia()
	invMB, invIB := massB.InverseMass(), massB.InverseInertia()
	centerA, centerB := bodyA.WorldCenter(), bodyB.WorldCenter()
	n, t := c.Normal, c.Tangent

	for i := range c.Contacts {
		contact := &c.Contacts[i]
		if !contact.enabled {
			continue
		}

		contact.rA = contact.Point.Sub(centerA)
		contact.rB = contact.Point.Sub(centerB)

		rnA := actor.Cross(contact.rA, n)
		rnB := actor.Cross(contact.rB, n)
		contact.normalMass = invert(invMA + invMB + invIA*rnA*rnA + invIB*rnB*rnB)

		rtA := actor.Cross(contact.rA, t)
		rtB := actor.Cross(contact.rB, t)
		contact.tangentMass = invert(invMA + invMB + invIA*rtA*rtA + invIB*rtB*rtB)

		// restitution only above the threshold approach speed
		contact.velocityBias = 0
		rv := velocityAt(bodyB, contact.rB).Sub(velocityAt(bodyA, contact.rA))
		if vn := n.Dot(rv); vn < -s.settings.RestitutionVelocity {
			contact.velocityBias = -c.Restitution * vn
		}

		if !s.settings.WarmStartingEnabled {
			contact.NormalImpulse = 0
			contact.TangentImpulse = 0
			continue
		}

		contact.NormalImpulse *= step.DtRatio
		contact.TangentImpulse *= step.DtRatio
		impulse := n.Mul(contact.NormalImpulse).Add(t.Mul(contact.TangentImpulse))
		applyImpulse(bodyA, impulse.Mul(-1), contact.rA)
		applyImpulse(bodyB, impulse, contact.rB)
	}

	c.block = false
	if len(c.Contacts) != 2 || !c.Contacts[0].enabled || !c.Contacts[1].enabled {
		return
	}

	c1, c2 := &c.Contacts[0], &c.Contacts[1]
	rn1A, rn1B := actor.Cross(c1.rA, n), actor.Cross(c1.rB, n)
	rn2A, rn2B := actor.Cross(c2.rA, n), actor.Cross(c2.rB, n)
	k11 := invMA + invMB + invIA*rn1A*rn1A + invIB*rn1B*rn1B
	k22 := invMA + invMB + invIA*rn2A*rn2A + invIB*rn2B*rn2B
	k12 := invMA + invMB + invIA*rn1A*rn2A + invIB*rn1B*rn2B

	if k11*k11 < maxConditionNumber*(k11*k22-k12*k12) {
		c.block = true
		c.k = mgl64.Mat2{k11, k12, k12, k22}
		c.blockMass = c.k.Inv()
	}
}

// SolveVelocityConstraints runs one velocity iteration over every constraint.
// Friction is solved first so that the normal impulse has the last word on
// penetration. The normal impulses of a two point constraint are solved
// together, which keeps a box landing flat from tipping over.
func (s *ContactSolver) SolveVelocityConstraints() {
	for _, c := range s.constraints {
		bodyA, bodyB := c.bodyA, c.bodyB
		n, t := c.Normal, c.Tangent

		for i := range c.Contacts {
			contact := &c.Contacts[i]
			if !contact.enabled {
				continue
			}

			rv := velocityAt(bodyB, contact.rB).Sub(velocityAt(bodyA, contact.rA))
			lambda := -contact.tangentMass * t.Dot(rv)

			// Coulomb's law: |friction| <= mu * normal
			maxFriction := c.Friction * contact.NormalImpulse
			accumulated := actor.Clamp(contact.TangentImpulse+lambda, -maxFriction, maxFriction)
			lambda = accumulated - contact.TangentImpulse
			contact.TangentImpulse = accumulated

			impulse := t.Mul(lambda)
			applyImpulse(bodyA, impulse.Mul(-1), contact.rA)
			applyImpulse(bodyB, impulse, contact.rB)
		}

		if c.block {
			solveBlock(c)
			continue
		}

		for i := range c.Contacts {
			contact := &c.Contacts[i]
			if !contact.enabled {
				continue
			}

			rv := velocityAt(bodyB, contact.rB).Sub(velocityAt(bodyA, contact.rA))
			lambda := -contact.normalMass * (n.Dot(rv) - contact.velocityBias)

			// the accumulated impulse can only push
			accumulated := math.Max(contact.NormalImpulse+lambda, 0)
			lambda = accumulated - contact.NormalImpulse
			contact.NormalImpulse = accumulated

			impulse := n.Mul(lambda)
			applyImpulse(bodyA, impulse.Mul(-1), contact.rA)
			applyImpulse(bodyB, impulse, contact.rB)
		}
	}
}

// solveBlock solves the normal impulses of a two point constraint as the
// linear complementarity problem
//
//	vn = K * x + b,  x >= 0,  vn >= 0,  x . vn = 0
//
// where x are the accumulated impulses and b the relative normal velocities
// before any normal impulse, trying each of the four cases in turn.
func solveBlock(c *ContactConstraint) {
	bodyA, bodyB := c.bodyA, c.bodyB
	n := c.Normal
	c1, c2 := &c.Contacts[0], &c.Contacts[1]

	a := mgl64.Vec2{c1.NormalImpulse, c2.NormalImpulse}
	vn1 := n.Dot(velocityAt(bodyB, c1.rB).Sub(velocityAt(bodyA, c1.rA)))
	vn2 := n.Dot(velocityAt(bodyB, c2.rB).Sub(velocityAt(bodyA, c2.rA)))
	b := mgl64.Vec2{vn1 - c1.velocityBias, vn2 - c2.velocityBias}.Sub(c.k.Mul2x1(a))

	apply := func(x mgl64.Vec2) {
		d := x.Sub(a)
		p1, p2 := n.Mul(d[0]), n.Mul(d[1])
		applyImpulse(bodyA, p1.Mul(-1), c1.rA)
		applyImpulse(bodyA, p2.Mul(-1), c2.rA)
		applyImpulse(bodyB, p1, c1.rB)
		applyImpulse(bodyB, p2, c2.rB)
		c1.NormalImpulse = x[0]
		c2.NormalImpulse = x[1]
	}

	// both points active: vn = 0
	if x := c.blockMass.Mul2x1(b).Mul(-1); x[0] >= 0 && x[1] >= 0 {
		apply(x)
		return
	}

	// only the first point active: vn1 = 0, x2 = 0
	x := mgl64.Vec2{-c1.normalMass * b[0], 0}
	if vn2 = c.k[1]*x[0] + b[1]; x[0] >= 0 && vn2 >= 0 {
		apply(x)
		return
	}

	// only the second point active: x1 = 0, vn2 = 0
	x = mgl64.Vec2{0, -c2.normalMass * b[1]}
	if vn1 = c.k[2]*x[1] + b[0]; x[1] >= 0 && vn1 >= 0 {
		apply(x)
		return
	}

	// both separating: x = 0
	if b[0] >= 0 && b[1] >= 0 {
		apply(mgl64.Vec2{})
	}
	// no solution means the problem is degenerate, keep the impulses
}

// SolvePositionConstraints runs one position iteration and reports whether
// every contact penetrates less than three times the linear tolerance.
func (s *ContactSolver) SolvePositionConstraints() bool {
	linearTolerance := s.settings.LinearTolerance
	minSeparation := 0.0

	for _, c := range s.constraints {
		bodyA, bodyB := c.bodyA, c.bodyB
		massA, massB := bodyA.Mass(), bodyB.Mass()
		invMA, invIA := massA.InverseMass(), massA.InverseInertia()
		invMB, invIB := massB.InverseMass(), massB.InverseInertia()
		n := c.Normal

		for i := range c.Contacts {
			contact := &c.Contacts[i]
			if !contact.enabled {
				continue
			}

			pA := bodyA.ToWorld(contact.LocalPointA)
			pB := bodyB.ToWorld(contact.LocalPointB)
			separation := pB.Sub(pA).Dot(n) - contact.Depth
			minSeparation = math.Min(minSeparation, separation)

			rA := pA.Sub(bodyA.WorldCenter())
			rB := pB.Sub(bodyB.WorldCenter())
			rnA := actor.Cross(rA, n)
			rnB := actor.Cross(rB, n)
			k := invMA + invMB + invIA*rnA*rnA + invIB*rnB*rnB

			correction := actor.Clamp(s.settings.Baumgarte*(separation+linearTolerance), -s.settings.MaximumLinearCorrection, 0)
			impulse := n.Mul(-correction * invert(k))

			applyCorrection(bodyA, impulse.Mul(-1), rA)
			applyCorrection(bodyB, impulse, rB)
		}
	}

	return minSeparation >= -3.0*linearTolerance
}

// Constraints returns the working set of the last Initialize.
func (s *ContactSolver) Constraints() []*ContactConstraint {
	return s.constraints
}

// TotalImpulse returns the sum of the impulses applied on body B.
func (c *ContactConstraint) TotalImpulse() mgl64.Vec2 {
	normal, tangent := 0.0, 0.0
	for _, contact := range c.Contacts {
		normal += contact.NormalImpulse
		tangent += contact.TangentImpulse
	}
	return c.Normal.Mul(normal).Add(c.Tangent.Mul(tangent))
}
