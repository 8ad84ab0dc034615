package actor

import (
	"github.com/go-gl/mathgl/mgl64"
)

// MassType controls which parts of a mass are treated as infinite
type MassType int

const (
	// MassNormal bodies respond to forces and impulses linearly and angularly
	MassNormal MassType = iota
	// MassInfinite bodies have infinite mass and inertia (static or kinematic)
	MassInfinite
	// MassFixedLinearVelocity bodies have infinite mass but can rotate
	MassFixedLinearVelocity
	// MassFixedAngularVelocity bodies have infinite inertia but can translate
	MassFixedAngularVelocity
)

func (t MassType) String() string {
	switch t {
	case MassNormal:
		return "normal"
	case MassInfinite:
		return "infinite"
	case MassFixedLinearVelocity:
		return "fixed-linear-velocity"
	case MassFixedAngularVelocity:
		return "fixed-angular-velocity"
	}
	return "unknown"
}

// Mass holds the mass, the rotational inertia about the center of mass and
// the local center of mass of a shape or a body.
type Mass struct {
	Center     mgl64.Vec2
	Type       MassType
	mass       float64
	inertia    float64
	invMass    float64
	invInertia float64
}

// NewMass creates a mass. A zero mass and inertia gives an infinite mass, a
// zero mass alone a fixed linear velocity, a zero inertia alone a fixed
// angular velocity.
func NewMass(center mgl64.Vec2, mass, inertia float64) Mass {
	m := Mass{Center: center, mass: mass, inertia: inertia}

	if mass > Epsilon {
		m.invMass = 1.0 / mass
	}
	if inertia > Epsilon {
		m.invInertia = 1.0 / inertia
	}

	switch {
	case m.invMass == 0 && m.invInertia == 0:
		m.Type = MassInfinite
	case m.invMass == 0:
		m.Type = MassFixedLinearVelocity
	case m.invInertia == 0:
		m.Type = MassFixedAngularVelocity
	default:
		m.Type = MassNormal
	}

	return m
}

// InfiniteMass returns the point mass used for bodies without fixtures.
func InfiniteMass() Mass {
	return NewMass(mgl64.Vec2{}, 0, 0)
}

// CombineMasses aggregates masses, placing the result at the mass weighted
// center and moving every inertia to it with the parallel axis theorem.
func CombineMasses(masses []Mass) Mass {
	switch len(masses) {
	case 0:
		return InfiniteMass()
	case 1:
		return masses[0]
	}

	var center mgl64.Vec2
	total := 0.0
	for _, m := range masses {
		center = center.Add(m.Center.Mul(m.mass))
		total += m.mass
	}
	if total > Epsilon {
		center = center.Mul(1.0 / total)
	} else {
		center = mgl64.Vec2{}
	}

	inertia := 0.0
	for _, m := range masses {
		d := m.Center.Sub(center)
		inertia += m.inertia + m.mass*LenSqr(d)
	}

	return NewMass(center, total, inertia)
}

// Mass returns the mass, 0 when the mass is treated as infinite.
func (m Mass) Mass() float64 {
	if m.Type == MassInfinite || m.Type == MassFixedLinearVelocity {
		return 0
	}
	return m.mass
}

// InverseMass returns 1/mass, 0 when the mass is treated as infinite.
func (m Mass) InverseMass() float64 {
	if m.Type == MassInfinite || m.Type == MassFixedLinearVelocity {
		return 0
	}
	return m.invMass
}

// Inertia returns the rotational inertia, 0 when treated as infinite.
func (m Mass) Inertia() float64 {
	if m.Type == MassInfinite || m.Type == MassFixedAngularVelocity {
		return 0
	}
	return m.inertia
}

// InverseInertia returns 1/inertia, 0 when treated as infinite.
func (m Mass) InverseInertia() float64 {
	if m.Type == MassInfinite || m.Type == MassFixedAngularVelocity {
		return 0
	}
	return m.invInertia
}

func (m Mass) IsInfinite() bool {
	return m.Type == MassInfinite
}
