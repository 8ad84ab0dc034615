package constraint

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/epa"
	"github.com/go-gl/mathgl/mgl64"
)

// Contact is one point of a contact constraint.
type Contact struct {
	ID epa.ManifoldPointID
	// Point is the world position at detection time
	Point mgl64.Vec2
	Depth float64
	// LocalPointA and LocalPointB anchor Point on each body
	LocalPointA mgl64.Vec2
	LocalPointB mgl64.Vec2

	// NormalImpulse and TangentImpulse are accumulated over the iterations
	// and carried to the next step for warm starting
	NormalImpulse  float64
	TangentImpulse float64

	enabled bool

	// solver scratch
	rA, rB       mgl64.Vec2
	normalMass   float64
	tangentMass  float64
	velocityBias float64
}

// IsEnabled reports whether the point takes part in the current solve.
func (c *Contact) IsEnabled() bool {
	return c.enabled
}

// SetEnabled excludes or includes the point from the current solve.
func (c *Contact) SetEnabled(enabled bool) {
	c.enabled = enabled
}

// ContactConstraint holds the contact points between two fixtures of two
// different bodies. Its normal points from body A toward body B.
type ContactConstraint struct {
	fixtureA, fixtureB *actor.Fixture
	bodyA, bodyB       *actor.Body

	Normal   mgl64.Vec2
	Tangent  mgl64.Vec2
	Contacts []Contact

	Friction    float64
	Restitution float64

	sensor   bool
	onIsland bool
	enabled  bool

	// block solver scratch, used when both points of a two point
	// constraint are enabled and k is well conditioned
	block     bool
	k         mgl64.Mat2
	blockMass mgl64.Mat2
}

// NewContactConstraint creates the constraint of a manifold between fixtureA
// and fixtureB. Both fixtures must be attached to a body.
func NewContactConstraint(fixtureA, fixtureB *actor.Fixture, manifold epa.Manifold, mixer CoefficientMixer) *ContactConstraint {
	if mixer == nil {
		mixer = DefaultCoefficientMixer{}
	}

	c := &ContactConstraint{
		fixtureA:    fixtureA,
		fixtureB:    fixtureB,
		bodyA:       fixtureA.Body(),
		bodyB:       fixtureB.Body(),
		Friction:    mixer.MixFriction(fixtureA.Friction(), fixtureB.Friction()),
		Restitution: mixer.MixRestitution(fixtureA.Restitution(), fixtureB.Restitution()),
		sensor:      fixtureA.IsSensor() || fixtureB.IsSensor(),
		enabled:     true,
	}
	c.Update(manifold)

	return c
}

// Update replaces the points with the ones of manifold. Impulses start at zero.
func (c *ContactConstraint) Update(manifold epa.Manifold) {
	c.Normal = manifold.Normal
	c.Tangent = mgl64.Vec2{manifold.Normal[1], -manifold.Normal[0]}

	c.Contacts = c.Contacts[:0]
	for _, p := range manifold.Points {
		c.Contacts = append(c.Contacts, Contact{
			ID:          p.ID,
			Point:       p.Point,
			Depth:       p.Depth,
			LocalPointA: c.bodyA.ToLocal(p.Point),
			LocalPointB: c.bodyB.ToLocal(p.Point),
			enabled:     true,
		})
	}
}

func (c *ContactConstraint) FixtureA() *actor.Fixture {
	return c.fixtureA
}

func (c *ContactConstraint) FixtureB() *actor.Fixture {
	return c.fixtureB
}

func (c *ContactConstraint) BodyA() *actor.Body {
	return c.bodyA
}

func (c *ContactConstraint) BodyB() *actor.Body {
	return c.bodyB
}

// Other returns the body of the constraint that is not body.
func (c *ContactConstraint) Other(body *actor.Body) *actor.Body {
	if c.bodyA == body {
		return c.bodyB
	}
	return c.bodyA
}

// IsSensor reports a constraint that is detected but never solved.
func (c *ContactConstraint) IsSensor() bool {
	return c.sensor
}

func (c *ContactConstraint) IsOnIsland() bool {
	return c.onIsland
}

func (c *ContactConstraint) SetOnIsland(onIsland bool) {
	c.onIsland = onIsland
}

// IsEnabled is false once every point of the constraint was rejected.
func (c *ContactConstraint) IsEnabled() bool {
	return c.enabled
}

func (c *ContactConstraint) SetEnabled(enabled bool) {
	c.enabled = enabled
}

// RemoveContact drops the point at index.
func (c *ContactConstraint) RemoveContact(index int) {
	c.Contacts = append(c.Contacts[:index], c.Contacts[index+1:]...)
	if len(c.Contacts) == 0 {
		c.enabled = false
	}
}

// Shift moves the world points by delta.
func (c *ContactConstraint) Shift(delta mgl64.Vec2) {
	for i := range c.Contacts {
		c.Contacts[i].Point = c.Contacts[i].Point.Add(delta)
	}
}
