package constraint

import (
	"fmt"
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// Joint constrains the relative motion of two bodies until it is removed.
type Joint interface {
	BodyA() *actor.Body
	BodyB() *actor.Body
	// Other returns the body of the joint that is not body
	Other(body *actor.Body) *actor.Body
	// IsActive reports whether both bodies are active
	IsActive() bool
	// IsCollisionAllowed reports whether the joined bodies collide with each other
	IsCollisionAllowed() bool
	SetCollisionAllowed(allowed bool)
	IsOnIsland() bool
	SetOnIsland(onIsland bool)

	InitializeConstraints(step settings.Step, cfg settings.Settings)
	SolveVelocityConstraints(step settings.Step, cfg settings.Settings)
	// SolvePositionConstraints returns true when the joint is within tolerance
	SolvePositionConstraints(step settings.Step, cfg settings.Settings) bool

	// AnchorA and AnchorB return the world anchor points
	AnchorA() mgl64.Vec2
	AnchorB() mgl64.Vec2
	// ReactionForce and ReactionTorque return what the joint applied on
	// body B during the last step
	ReactionForce(invDt float64) mgl64.Vec2
	ReactionTorque(invDt float64) float64

	// Shift moves the world space data of the joint by delta
	Shift(delta mgl64.Vec2)
}

// jointBase holds what every joint shares.
type jointBase struct {
	bodyA, bodyB     *actor.Body
	collisionAllowed bool
	onIsland         bool

	UserData any
}

func newJointBase(bodyA, bodyB *actor.Body) (jointBase, error) {
	if bodyA == nil || bodyB == nil {
		return jointBase{}, ErrNilBody
	}
	if bodyA == bodyB {
		return jointBase{}, fmt.Errorf("body %s: %w", bodyA, ErrSameBody)
	}
	return jointBase{bodyA: bodyA, bodyB: bodyB}, nil
}

func (j *jointBase) BodyA() *actor.Body {
	return j.bodyA
}

func (j *jointBase) BodyB() *actor.Body {
	return j.bodyB
}

func (j *jointBase) Other(body *actor.Body) *actor.Body {
	if j.bodyA == body {
		return j.bodyB
	}
	return j.bodyA
}

func (j *jointBase) IsActive() bool {
	return j.bodyA.IsActive() && j.bodyB.IsActive()
}

func (j *jointBase) IsCollisionAllowed() bool {
	return j.collisionAllowed
}

func (j *jointBase) SetCollisionAllowed(allowed bool) {
	j.collisionAllowed = allowed
}

func (j *jointBase) IsOnIsland() bool {
	return j.onIsland
}

func (j *jointBase) SetOnIsland(onIsland bool) {
	j.onIsland = onIsland
}

// Anchors are stored in body local space.
func (j *jointBase) Shift(mgl64.Vec2) {}

// springCoefficients returns the softness (gamma) and the position bias
// factor of a spring with the given frequency and damping ratio acting on
// the effective mass over dt.
func springCoefficients(mass, frequency, dampingRatio, dt float64) (gamma, biasFactor float64) {
	omega := 2.0 * math.Pi * frequency
	// damping coefficient and stiffness
	d := 2.0 * mass * dampingRatio * omega
	k := mass * omega * omega

	gamma = invert(dt * (d + dt*k))
	biasFactor = dt * k * gamma
	return gamma, biasFactor
}

func validateSpring(frequency, dampingRatio float64) error {
	if !(frequency >= 0) {
		return fmt.Errorf("frequency %v: %w", frequency, ErrInvalidParameter)
	}
	if !(dampingRatio >= 0) || dampingRatio > 1 {
		return fmt.Errorf("damping ratio %v must be in [0, 1]: %w", dampingRatio, ErrInvalidParameter)
	}
	return nil
}

// pointMatrix returns the effective mass matrix of a point-to-point
// constraint with an angular row:
//
//	[ mA+mB+iA*rA.y²+iB*rB.y²   -iA*rA.y*rA.x-iB*rB.y*rB.x   -iA*rA.y-iB*rB.y ]
//	[ ...                       mA+mB+iA*rA.x²+iB*rB.x²      iA*rA.x+iB*rB.x  ]
//	[ ...                       ...                          iA+iB            ]
func pointMatrix(invMA, invIA, invMB, invIB float64, rA, rB mgl64.Vec2) mgl64.Mat3 {
	m := invMA + invMB
	xx := m + invIA*rA[1]*rA[1] + invIB*rB[1]*rB[1]
	xy := -invIA*rA[1]*rA[0] - invIB*rB[1]*rB[0]
	xz := -invIA*rA[1] - invIB*rB[1]
	yy := m + invIA*rA[0]*rA[0] + invIB*rB[0]*rB[0]
	yz := invIA*rA[0] + invIB*rB[0]
	zz := invIA + invIB

	// column major
	return mgl64.Mat3{
		xx, xy, xz,
		xy, yy, yz,
		xz, yz, zz,
	}
}

// upper22 returns the upper left 2x2 block of k.
func upper22(k mgl64.Mat3) mgl64.Mat2 {
	return mgl64.Mat2{k[0], k[1], k[3], k[4]}
}

// solve22 solves the upper 2x2 block of k against b.
func solve22(k mgl64.Mat3, b mgl64.Vec2) mgl64.Vec2 {
	return upper22(k).Inv().Mul2x1(b)
}

// solve33 solves k against b. A singular k gives the zero vector.
func solve33(k mgl64.Mat3, b mgl64.Vec3) mgl64.Vec3 {
	return k.Inv().Mul3x1(b)
}

// relativeAngle returns the angle of bodyB relative to bodyA minus
// reference, wrapped to [-pi, pi].
func relativeAngle(bodyA, bodyB *actor.Body, reference float64) float64 {
	angle := bodyB.Transform().Angle() - bodyA.Transform().Angle() - reference
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

var (
	_ Joint = (*DistanceJoint)(nil)
	_ Joint = (*WeldJoint)(nil)
	_ Joint = (*FrictionJoint)(nil)
	_ Joint = (*RevoluteJoint)(nil)
)
