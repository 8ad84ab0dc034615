package actor

import (
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"github.com/akmonengine/feather2d/settings"
	"github.com/go-gl/mathgl/mgl64"
)

type bodyState uint8

const (
	stateAutoSleep bodyState = 1 << iota
	stateAsleep
	stateActive
	stateOnIsland
	stateBullet
)

var bodyIDs atomic.Uint64

// Owner is notified when the fixtures of a body it owns change, so that it can
// keep its broadphase in sync.
type Owner interface {
	FixtureAdded(body *Body, fixture *Fixture)
	FixtureRemoved(body *Body, fixture *Fixture)
}

// Body represents a rigid body in the physics simulation
type Body struct {
	id       uint64
	fixtures []*Fixture
	mass     Mass
	// rotationDiscRadius bounds the distance from the center of mass to any point of the fixtures
	rotationDiscRadius float64

	transform  Transform
	transform0 Transform

	linearVelocity  mgl64.Vec2
	angularVelocity float64

	forces  []*Force
	torques []*Torque
	// per-step totals of the queued forces and torques
	force  mgl64.Vec2
	torque float64

	linearDamping  float64
	angularDamping float64
	gravityScale   float64

	state     bodyState
	sleepTime float64

	owner Owner

	UserData any
}

// NewBody creates an active body at the origin with auto sleeping enabled.
// Until fixtures are added and SetMass is called it has an infinite mass.
func NewBody() *Body {
	return &Body{
		id:           bodyIDs.Add(1),
		mass:         InfiniteMass(),
		transform:    NewTransform(),
		transform0:   NewTransform(),
		gravityScale: 1.0,
		state:        stateAutoSleep | stateActive,
	}
}

// ID is unique per process and increases with creation order.
func (b *Body) ID() uint64 {
	return b.id
}

func (b *Body) String() string {
	return fmt.Sprintf("Body[%d]", b.id)
}

// Owner returns the world the body belongs to, nil if none.
func (b *Body) Owner() Owner {
	return b.owner
}

// SetOwner attaches the body to owner, or detaches it with nil.
// A body cannot be attached to a second owner.
func (b *Body) SetOwner(owner Owner) error {
	if owner != nil && b.owner != nil {
		return ErrAlreadyOwned
	}
	b.owner = owner
	return nil
}

// ========== FIXTURES ==========

// Fixtures returns the fixtures in insertion order.
// The slice must not be modified.
func (b *Body) Fixtures() []*Fixture {
	return b.fixtures
}

func (b *Body) FixtureCount() int {
	return len(b.fixtures)
}

func (b *Body) Fixture(index int) (*Fixture, error) {
	if index < 0 || index >= len(b.fixtures) {
		return nil, fmt.Errorf("fixture %d of %d: %w", index, len(b.fixtures), ErrIndexOutOfRange)
	}
	return b.fixtures[index], nil
}

// AddFixture attaches fixture to the body. The mass is not recomputed.
func (b *Body) AddFixture(fixture *Fixture) error {
	if fixture == nil {
		return ErrNilFixture
	}
	if fixture.body != nil {
		return fmt.Errorf("fixture %d: %w", fixture.id, ErrFixtureAttached)
	}

	fixture.body = b
	b.fixtures = append(b.fixtures, fixture)
	if b.owner != nil {
		b.owner.FixtureAdded(b, fixture)
	}

	return nil
}

// AddShape wraps shape in a fixture with the default material and attaches it.
func (b *Body) AddShape(shape Convex) (*Fixture, error) {
	fixture, err := NewFixture(shape)
	if err != nil {
		return nil, err
	}
	if err := b.AddFixture(fixture); err != nil {
		return nil, err
	}
	return fixture, nil
}

// RemoveFixture detaches fixture, returning false if it was not attached to the body.
func (b *Body) RemoveFixture(fixture *Fixture) bool {
	index := slices.Index(b.fixtures, fixture)
	if index < 0 {
		return false
	}
	b.removeFixtureAt(index)
	return true
}

func (b *Body) RemoveFixtureAt(index int) (*Fixture, error) {
	if index < 0 || index >= len(b.fixtures) {
		return nil, fmt.Errorf("fixture %d of %d: %w", index, len(b.fixtures), ErrIndexOutOfRange)
	}
	return b.removeFixtureAt(index), nil
}

// RemoveAllFixtures detaches every fixture and returns them.
func (b *Body) RemoveAllFixtures() []*Fixture {
	removed := b.fixtures
	b.fixtures = nil
	for _, fixture := range removed {
		fixture.body = nil
		if b.owner != nil {
			b.owner.FixtureRemoved(b, fixture)
		}
	}
	return removed
}

func (b *Body) removeFixtureAt(index int) *Fixture {
	fixture := b.fixtures[index]
	b.fixtures = slices.Delete(b.fixtures, index, index+1)
	fixture.body = nil
	if b.owner != nil {
		b.owner.FixtureRemoved(b, fixture)
	}
	return fixture
}

// ========== MASS ==========

// SetMass recomputes the mass from the fixtures and applies massType.
// A body without fixtures gets the infinite point mass whatever massType is.
func (b *Body) SetMass(massType MassType) {
	switch len(b.fixtures) {
	case 0:
		b.mass = InfiniteMass()
	case 1:
		b.mass = b.fixtures[0].CreateMass()
		b.mass.Type = massType
	default:
		masses := make([]Mass, len(b.fixtures))
		for i, fixture := range b.fixtures {
			masses[i] = fixture.CreateMass()
		}
		b.mass = CombineMasses(masses)
		b.mass.Type = massType
	}

	b.updateRotationDiscRadius()
}

// UpdateMass recomputes the mass from the fixtures keeping the current mass type.
func (b *Body) UpdateMass() {
	b.SetMass(b.mass.Type)
}

// SetMassData replaces the mass without looking at the fixtures.
func (b *Body) SetMassData(mass Mass) {
	b.mass = mass
	b.updateRotationDiscRadius()
}

// SetMassType changes how the current mass is interpreted.
func (b *Body) SetMassType(massType MassType) {
	b.mass.Type = massType
}

func (b *Body) Mass() Mass {
	return b.mass
}

func (b *Body) RotationDiscRadius() float64 {
	return b.rotationDiscRadius
}

func (b *Body) updateRotationDiscRadius() {
	radius := 0.0
	for _, fixture := range b.fixtures {
		radius = math.Max(radius, fixture.shape.RadiusFrom(b.mass.Center))
	}
	b.rotationDiscRadius = radius
}

// ========== FORCES ==========

// ApplyForce queues force at the center of mass for the next step.
func (b *Body) ApplyForce(force mgl64.Vec2) {
	b.forces = append(b.forces, &Force{Value: force})
	b.SetAsleep(false)
}

// ApplyForceFor queues force at the center of mass for duration seconds.
func (b *Body) ApplyForceFor(force mgl64.Vec2, duration float64) error {
	if !(duration > 0) {
		return fmt.Errorf("force duration %v: %w", duration, ErrInvalidDuration)
	}
	b.forces = append(b.forces, &Force{Value: force, remaining: duration})
	b.SetAsleep(false)
	return nil
}

// ApplyForceAt queues force at the world point, producing a torque about the
// current center of mass.
func (b *Body) ApplyForceAt(force mgl64.Vec2, point mgl64.Vec2) {
	r := point.Sub(b.WorldCenter())
	b.forces = append(b.forces, &Force{Value: force})
	if tau := Cross(r, force); tau != 0 {
		b.torques = append(b.torques, &Torque{Value: tau})
	}
	b.SetAsleep(false)
}

func (b *Body) ApplyTorque(torque float64) {
	b.torques = append(b.torques, &Torque{Value: torque})
	b.SetAsleep(false)
}

func (b *Body) ApplyTorqueFor(torque float64, duration float64) error {
	if !(duration > 0) {
		return fmt.Errorf("torque duration %v: %w", duration, ErrInvalidDuration)
	}
	b.torques = append(b.torques, &Torque{Value: torque, remaining: duration})
	b.SetAsleep(false)
	return nil
}

// ClearForces drops the queued forces and torques and the per-step totals.
func (b *Body) ClearForces() {
	clear(b.forces)
	b.forces = b.forces[:0]
	clear(b.torques)
	b.torques = b.torques[:0]
	b.force = mgl64.Vec2{}
	b.torque = 0
}

// Force returns the total force applied during the last integrated step.
func (b *Body) Force() mgl64.Vec2 {
	return b.force
}

// Torque returns the total torque applied during the last integrated step.
func (b *Body) Torque() float64 {
	return b.torque
}

// ApplyImpulse changes the linear velocity immediately.
// It does nothing on a body with a zero inverse mass.
func (b *Body) ApplyImpulse(impulse mgl64.Vec2) {
	invM := b.mass.InverseMass()
	if invM == 0 {
		return
	}
	b.linearVelocity = b.linearVelocity.Add(impulse.Mul(invM))
	b.SetAsleep(false)
}

// ApplyImpulseAt applies impulse at the world point, changing both velocities.
func (b *Body) ApplyImpulseAt(impulse mgl64.Vec2, point mgl64.Vec2) {
	invM := b.mass.InverseMass()
	invI := b.mass.InverseInertia()
	if invM == 0 && invI == 0 {
		return
	}
	r := point.Sub(b.WorldCenter())
	b.linearVelocity = b.linearVelocity.Add(impulse.Mul(invM))
	b.angularVelocity += invI * Cross(r, impulse)
	b.SetAsleep(false)
}

func (b *Body) ApplyAngularImpulse(impulse float64) {
	invI := b.mass.InverseInertia()
	if invI == 0 {
		return
	}
	b.angularVelocity += invI * impulse
	b.SetAsleep(false)
}

// ========== INTEGRATION ==========

// IntegrateVelocity drains the queued forces and applies them with gravity and
// damping to the velocities over step.Dt. Infinite mass bodies only drain
// their forces and keep the velocity they were given.
func (b *Body) IntegrateVelocity(gravity mgl64.Vec2, step settings.Step) {
	dt := step.Dt
	b.accumulate(dt)
	if b.mass.Type == MassInfinite {
		return
	}

	if invM := b.mass.InverseMass(); invM > Epsilon {
		acceleration := b.force.Mul(invM).Add(gravity.Mul(b.gravityScale))
		b.linearVelocity = b.linearVelocity.Add(acceleration.Mul(dt))
	}
	if invI := b.mass.InverseInertia(); invI > Epsilon {
		b.angularVelocity += dt * invI * b.torque
	}

	if b.linearDamping != 0 {
		b.linearVelocity = b.linearVelocity.Mul(Clamp(1.0-dt*b.linearDamping, 0, 1))
	}
	if b.angularDamping != 0 {
		b.angularVelocity *= Clamp(1.0-dt*b.angularDamping, 0, 1)
	}
}

// IntegratePosition moves the body by its velocities over step.Dt, clamping
// the motion to the maximum translation and rotation per step.
func (b *Body) IntegratePosition(step settings.Step, s settings.Settings) {
	if b.IsStatic() {
		return
	}
	dt := step.Dt

	translation := b.linearVelocity.Mul(dt)
	if l2 := LenSqr(translation); l2 > s.MaximumTranslationSquared() {
		ratio := s.MaximumTranslation / math.Sqrt(l2)
		b.linearVelocity = b.linearVelocity.Mul(ratio)
	}

	rotation := b.angularVelocity * dt
	if rotation*rotation > s.MaximumRotationSquared() {
		ratio := s.MaximumRotation / math.Abs(rotation)
		b.angularVelocity *= ratio
	}

	b.transform0 = b.transform
	b.Translate(b.linearVelocity.Mul(dt))
	b.RotateAboutCenter(b.angularVelocity * dt)
}

// ========== TRANSFORM ==========

func (b *Body) Transform() Transform {
	return b.transform
}

func (b *Body) SetTransform(transform Transform) {
	b.transform = transform
}

// PreviousTransform returns the transform at the start of the last step.
func (b *Body) PreviousTransform() Transform {
	return b.transform0
}

func (b *Body) SetPreviousTransform(transform Transform) {
	b.transform0 = transform
}

func (b *Body) LocalCenter() mgl64.Vec2 {
	return b.mass.Center
}

func (b *Body) WorldCenter() mgl64.Vec2 {
	return b.transform.ToWorld(b.mass.Center)
}

func (b *Body) ToWorld(local mgl64.Vec2) mgl64.Vec2 {
	return b.transform.ToWorld(local)
}

func (b *Body) ToLocal(world mgl64.Vec2) mgl64.Vec2 {
	return b.transform.ToLocal(world)
}

func (b *Body) ToWorldVector(local mgl64.Vec2) mgl64.Vec2 {
	return b.transform.ToWorldVector(local)
}

func (b *Body) ToLocalVector(world mgl64.Vec2) mgl64.Vec2 {
	return b.transform.ToLocalVector(world)
}

func (b *Body) Translate(delta mgl64.Vec2) {
	b.transform.Translate(delta)
}

// TranslateToOrigin moves the body so that its center of mass is at the world origin.
func (b *Body) TranslateToOrigin() {
	b.transform.Translate(b.WorldCenter().Mul(-1))
}

func (b *Body) RotateAboutCenter(theta float64) {
	b.transform.RotateAbout(theta, b.WorldCenter())
}

// Shift moves both the current and previous transforms, used when the world
// origin changes.
func (b *Body) Shift(delta mgl64.Vec2) {
	b.transform.Translate(delta)
	b.transform0.Translate(delta)
}

// CreateAABB returns the union of the fixture bounds at the current transform.
// A body without fixtures has an empty box at its position.
func (b *Body) CreateAABB() AABB {
	if len(b.fixtures) == 0 {
		return AABB{Min: b.transform.Position, Max: b.transform.Position}
	}

	aabb := b.fixtures[0].CreateAABB(b.transform)
	for _, fixture := range b.fixtures[1:] {
		aabb = aabb.Union(fixture.CreateAABB(b.transform))
	}
	return aabb
}

// CreateSweptAABB bounds the body over the last step: the union of the
// rotation discs at the previous and current centers.
func (b *Body) CreateSweptAABB() AABB {
	c0 := b.transform0.ToWorld(b.mass.Center)
	c1 := b.transform.ToWorld(b.mass.Center)

	return NewAABBFromCircle(c0, b.rotationDiscRadius).Union(NewAABBFromCircle(c1, b.rotationDiscRadius))
}

// Sweep returns the motion from the previous to the current transform.
func (b *Body) Sweep() Sweep {
	return NewSweep(b.transform0, b.transform, b.mass.Center, b.rotationDiscRadius)
}

// Contains reports whether the world point is inside one of the fixtures.
func (b *Body) Contains(point mgl64.Vec2) bool {
	for _, fixture := range b.fixtures {
		if fixture.shape.Contains(point, b.transform) {
			return true
		}
	}
	return false
}

// ========== VELOCITY ==========

func (b *Body) LinearVelocity() mgl64.Vec2 {
	return b.linearVelocity
}

func (b *Body) SetLinearVelocity(velocity mgl64.Vec2) {
	b.linearVelocity = velocity
}

func (b *Body) AngularVelocity() float64 {
	return b.angularVelocity
}

func (b *Body) SetAngularVelocity(velocity float64) {
	b.angularVelocity = velocity
}

// VelocityAt returns the velocity of the world point attached to the body.
func (b *Body) VelocityAt(point mgl64.Vec2) mgl64.Vec2 {
	r := point.Sub(b.WorldCenter())
	return b.linearVelocity.Add(CrossSV(b.angularVelocity, r))
}

func (b *Body) GravityScale() float64 {
	return b.gravityScale
}

func (b *Body) SetGravityScale(scale float64) {
	b.gravityScale = scale
}

func (b *Body) LinearDamping() float64 {
	return b.linearDamping
}

func (b *Body) SetLinearDamping(damping float64) error {
	if !(damping >= 0) {
		return fmt.Errorf("linear damping %v: %w", damping, ErrInvalidDamping)
	}
	b.linearDamping = damping
	return nil
}

func (b *Body) AngularDamping() float64 {
	return b.angularDamping
}

func (b *Body) SetAngularDamping(damping float64) error {
	if !(damping >= 0) {
		return fmt.Errorf("angular damping %v: %w", damping, ErrInvalidDamping)
	}
	b.angularDamping = damping
	return nil
}

// ========== STATE ==========

// IsStatic reports an infinite mass body that does not move.
func (b *Body) IsStatic() bool {
	return b.mass.Type == MassInfinite && IsZero(b.linearVelocity) && math.Abs(b.angularVelocity) <= Epsilon
}

// IsKinematic reports an infinite mass body that moves.
func (b *Body) IsKinematic() bool {
	return b.mass.Type == MassInfinite && !(IsZero(b.linearVelocity) && math.Abs(b.angularVelocity) <= Epsilon)
}

// IsDynamic reports a body responding to forces on at least one axis.
func (b *Body) IsDynamic() bool {
	return b.mass.Type != MassInfinite
}

func (b *Body) IsAutoSleepingEnabled() bool {
	return b.state&stateAutoSleep != 0
}

// SetAutoSleepingEnabled toggles auto sleeping. Disabling it wakes the body.
func (b *Body) SetAutoSleepingEnabled(enabled bool) {
	if enabled {
		b.state |= stateAutoSleep
		return
	}
	b.state &^= stateAutoSleep
	b.SetAsleep(false)
}

func (b *Body) IsAsleep() bool {
	return b.state&stateAsleep != 0
}

// SetAsleep puts the body to sleep, zeroing its velocities and forces, or
// wakes it. Waking a sleeping body resets its sleep time.
func (b *Body) SetAsleep(asleep bool) {
	if asleep {
		b.state |= stateAsleep
		b.linearVelocity = mgl64.Vec2{}
		b.angularVelocity = 0
		b.ClearForces()
		return
	}

	if b.state&stateAsleep != 0 {
		b.sleepTime = 0
		b.state &^= stateAsleep
	}
}

func (b *Body) IsActive() bool {
	return b.state&stateActive != 0
}

// SetActive enables or disables the body. Inactive bodies are neither
// detected nor solved.
func (b *Body) SetActive(active bool) {
	if active {
		b.state |= stateActive
	} else {
		b.state &^= stateActive
	}
}

func (b *Body) IsOnIsland() bool {
	return b.state&stateOnIsland != 0
}

func (b *Body) SetOnIsland(onIsland bool) {
	if onIsland {
		b.state |= stateOnIsland
	} else {
		b.state &^= stateOnIsland
	}
}

// IsBullet reports a body checked against dynamic bodies by continuous collision detection.
func (b *Body) IsBullet() bool {
	return b.state&stateBullet != 0
}

func (b *Body) SetBullet(bullet bool) {
	if bullet {
		b.state |= stateBullet
	} else {
		b.state &^= stateBullet
	}
}

func (b *Body) SleepTime() float64 {
	return b.sleepTime
}

func (b *Body) SetSleepTime(t float64) {
	b.sleepTime = t
}

// AddSleepTime increments the sleep time and returns the new value.
func (b *Body) AddSleepTime(dt float64) float64 {
	b.sleepTime += dt
	return b.sleepTime
}
