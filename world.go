// Package feather2d is a 2D rigid body physics engine.
//
// A World owns bodies and joints and advances them with Step or Update. Each
// step detects the contacts, groups the bodies into islands, solves every
// island with sequential impulses, stops fast bodies at their first impact
// and detects the contacts again so that callers see up to date state.
package feather2d

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/ccd"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/epa"
	"github.com/akmonengine/feather2d/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultGravity is the earth gravity, in m/s²
var DefaultGravity = mgl64.Vec2{0, -9.8}

// World is the simulation. It is not safe for concurrent use.
type World struct {
	bodies []*actor.Body
	joints []constraint.Joint

	settings settings.Settings
	step     settings.Step
	// Gravity acceleration (m/s², or N/kg)
	gravity mgl64.Vec2

	broadphase     Broadphase
	narrowphase    NarrowphaseDetector
	manifoldSolver ManifoldSolver
	toiDetector    TimeOfImpactDetector
	mixer          constraint.CoefficientMixer
	bounds         Bounds

	contacts contactManager
	graph    constraintGraph
	island   Island
	stack    []*actor.Body

	listeners Listeners
	Events    Events
	logger    *slog.Logger

	// time accumulated by Update and not stepped yet
	time           float64
	updateRequired bool
}

// Option configures a World.
type Option func(w *World)

// WithSettings replaces the default settings. Invalid settings are ignored
// and logged.
func WithSettings(s settings.Settings) Option {
	return func(w *World) {
		if err := s.Validate(); err != nil {
			w.logger.Warn("ignoring invalid settings", "error", err)
			return
		}
		w.settings = s
	}
}

func WithGravity(gravity mgl64.Vec2) Option {
	return func(w *World) {
		w.gravity = gravity
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *World) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithBroadphase(broadphase Broadphase) Option {
	return func(w *World) {
		if broadphase != nil {
			w.broadphase = broadphase
		}
	}
}

func WithNarrowphase(detector NarrowphaseDetector) Option {
	return func(w *World) {
		if detector != nil {
			w.narrowphase = detector
		}
	}
}

func WithManifoldSolver(solver ManifoldSolver) Option {
	return func(w *World) {
		if solver != nil {
			w.manifoldSolver = solver
		}
	}
}

func WithTimeOfImpactDetector(detector TimeOfImpactDetector) Option {
	return func(w *World) {
		if detector != nil {
			w.toiDetector = detector
		}
	}
}

func WithCoefficientMixer(mixer constraint.CoefficientMixer) Option {
	return func(w *World) {
		if mixer != nil {
			w.mixer = mixer
		}
	}
}

// WithBounds deactivates the bodies leaving bounds.
func WithBounds(bounds Bounds) Option {
	return func(w *World) {
		w.bounds = bounds
	}
}

// NewWorld creates an empty world with the default settings, earth gravity
// and the default collision pipeline.
func NewWorld(opts ...Option) *World {
	w := &World{
		settings:       settings.Default(),
		gravity:        DefaultGravity,
		broadphase:     NewSpatialGrid(DefaultCellSize, DefaultNumCells),
		narrowphase:    epa.Detector{},
		manifoldSolver: epa.ClippingManifoldSolver{},
		toiDetector:    ccd.NewConservativeAdvancement(),
		mixer:          constraint.DefaultCoefficientMixer{},
		contacts:       newContactManager(),
		graph:          newConstraintGraph(),
		Events:         NewEvents(),
		logger:         slog.Default(),
		updateRequired: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.step = settings.NewStep(w.settings.StepFrequency)

	return w
}

// ========== BODIES ==========

// AddBody adds a body and its fixtures. The body must not belong to a world.
func (w *World) AddBody(body *actor.Body) error {
	if body == nil {
		return ErrNilBody
	}
	if err := body.SetOwner(w); err != nil {
		return fmt.Errorf("add %s: %w", body, ErrBodyAlreadyAdded)
	}

	w.bodies = append(w.bodies, body)
	w.graph.addBody(body)
	w.broadphase.AddBody(body)
	body.SetPreviousTransform(body.Transform())
	w.updateRequired = true

	w.logger.Debug("body added", "body", body.ID(), "fixtures", body.FixtureCount())
	return nil
}

// RemoveBody removes a body with its joints and contacts, waking the bodies
// it was connected to. It returns false if the body is not in the world.
func (w *World) RemoveBody(body *actor.Body) bool {
	if body == nil || body.Owner() != w {
		return false
	}
	index := slices.Index(w.bodies, body)
	if index < 0 {
		return false
	}
	w.bodies = slices.Delete(w.bodies, index, index+1)

	w.broadphase.RemoveBody(body)
	w.contacts.removeBody(body)

	if node := w.graph.removeBody(body); node != nil {
		for _, j := range node.joints {
			w.joints = removeEdge(w.joints, j)
			j.Other(body).SetAsleep(false)
			w.listeners.Destruction.each(func(l DestructionListener) { l.JointDestroyed(j) })
		}
		for _, c := range node.contacts {
			c.Other(body).SetAsleep(false)
			w.listeners.Destruction.each(func(l DestructionListener) { l.ContactDestroyed(c) })
		}
	}

	w.Events.forget(body)
	_ = body.SetOwner(nil)
	w.updateRequired = true

	w.logger.Debug("body removed", "body", body.ID())
	return true
}

// RemoveAllBodies removes every body and joint.
func (w *World) RemoveAllBodies() {
	for _, j := range w.joints {
		w.listeners.Destruction.each(func(l DestructionListener) { l.JointDestroyed(j) })
	}
	for _, c := range w.contacts.constraints {
		w.listeners.Destruction.each(func(l DestructionListener) { l.ContactDestroyed(c) })
	}
	for _, body := range w.bodies {
		_ = body.SetOwner(nil)
	}

	clear(w.bodies)
	w.bodies = w.bodies[:0]
	clear(w.joints)
	w.joints = w.joints[:0]
	w.broadphase.Clear()
	w.contacts.reset()
	w.graph = newConstraintGraph()
	w.Events.reset()
	w.updateRequired = true

	w.logger.Debug("all bodies removed")
}

// Bodies returns the bodies in insertion order. The slice must not be modified.
func (w *World) Bodies() []*actor.Body {
	return w.bodies
}

func (w *World) BodyCount() int {
	return len(w.bodies)
}

// FixtureAdded keeps the broadphase in sync with the fixtures of a body.
func (w *World) FixtureAdded(body *actor.Body, fixture *actor.Fixture) {
	w.broadphase.Add(fixture)
	w.updateRequired = true
}

// FixtureRemoved drops the fixture from the broadphase with its contacts.
func (w *World) FixtureRemoved(body *actor.Body, fixture *actor.Fixture) {
	w.broadphase.Remove(fixture)
	for _, c := range w.contacts.removeFixture(fixture) {
		w.graph.removeContact(c)
		w.listeners.Destruction.each(func(l DestructionListener) { l.ContactDestroyed(c) })
	}
	w.updateRequired = true
}

// ========== JOINTS ==========

// AddJoint adds a joint between two bodies of the world.
func (w *World) AddJoint(joint constraint.Joint) error {
	if joint == nil {
		return ErrNilJoint
	}
	bodyA, bodyB := joint.BodyA(), joint.BodyB()
	if bodyA.Owner() != w || bodyB.Owner() != w {
		return fmt.Errorf("joint between %s and %s: %w", bodyA, bodyB, ErrBodyNotInWorld)
	}
	if slices.Contains(w.joints, joint) {
		return ErrJointAlreadyAdded
	}

	w.joints = append(w.joints, joint)
	w.graph.addJoint(joint)
	w.updateRequired = true

	w.logger.Debug("joint added", "bodyA", bodyA.ID(), "bodyB", bodyB.ID())
	return nil
}

// RemoveJoint removes a joint and wakes its bodies.
func (w *World) RemoveJoint(joint constraint.Joint) bool {
	index := slices.Index(w.joints, joint)
	if index < 0 {
		return false
	}
	w.joints = slices.Delete(w.joints, index, index+1)
	w.graph.removeJoint(joint)
	joint.BodyA().SetAsleep(false)
	joint.BodyB().SetAsleep(false)
	w.updateRequired = true

	w.logger.Debug("joint removed", "bodyA", joint.BodyA().ID(), "bodyB", joint.BodyB().ID())
	return true
}

// Joints returns the joints in insertion order. The slice must not be modified.
func (w *World) Joints() []constraint.Joint {
	return w.joints
}

// ========== STEPPING ==========

// Step runs n steps of the settings step frequency.
func (w *World) Step(n int) {
	w.StepDt(n, w.settings.StepFrequency)
}

// StepDt runs n steps of dt seconds, then dispatches the buffered events.
func (w *World) StepDt(n int, dt float64) {
	if n <= 0 || !(dt > 0) {
		return
	}

	for i := 0; i < n; i++ {
		w.step.Update(dt)
		w.runStep()
	}

	w.Events.processSleepEvents(w.bodies)
	w.Events.flush()
}

// Update accumulates elapsed seconds and runs one step when at least a step
// frequency worth of time is available. It reports whether a step ran.
func (w *World) Update(elapsed float64) bool {
	return w.UpdateN(elapsed, 1)
}

// UpdateN accumulates elapsed seconds and runs as many whole steps as the
// accumulated time allows, at most maxSteps. Time that is not stepped stays
// accumulated for the next call.
func (w *World) UpdateN(elapsed float64, maxSteps int) bool {
	if elapsed < 0 {
		elapsed = 0
	}
	w.time += elapsed

	period := w.settings.StepFrequency
	steps := min(int(w.time/period), maxSteps)
	if steps <= 0 {
		return false
	}

	w.time -= float64(steps) * period
	w.StepDt(steps, period)
	return true
}

// AccumulatedTime returns the time accumulated by Update not stepped yet.
func (w *World) AccumulatedTime() float64 {
	return w.time
}

// runStep runs one step of w.step.Dt.
func (w *World) runStep() {
	w.listeners.Step.each(func(l StepListener) { l.BeginStep(w.step, w) })

	if w.updateRequired {
		w.detect()
		w.updateRequired = false
		w.listeners.Step.each(func(l StepListener) { l.UpdatePerformed(w.step, w) })
	}

	w.solve()
	w.listeners.Step.each(func(l StepListener) { l.SolvePerformed(w.step, w) })

	w.solveTOI()

	w.detect()
	w.Events.recordContacts(w.contacts.constraints)

	w.listeners.Step.each(func(l StepListener) { l.EndStep(w.step, w) })
}

// solve builds the islands with a depth first search from every awake
// dynamic body and solves them one after the other.
//
// Static bodies are added to islands but never expanded, so that the ground
// does not merge everything it touches into one island. Their island flag
// is reset after each island so that they can join the next ones.
//
// Kinematic bodies are expanded like dynamic ones: two stacks resting on the
// same moving platform form one island and only fall asleep together.
func (w *World) solve() {
	for _, body := range w.bodies {
		body.SetOnIsland(false)
		body.SetPreviousTransform(body.Transform())
	}
	for _, c := range w.contacts.constraints {
		c.SetOnIsland(false)
	}
	for _, j := range w.joints {
		j.SetOnIsland(false)
	}

	for _, seed := range w.bodies {
		if seed.IsOnIsland() || seed.IsAsleep() || !seed.IsActive() || seed.IsStatic() {
			continue
		}

		w.island.clear()
		w.stack = append(w.stack[:0], seed)
		seed.SetOnIsland(true)

		for len(w.stack) > 0 {
			body := w.stack[len(w.stack)-1]
			w.stack = w.stack[:len(w.stack)-1]

			w.island.addBody(body)
			body.SetAsleep(false)

			if body.IsStatic() {
				continue
			}

			node := w.graph.node(body)
			if node == nil {
				continue
			}

			for _, c := range node.contacts {
				if c.IsSensor() || !c.IsEnabled() || c.IsOnIsland() {
					continue
				}
				other := c.Other(body)
				if !other.IsActive() {
					continue
				}
				w.island.addContact(c)
				c.SetOnIsland(true)

				if !other.IsOnIsland() {
					w.stack = append(w.stack, other)
					other.SetOnIsland(true)
				}
			}

			for _, j := range node.joints {
				if !j.IsActive() || j.IsOnIsland() {
					continue
				}
				other := j.Other(body)
				w.island.addJoint(j)
				j.SetOnIsland(true)

				if !other.IsOnIsland() {
					w.stack = append(w.stack, other)
					other.SetOnIsland(true)
				}
			}
		}

		w.island.solve(w.gravity, w.step, w.settings, &w.listeners.Contact)

		asleep := true
		for _, body := range w.island.bodies {
			if body.IsStatic() {
				body.SetOnIsland(false)
				continue
			}
			asleep = asleep && body.IsAsleep()
		}
		if asleep {
			w.logger.Debug("island asleep", "bodies", len(w.island.bodies))
		}
	}

	w.island.clear()
	clear(w.stack)
	w.stack = w.stack[:0]
}

// ========== ACCESSORS ==========

func (w *World) Gravity() mgl64.Vec2 {
	return w.gravity
}

// SetGravity changes the gravity and wakes every body.
func (w *World) SetGravity(gravity mgl64.Vec2) {
	w.gravity = gravity
	for _, body := range w.bodies {
		body.SetAsleep(false)
	}
}

func (w *World) Settings() settings.Settings {
	return w.settings
}

// SetSettings replaces the settings after validating them.
func (w *World) SetSettings(s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	w.settings = s
	return nil
}

// CurrentStep returns the timing of the last step.
func (w *World) CurrentStep() settings.Step {
	return w.step
}

// Listeners returns the listener registries.
func (w *World) Listeners() *Listeners {
	return &w.listeners
}

func (w *World) Bounds() Bounds {
	return w.bounds
}

func (w *World) SetBounds(bounds Bounds) {
	w.bounds = bounds
}

func (w *World) Broadphase() Broadphase {
	return w.broadphase
}

// ========== CONSTRAINT GRAPH ==========

// Contacts returns the contact constraints of body.
func (w *World) Contacts(body *actor.Body) []*constraint.ContactConstraint {
	node := w.graph.node(body)
	if node == nil {
		return nil
	}
	return slices.Clone(node.contacts)
}

// IsInContact reports an enabled, non sensor contact between two bodies.
func (w *World) IsInContact(bodyA, bodyB *actor.Body) bool {
	return w.graph.isInContact(bodyA, bodyB)
}

// BodyJoints returns the joints of body.
func (w *World) BodyJoints(body *actor.Body) []constraint.Joint {
	node := w.graph.node(body)
	if node == nil {
		return nil
	}
	return slices.Clone(node.joints)
}

// JointedBodies returns the bodies joined to body, each once.
func (w *World) JointedBodies(body *actor.Body) []*actor.Body {
	node := w.graph.node(body)
	if node == nil {
		return nil
	}

	var bodies []*actor.Body
	for _, j := range node.joints {
		if other := j.Other(body); !slices.Contains(bodies, other) {
			bodies = append(bodies, other)
		}
	}
	return bodies
}

// ContactConstraints returns every contact constraint of the last detection.
// The slice must not be modified.
func (w *World) ContactConstraints() []*constraint.ContactConstraint {
	return w.contacts.constraints
}

// Shift moves the origin of the world: everything is translated by delta.
func (w *World) Shift(delta mgl64.Vec2) {
	for _, body := range w.bodies {
		body.Shift(delta)
	}
	for _, j := range w.joints {
		j.Shift(delta)
	}
	w.contacts.shift(delta)
	w.broadphase.Shift(delta)
	if w.bounds != nil {
		w.bounds.Shift(delta)
	}
}
