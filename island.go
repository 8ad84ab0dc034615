package feather2d

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// Island is a connected group of bodies with the contacts and joints between
// them. The world reuses one Island for every group of every step: its
// content is only valid during solve.
type Island struct {
	bodies   []*actor.Body
	contacts []*constraint.ContactConstraint
	joints   []constraint.Joint

	solver constraint.ContactSolver
}

func (i *Island) clear() {
	clear(i.bodies)
	i.bodies = i.bodies[:0]
	clear(i.contacts)
	i.contacts = i.contacts[:0]
	clear(i.joints)
	i.joints = i.joints[:0]
}

func (i *Island) addBody(body *actor.Body) {
	i.bodies = append(i.bodies, body)
}

func (i *Island) addContact(c *constraint.ContactConstraint) {
	i.contacts = append(i.contacts, c)
}

func (i *Island) addJoint(j constraint.Joint) {
	i.joints = append(i.joints, j)
}

// solve integrates and solves the island for one step, then puts it to sleep
// when every body rested long enough.
//
// Steps:
//  1. Integrate forces, gravity and damping into the velocities
//  2. Initialize and warm start contacts and joints
//  3. Solve the velocity constraints, joints first
//  4. Integrate the positions
//  5. Solve the position constraints until converged or out of iterations
//  6. Evaluate sleep, all bodies or none
func (i *Island) solve(gravity mgl64.Vec2, step settings.Step, cfg settings.Settings, listeners *Registry[ContactListener]) {
	for _, body := range i.bodies {
		body.IntegrateVelocity(gravity, step)
	}

	i.preSolve(listeners)

	i.solver.Initialize(i.contacts, step, cfg)
	for _, j := range i.joints {
		j.InitializeConstraints(step, cfg)
	}

	for k := 0; k < cfg.VelocityConstraintSolverIterations; k++ {
		for _, j := range i.joints {
			j.SolveVelocityConstraints(step, cfg)
		}
		i.solver.SolveVelocityConstraints()
	}

	for _, body := range i.bodies {
		body.IntegratePosition(step, cfg)
	}

	positionSolved := false
	for k := 0; k < cfg.PositionConstraintSolverIterations; k++ {
		contactsOkay := i.solver.SolvePositionConstraints()

		jointsOkay := true
		for _, j := range i.joints {
			jointOkay := j.SolvePositionConstraints(step, cfg)
			jointsOkay = jointsOkay && jointOkay
		}

		if contactsOkay && jointsOkay {
			positionSolved = true
			break
		}
	}

	i.postSolve(listeners)

	if cfg.AutoSleepingEnabled {
		i.trySleep(step, cfg, positionSolved)
	}
}

// preSolve lets the listeners disable points for this step.
func (i *Island) preSolve(listeners *Registry[ContactListener]) {
	if listeners.Len() == 0 {
		return
	}

	for _, c := range i.contacts {
		if c.IsSensor() {
			continue
		}
		for k := range c.Contacts {
			contact := &c.Contacts[k]
			if !contact.IsEnabled() {
				continue
			}
			point := newContactPoint(c, contact)
			if !listeners.allow(func(l ContactListener) bool { return l.PreSolve(point) }) {
				contact.SetEnabled(false)
			}
		}
	}
}

func (i *Island) postSolve(listeners *Registry[ContactListener]) {
	if listeners.Len() == 0 {
		return
	}

	for _, c := range i.solver.Constraints() {
		for k := range c.Contacts {
			contact := &c.Contacts[k]
			if !contact.IsEnabled() {
				continue
			}
			solved := SolvedContactPoint{
				ContactPoint:   newContactPoint(c, contact),
				NormalImpulse:  contact.NormalImpulse,
				TangentImpulse: contact.TangentImpulse,
			}
			listeners.each(func(l ContactListener) { l.PostSolve(solved) })
		}
	}
}

// trySleep accumulates the rest time of every body; the island sleeps when
// the shortest one reaches the sleep time and the positions converged.
// A single body moving too fast, or refusing auto sleep, keeps it awake.
func (i *Island) trySleep(step settings.Step, cfg settings.Settings, positionSolved bool) {
	linearTolerance := cfg.SleepLinearVelocitySquared()
	angularTolerance := cfg.SleepAngularVelocitySquared()
	minSleepTime := math.Inf(1)

	for _, body := range i.bodies {
		if body.IsStatic() {
			continue
		}

		w := body.AngularVelocity()
		if !body.IsAutoSleepingEnabled() ||
			actor.LenSqr(body.LinearVelocity()) > linearTolerance ||
			w*w > angularTolerance {
			body.SetSleepTime(0)
			minSleepTime = 0
			continue
		}

		minSleepTime = math.Min(minSleepTime, body.AddSleepTime(step.Dt))
	}

	if minSleepTime >= cfg.SleepTime && positionSolved {
		for _, body := range i.bodies {
			if !body.IsStatic() {
				body.SetAsleep(true)
			}
		}
	}
}
