package actor

import (
	"fmt"
	"sync/atomic"
)

const (
	DefaultDensity     = 1.0
	DefaultFriction    = 0.2
	DefaultRestitution = 0.0
)

var fixtureIDs atomic.Uint64

// Fixture attaches a convex shape and its material to a body.
type Fixture struct {
	id          uint64
	shape       Convex
	density     float64
	friction    float64
	restitution float64
	sensor      bool
	filter      Filter
	body        *Body

	UserData any
}

// NewFixture creates a fixture with the default material and an allow-all filter.
func NewFixture(shape Convex) (*Fixture, error) {
	if shape == nil {
		return nil, ErrNilShape
	}

	return &Fixture{
		id:          fixtureIDs.Add(1),
		shape:       shape,
		density:     DefaultDensity,
		friction:    DefaultFriction,
		restitution: DefaultRestitution,
		filter:      DefaultFilter{},
	}, nil
}

// ID is unique per process and increases with creation order.
func (f *Fixture) ID() uint64 {
	return f.id
}

func (f *Fixture) Shape() Convex {
	return f.shape
}

// Body returns the body the fixture is attached to, nil if none.
func (f *Fixture) Body() *Body {
	return f.body
}

func (f *Fixture) Density() float64 {
	return f.density
}

// SetDensity changes the density. The body mass is not recomputed until
// UpdateMass or SetMass is called.
func (f *Fixture) SetDensity(density float64) error {
	if !(density > 0) {
		return fmt.Errorf("density %v: %w", density, ErrInvalidDensity)
	}
	f.density = density
	return nil
}

func (f *Fixture) Friction() float64 {
	return f.friction
}

func (f *Fixture) SetFriction(friction float64) error {
	if !(friction >= 0) {
		return fmt.Errorf("friction %v: %w", friction, ErrInvalidFriction)
	}
	f.friction = friction
	return nil
}

func (f *Fixture) Restitution() float64 {
	return f.restitution
}

func (f *Fixture) SetRestitution(restitution float64) error {
	if !(restitution >= 0) {
		return fmt.Errorf("restitution %v: %w", restitution, ErrInvalidRestitution)
	}
	f.restitution = restitution
	return nil
}

// IsSensor reports whether the fixture only detects overlaps without
// generating a collision response.
func (f *Fixture) IsSensor() bool {
	return f.sensor
}

func (f *Fixture) SetSensor(sensor bool) {
	f.sensor = sensor
}

func (f *Fixture) Filter() Filter {
	return f.filter
}

func (f *Fixture) SetFilter(filter Filter) error {
	if filter == nil {
		return ErrNilFilter
	}
	f.filter = filter
	return nil
}

// CreateMass returns the mass of the shape at the fixture density.
func (f *Fixture) CreateMass() Mass {
	return f.shape.CreateMass(f.density)
}

// CreateAABB returns the world bounds of the shape at the given transform.
func (f *Fixture) CreateAABB(transform Transform) AABB {
	return f.shape.CreateAABB(transform)
}
