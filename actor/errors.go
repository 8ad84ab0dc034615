package actor

import "errors"

var (
	ErrInvalidDimension   = errors.New("invalid dimension")
	ErrInvalidPolygon     = errors.New("invalid polygon")
	ErrNilShape           = errors.New("nil shape")
	ErrNilFixture         = errors.New("nil fixture")
	ErrNilFilter          = errors.New("nil filter")
	ErrFixtureAttached    = errors.New("fixture already attached to a body")
	ErrInvalidDensity     = errors.New("density must be positive")
	ErrInvalidFriction    = errors.New("friction must not be negative")
	ErrInvalidRestitution = errors.New("restitution must not be negative")
	ErrInvalidDamping     = errors.New("damping must not be negative")
	ErrInvalidDuration    = errors.New("duration must be positive")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrAlreadyOwned       = errors.New("body already belongs to a world")
)
