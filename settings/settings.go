// Package settings holds the tuning parameters of the simulation and the
// per-step timing information shared by the solvers.
package settings

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSetting is returned by Validate and Load for out of range values.
var ErrInvalidSetting = errors.New("invalid setting")

// ContinuousDetectionMode selects which bodies take part in the time of impact pass.
type ContinuousDetectionMode int

const (
	// CCDNone disables continuous collision detection
	CCDNone ContinuousDetectionMode = iota
	// CCDBulletsOnly only sweeps bodies flagged as bullets
	CCDBulletsOnly
	// CCDAll sweeps every dynamic body against static and kinematic bodies,
	// and bullets against everything
	CCDAll
)

func (m ContinuousDetectionMode) String() string {
	switch m {
	case CCDNone:
		return "none"
	case CCDBulletsOnly:
		return "bullets"
	case CCDAll:
		return "all"
	}
	return fmt.Sprintf("ContinuousDetectionMode(%d)", int(m))
}

// UnmarshalYAML accepts "none", "bullets" or "all".
func (m *ContinuousDetectionMode) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		*m = CCDNone
	case "bullets", "bullets_only":
		*m = CCDBulletsOnly
	case "all":
		*m = CCDAll
	default:
		return fmt.Errorf("line %d: continuous detection mode %q: %w", node.Line, s, ErrInvalidSetting)
	}
	return nil
}

// MarshalYAML writes the mode as its name.
func (m ContinuousDetectionMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// Settings contains the parameters used by the world, the islands and the solvers.
// Distances are in meters, angles in radians, times in seconds.
type Settings struct {
	// StepFrequency is the duration of one fixed step
	StepFrequency float64 `yaml:"step_frequency"`
	// MaximumTranslation bounds the distance a body can travel in one step
	MaximumTranslation float64 `yaml:"maximum_translation"`
	// MaximumRotation bounds the angle a body can rotate in one step
	MaximumRotation float64 `yaml:"maximum_rotation"`

	AutoSleepingEnabled  bool    `yaml:"auto_sleeping_enabled"`
	SleepLinearVelocity  float64 `yaml:"sleep_linear_velocity"`
	SleepAngularVelocity float64 `yaml:"sleep_angular_velocity"`
	// SleepTime is how long every body of an island must stay under the
	// sleep velocities before the island is put to sleep
	SleepTime float64 `yaml:"sleep_time"`

	VelocityConstraintSolverIterations int `yaml:"velocity_constraint_solver_iterations"`
	PositionConstraintSolverIterations int `yaml:"position_constraint_solver_iterations"`

	WarmStartingEnabled bool `yaml:"warm_starting_enabled"`
	// WarmStartDistance is the distance under which two contact points without
	// feature ids are considered the same point across steps
	WarmStartDistance float64 `yaml:"warm_start_distance"`
	// RestitutionVelocity is the approach speed above which restitution applies
	RestitutionVelocity float64 `yaml:"restitution_velocity"`

	LinearTolerance          float64 `yaml:"linear_tolerance"`
	AngularTolerance         float64 `yaml:"angular_tolerance"`
	MaximumLinearCorrection  float64 `yaml:"maximum_linear_correction"`
	MaximumAngularCorrection float64 `yaml:"maximum_angular_correction"`
	// Baumgarte is the fraction of the position error corrected per iteration
	Baumgarte float64 `yaml:"baumgarte"`

	ContinuousDetectionMode ContinuousDetectionMode `yaml:"continuous_detection_mode"`
}

// Default returns the standard tuning, suitable for objects between 0.1 and 10 meters.
func Default() Settings {
	return Settings{
		StepFrequency:      1.0 / 60.0,
		MaximumTranslation: 2.0,
		MaximumRotation:    0.5 * math.Pi,

		AutoSleepingEnabled:  true,
		SleepLinearVelocity:  0.01,
		SleepAngularVelocity: 2.0 * math.Pi / 180.0,
		SleepTime:            0.5,

		VelocityConstraintSolverIterations: 10,
		PositionConstraintSolverIterations: 10,

		WarmStartingEnabled: true,
		WarmStartDistance:   1.0e-2,
		RestitutionVelocity: 1.0,

		LinearTolerance:          0.005,
		AngularTolerance:         2.0 * math.Pi / 180.0,
		MaximumLinearCorrection:  0.2,
		MaximumAngularCorrection: 8.0 * math.Pi / 180.0,
		Baumgarte:                0.2,

		ContinuousDetectionMode: CCDAll,
	}
}

// Load reads YAML settings from r. Keys missing from the document keep their
// default value, unknown keys are rejected.
func Load(r io.Reader) (Settings, error) {
	s := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Default(), fmt.Errorf("decode settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Default(), err
	}
	return s, nil
}

// LoadFile reads YAML settings from the file at path.
func LoadFile(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Default(), fmt.Errorf("open settings: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Validate checks every value is in its allowed range.
func (s Settings) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"step_frequency", s.StepFrequency},
		{"maximum_translation", s.MaximumTranslation},
		{"maximum_rotation", s.MaximumRotation},
		{"linear_tolerance", s.LinearTolerance},
		{"angular_tolerance", s.AngularTolerance},
		{"maximum_linear_correction", s.MaximumLinearCorrection},
		{"maximum_angular_correction", s.MaximumAngularCorrection},
		{"baumgarte", s.Baumgarte},
	}
	for _, p := range positive {
		if !(p.value > 0) {
			return fmt.Errorf("%s must be positive, got %v: %w", p.name, p.value, ErrInvalidSetting)
		}
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"sleep_linear_velocity", s.SleepLinearVelocity},
		{"sleep_angular_velocity", s.SleepAngularVelocity},
		{"sleep_time", s.SleepTime},
		{"warm_start_distance", s.WarmStartDistance},
		{"restitution_velocity", s.RestitutionVelocity},
	}
	for _, p := range nonNegative {
		if !(p.value >= 0) {
			return fmt.Errorf("%s must not be negative, got %v: %w", p.name, p.value, ErrInvalidSetting)
		}
	}

	if s.VelocityConstraintSolverIterations < 1 {
		return fmt.Errorf("velocity_constraint_solver_iterations must be at least 1, got %d: %w", s.VelocityConstraintSolverIterations, ErrInvalidSetting)
	}
	if s.PositionConstraintSolverIterations < 1 {
		return fmt.Errorf("position_constraint_solver_iterations must be at least 1, got %d: %w", s.PositionConstraintSolverIterations, ErrInvalidSetting)
	}
	if s.ContinuousDetectionMode < CCDNone || s.ContinuousDetectionMode > CCDAll {
		return fmt.Errorf("continuous_detection_mode %d: %w", s.ContinuousDetectionMode, ErrInvalidSetting)
	}

	return nil
}

func (s Settings) MaximumTranslationSquared() float64 {
	return s.MaximumTranslation * s.MaximumTranslation
}

func (s Settings) MaximumRotationSquared() float64 {
	return s.MaximumRotation * s.MaximumRotation
}

func (s Settings) SleepLinearVelocitySquared() float64 {
	return s.SleepLinearVelocity * s.SleepLinearVelocity
}

func (s Settings) SleepAngularVelocitySquared() float64 {
	return s.SleepAngularVelocity * s.SleepAngularVelocity
}

func (s Settings) WarmStartDistanceSquared() float64 {
	return s.WarmStartDistance * s.WarmStartDistance
}
