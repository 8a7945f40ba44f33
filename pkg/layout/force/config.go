package force

import (
	"github.com/matzehuels/forcegraph/pkg/errors"
)

// Default values for [Config].
const (
	DefaultArea                  = 1000.0
	DefaultMaxIterations         = 100
	DefaultJitter                = 5.0
	DefaultGravityForce          = 0.01
	DefaultCoolDownFactor        = 0.95
	DefaultTemperatureMultiplier = 2.0
	DefaultRepulsionMultiplier   = 1.0
	DefaultAttractionMultiplier  = 1.0
)

const (
	// RunningThreshold is the temperature at or below which the engine is settled.
	RunningThreshold = 0.001

	// StepThreshold is the temperature below which Step does nothing.
	StepThreshold = 0.01

	// SeedRegion is the side of the origin-centered cube used to place nodes
	// that have no position yet. It does not depend on the configured area.
	SeedRegion = 100.0
)

// Forces selects the pair of force laws.
type Forces string

const (
	// ForcesLogarithmic uses repulsion -c·k²/d² and attraction c·d·ln(d/k).
	ForcesLogarithmic Forces = "logarithmic"

	// ForcesClassic uses the textbook laws: repulsion -c·k²/d and attraction c·d²/k.
	ForcesClassic Forces = "classic"
)

// Cooling selects the temperature schedule.
type Cooling string

const (
	// CoolingGeometric multiplies the temperature by CoolDownFactor every iteration.
	CoolingGeometric Cooling = "geometric"

	// CoolingAdaptive divides the temperature by 1 + t·ln(1+i)/√n, where i is
	// the iteration and n the node count. Iteration 0 falls back to geometric.
	CoolingAdaptive Cooling = "adaptive"
)

// Config holds the simulation parameters. It is copied into the engine at
// construction and never changes afterwards.
//
// Start from [DefaultConfig] and override fields; the zero value is not a
// usable configuration because zero is meaningful for Jitter and GravityForce.
type Config struct {
	// Area sizes the bounding cube: positions stay in [-Area/2, Area/2] per axis.
	Area float64 `json:"area" toml:"area" yaml:"area"`

	// MaxIterations is the number of steps Layout runs.
	MaxIterations int `json:"max_iterations" toml:"max_iterations" yaml:"max_iterations"`

	// Jitter is the positional noise magnitude at the initial temperature.
	Jitter float64 `json:"jitter" toml:"jitter" yaml:"jitter"`

	// GravityForce is the length of the per-step pull toward the origin.
	GravityForce float64 `json:"gravity_force" toml:"gravity_force" yaml:"gravity_force"`

	// TemperatureMultiplier scales the initial temperature √Area/10.
	TemperatureMultiplier float64 `json:"temperature_multiplier" toml:"temperature_multiplier" yaml:"temperature_multiplier"`

	// CoolDownFactor must lie in (0, 1).
	CoolDownFactor float64 `json:"cool_down_factor" toml:"cool_down_factor" yaml:"cool_down_factor"`

	RepulsionMultiplier  float64 `json:"repulsion_multiplier" toml:"repulsion_multiplier" yaml:"repulsion_multiplier"`
	AttractionMultiplier float64 `json:"attraction_multiplier" toml:"attraction_multiplier" yaml:"attraction_multiplier"`

	// Forces and Cooling default to ForcesLogarithmic and CoolingGeometric when empty.
	Forces  Forces  `json:"forces,omitempty" toml:"forces" yaml:"forces,omitempty"`
	Cooling Cooling `json:"cooling,omitempty" toml:"cooling" yaml:"cooling,omitempty"`
}

// DefaultConfig returns the default simulation parameters.
func DefaultConfig() Config {
	return Config{
		Area:                  DefaultArea,
		MaxIterations:         DefaultMaxIterations,
		Jitter:                DefaultJitter,
		GravityForce:          DefaultGravityForce,
		TemperatureMultiplier: DefaultTemperatureMultiplier,
		CoolDownFactor:        DefaultCoolDownFactor,
		RepulsionMultiplier:   DefaultRepulsionMultiplier,
		AttractionMultiplier:  DefaultAttractionMultiplier,
		Forces:                ForcesLogarithmic,
		Cooling:               CoolingGeometric,
	}
}

// normalized fills the empty enum fields.
func (c Config) normalized() Config {
	if c.Forces == "" {
		c.Forces = ForcesLogarithmic
	}
	if c.Cooling == "" {
		c.Cooling = CoolingGeometric
	}
	return c
}

// Validate checks that every parameter is usable.
func (c Config) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"area", c.Area},
		{"jitter", c.Jitter},
		{"gravity_force", c.GravityForce},
		{"temperature_multiplier", c.TemperatureMultiplier},
		{"cool_down_factor", c.CoolDownFactor},
		{"repulsion_multiplier", c.RepulsionMultiplier},
		{"attraction_multiplier", c.AttractionMultiplier},
	} {
		if err := errors.ValidateFinite(f.name, f.v); err != nil {
			return err
		}
	}

	switch {
	case c.Area <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "area must be positive, got %v", c.Area)
	case c.MaxIterations < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "max_iterations must not be negative, got %d", c.MaxIterations)
	case c.Jitter < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "jitter must not be negative, got %v", c.Jitter)
	case c.TemperatureMultiplier < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "temperature_multiplier must not be negative, got %v", c.TemperatureMultiplier)
	case c.CoolDownFactor <= 0 || c.CoolDownFactor >= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "cool_down_factor must be in (0, 1), got %v", c.CoolDownFactor)
	case c.RepulsionMultiplier < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "repulsion_multiplier must not be negative, got %v", c.RepulsionMultiplier)
	case c.AttractionMultiplier < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "attraction_multiplier must not be negative, got %v", c.AttractionMultiplier)
	}

	n := c.normalized()
	if n.Forces != ForcesLogarithmic && n.Forces != ForcesClassic {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid forces: %q (must be one of: logarithmic, classic)", c.Forces)
	}
	if n.Cooling != CoolingGeometric && n.Cooling != CoolingAdaptive {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid cooling: %q (must be one of: geometric, adaptive)", c.Cooling)
	}
	return nil
}
