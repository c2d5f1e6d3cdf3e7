package room

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/Agrid-Dev/roomgym/internal/radiator"
	"github.com/Agrid-Dev/roomgym/internal/thermal"
)

type Geometry struct {
	Length float64 // m
	Width  float64 // m
	Height float64 // m
}

func (g Geometry) Volume() float64 {
	return g.Length * g.Width * g.Height
}

func (g Geometry) Validate() error {
	if g.Length <= 0 || g.Width <= 0 || g.Height <= 0 {
		return ErrInvalidGeometry
	}
	return nil
}

type Config struct {
	Comfort  r1.Interval // °C
	Geometry Geometry
	Thermal  thermal.Params
	Radiator radiator.Params

	// Outdoor temperature used when no ambient source is given, and as the
	// initial reading when the source has nothing for the episode start.
	AmbientTemperature float64

	Step           time.Duration
	RewardInterval time.Duration
	Horizon        time.Duration

	// Start is the simulated epoch timestamp at reset.
	Start int64
	// ResetSpread bounds the integer offset added to the comfort midpoint
	// at reset: the offset is drawn from [-ResetSpread, ResetSpread].
	ResetSpread int
}

func DefaultConfig() Config {
	return Config{
		Comfort:        r1.Interval{Min: 19, Max: 25},
		Geometry:       Geometry{Length: 5, Width: 5, Height: 5},
		Thermal:        thermal.DefaultParams(),
		Radiator:       radiator.DefaultParams(),
		Step:           time.Second,
		RewardInterval: 5 * time.Minute,
		Horizon:        24 * time.Hour,
		ResetSpread:    3,
	}
}

func (c Config) Validate() error {
	if c.Comfort.Min >= c.Comfort.Max {
		return ErrInvalidComfortBand
	}
	if err := c.Geometry.Validate(); err != nil {
		return err
	}
	if err := c.Thermal.Validate(); err != nil {
		return fmt.Errorf("thermal: %w", err)
	}
	if err := c.Radiator.Validate(); err != nil {
		return fmt.Errorf("radiator: %w", err)
	}
	if c.Step <= 0 || c.Step%time.Second != 0 {
		return ErrInvalidTimestep
	}
	if c.RewardInterval < c.Step || c.RewardInterval%c.Step != 0 {
		return ErrInvalidRewardInterval
	}
	if c.Horizon < c.Step {
		return ErrInvalidHorizon
	}
	if c.ResetSpread < 0 {
		return ErrInvalidResetSpread
	}
	return nil
}

// Midpoint of the comfort band.
func (c Config) Midpoint() float64 {
	return (c.Comfort.Min + c.Comfort.Max) / 2
}
