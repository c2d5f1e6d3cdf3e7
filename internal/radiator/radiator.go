package radiator

import (
	"time"

	"github.com/Agrid-Dev/roomgym/internal/thermal"
)

type Params struct {
	Length float64 // m
	Height float64 // m
	// RampTime is how long the valve takes to reach full power at MaxAction.
	RampTime time.Duration
	// CooldownFactor scales the ramp rate when the valve is closed. Must be
	// negative; -0.5 cools down twice as slowly as it heats up.
	CooldownFactor float64
}

func DefaultParams() Params {
	return Params{
		Length:         1,
		Height:         0.5,
		RampTime:       40 * time.Minute,
		CooldownFactor: -0.5,
	}
}

func (params *Params) Validate() error {
	if params.Length <= 0 || params.Height <= 0 {
		return ErrInvalidDimensions
	}
	if params.RampTime <= 0 {
		return ErrInvalidRampTime
	}
	if params.CooldownFactor >= 0 {
		return ErrInvalidCooldown
	}
	return nil
}

// Radiator integrates a valve setting into a power level in [0, 1].
type Radiator struct {
	params Params
	power  float64
}

func New(params Params) (*Radiator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Radiator{params: params}, nil
}

func (r *Radiator) Params() Params {
	return r.params
}

func (r *Radiator) Power() float64 {
	return r.power
}

// RampRate is the power change per step of length dt at full setting.
func (r *Radiator) RampRate(dt time.Duration) float64 {
	return dt.Seconds() / r.params.RampTime.Seconds()
}

// Step advances the power level by one step of length dt. An invalid action
// leaves the radiator untouched.
func (r *Radiator) Step(action Action, dt time.Duration) (float64, error) {
	if !action.Valid() {
		return r.power, ErrInvalidAction
	}
	rate := r.RampRate(dt)
	if action == ActionOff {
		r.power += r.params.CooldownFactor * rate
	} else {
		r.power += action.Fraction() * rate
	}
	r.power = min(max(r.power, 0), 1)
	return r.power, nil
}

func (r *Radiator) Reset() {
	r.power = 0
}

// HeatFlow is the heat delivered to the zone at the current power level.
func (r *Radiator) HeatFlow() float64 {
	return thermal.RadiatorHeatFlow(r.power, r.params.Length, r.params.Height)
}
