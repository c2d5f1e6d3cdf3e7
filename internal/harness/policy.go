package harness

import (
	"golang.org/x/exp/rand"

	"github.com/Agrid-Dev/roomgym/internal/radiator"
	"github.com/Agrid-Dev/roomgym/internal/room"
)

// Policy picks the next radiator action from the current room state.
type Policy interface {
	Act(room.Snapshot) radiator.Action
}

// resetter is implemented by policies that carry state across steps.
type resetter interface {
	Reset()
}

// Constant always plays the same action.
type Constant radiator.Action

func (c Constant) Act(room.Snapshot) radiator.Action {
	return radiator.Action(c)
}

// Random samples actions uniformly.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Act(room.Snapshot) radiator.Action {
	return radiator.Action(r.rng.Intn(radiator.NumActions))
}

type HysteresisParams struct {
	TriggerHysteresis float64 // below midpoint - trigger: start heating
	TargetHysteresis  float64 // above midpoint + target: stop heating
	Action            radiator.Action
}

func (params *HysteresisParams) Validate() error {
	if params.TargetHysteresis > params.TriggerHysteresis {
		return ErrInvalidHysteresis
	}
	if !params.Action.Valid() || params.Action == radiator.ActionOff {
		return radiator.ErrInvalidAction
	}
	return nil
}

// Hysteresis is an on/off thermostat around the comfort midpoint. It is a
// baseline to compare learned controllers against.
type Hysteresis struct {
	params    HysteresisParams
	isHeating bool
}

func NewHysteresis(params HysteresisParams) (*Hysteresis, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Hysteresis{params: params}, nil
}

func (h *Hysteresis) Act(s room.Snapshot) radiator.Action {
	setpoint := (s.Comfort.Min + s.Comfort.Max) / 2
	if !h.isHeating && s.Temperature < setpoint-h.params.TriggerHysteresis {
		h.isHeating = true
	}
	if h.isHeating && s.Temperature >= setpoint+h.params.TargetHysteresis {
		h.isHeating = false
	}
	if h.isHeating {
		return h.params.Action
	}
	return radiator.ActionOff
}

func (h *Hysteresis) Reset() {
	h.isHeating = false
}
