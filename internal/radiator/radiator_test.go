package radiator

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func newTestRadiator(t *testing.T, opts ...func(*Params)) *Radiator {
	t.Helper()
	p := DefaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	r, err := New(p)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return r
}

func TestValidateParams(t *testing.T) {
	tests := []struct {
		name string
		opt  func(*Params)
		want error
	}{
		{"Valid params", func(*Params) {}, nil},
		{"Zero length", func(p *Params) { p.Length = 0 }, ErrInvalidDimensions},
		{"Negative height", func(p *Params) { p.Height = -0.5 }, ErrInvalidDimensions},
		{"Zero ramp time", func(p *Params) { p.RampTime = 0 }, ErrInvalidRampTime},
		{"Zero cooldown", func(p *Params) { p.CooldownFactor = 0 }, ErrInvalidCooldown},
		{"Positive cooldown", func(p *Params) { p.CooldownFactor = 0.5 }, ErrInvalidCooldown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.opt(&p)
			if got := p.Validate(); got != tt.want {
				t.Errorf("Got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStepChargesProportionally(t *testing.T) {
	dt := time.Minute
	tests := []struct {
		action Action
		want   float64
	}{
		{Action(1), 0.2 / 40},
		{Action(3), 0.6 / 40},
		{ActionMax, 1.0 / 40},
	}
	for _, tt := range tests {
		r := newTestRadiator(t)
		got, err := r.Step(tt.action, dt)
		if err != nil {
			t.Fatalf("Step(%v): %v", tt.action, err)
		}
		if !almostEqual(got, tt.want, 1e-12) {
			t.Errorf("Step(%v) power = %v, want %v", tt.action, got, tt.want)
		}
	}
}

func TestStepFullPowerAfterRampTime(t *testing.T) {
	r := newTestRadiator(t)
	for range 40 {
		if _, err := r.Step(ActionMax, time.Minute); err != nil {
			t.Fatal(err)
		}
	}
	if !almostEqual(r.Power(), 1, 1e-9) {
		t.Fatalf("power after ramp time = %v, want 1", r.Power())
	}
}

func TestStepSaturatesAtOne(t *testing.T) {
	r := newTestRadiator(t)
	for i := range 10_000 {
		if _, err := r.Step(ActionMax, time.Second); err != nil {
			t.Fatal(err)
		}
		if r.Power() > 1 {
			t.Fatalf("power exceeded 1 at iteration %d: %v", i, r.Power())
		}
	}
	if r.Power() != 1 {
		t.Fatalf("power = %v, want 1", r.Power())
	}
}

func TestStepSaturatesAtZero(t *testing.T) {
	r := newTestRadiator(t)
	for i := range 1000 {
		if _, err := r.Step(ActionOff, time.Second); err != nil {
			t.Fatal(err)
		}
		if r.Power() < 0 {
			t.Fatalf("power dropped below 0 at iteration %d: %v", i, r.Power())
		}
	}
	if r.Power() != 0 {
		t.Fatalf("power = %v, want 0", r.Power())
	}
}

func TestChargeDischargeRoundTrip(t *testing.T) {
	r := newTestRadiator(t)
	// 1/16 of the ramp per step keeps the arithmetic exact
	dt := 150 * time.Second

	charge := 0
	for r.Power() < 1 {
		if _, err := r.Step(ActionMax, dt); err != nil {
			t.Fatal(err)
		}
		charge++
		if charge > 1000 {
			t.Fatal("radiator never reached full power")
		}
	}

	ratio := 1 / -r.Params().CooldownFactor
	budget := int(math.Ceil(float64(charge) * ratio))
	discharge := 0
	for r.Power() > 0 {
		if _, err := r.Step(ActionOff, dt); err != nil {
			t.Fatal(err)
		}
		discharge++
		if discharge > budget {
			t.Fatalf("radiator not discharged after %d steps (charged in %d)", discharge, charge)
		}
	}
	if discharge != budget {
		t.Errorf("discharge took %d steps, want %d", discharge, budget)
	}
}

func TestStepRejectsInvalidAction(t *testing.T) {
	r := newTestRadiator(t)
	if _, err := r.Step(ActionMax, time.Minute); err != nil {
		t.Fatal(err)
	}
	before := r.Power()
	for _, a := range []Action{-1, MaxAction + 1} {
		if _, err := r.Step(a, time.Minute); err != ErrInvalidAction {
			t.Fatalf("Step(%d) err = %v, want ErrInvalidAction", a, err)
		}
	}
	if r.Power() != before {
		t.Fatalf("invalid action changed power from %v to %v", before, r.Power())
	}
}

func TestResetAndHeatFlow(t *testing.T) {
	r := newTestRadiator(t)
	if r.HeatFlow() != 0 {
		t.Fatalf("heat flow at rest = %v, want 0", r.HeatFlow())
	}
	for range 5 {
		_, _ = r.Step(ActionMax, time.Minute)
	}
	if r.HeatFlow() <= 0 {
		t.Fatalf("heat flow while heating = %v, want > 0", r.HeatFlow())
	}
	r.Reset()
	if r.Power() != 0 || r.HeatFlow() != 0 {
		t.Fatalf("after reset power=%v flow=%v", r.Power(), r.HeatFlow())
	}
}
