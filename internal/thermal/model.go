// Package thermal holds the lumped-capacitance heat balance of a single zone.
//
// Flows are expressed in the mixed units of the radiator emission tables and
// the wall transfer coefficient. TemperatureDelta keeps the simplified update
// dt * (wall + radiator) / volume * density * specificHeat as is; it is a
// behavioural model, not an SI-consistent one.
package thermal

import "time"

// RadiatorOutputCoefficient is the empirical emission of a panel radiator
// per metre of length (41 * 4.9).
const RadiatorOutputCoefficient = 41 * 4.9

type Params struct {
	TransferCoefficient float64 // kW/m²°C through walls and ceiling
	AirDensity          float64 // kg/m³
	SpecificHeat        float64 // kJ/kg°C
}

// DefaultParams returns the coefficients used by the reference room.
func DefaultParams() Params {
	return Params{
		TransferCoefficient: 0.003,
		AirDensity:          1.25,
		SpecificHeat:        1.005,
	}
}

func (params *Params) Validate() error {
	if params.TransferCoefficient < 0 {
		return ErrNegativeTransferCoefficient
	}
	if params.AirDensity <= 0 || params.SpecificHeat <= 0 {
		return ErrInvalidAirProperties
	}
	return nil
}

// ExposedArea is the wall and ceiling area of a box-shaped room. The floor
// does not exchange heat.
func ExposedArea(length, width, height float64) float64 {
	return 2*(length*height) + 2*(width*height) + length*width
}

// WallHeatFlow is positive when the ambient is warmer than the zone.
func WallHeatFlow(coefficient, length, width, height, ambient, zone float64) float64 {
	return coefficient * ExposedArea(length, width, height) * (ambient - zone)
}

// RadiatorHeatFlow is zero at power 0 and grows with power, length and height.
func RadiatorHeatFlow(power, length, height float64) float64 {
	return power * RadiatorOutputCoefficient * length * (1 + 8*height)
}

func TemperatureDelta(dt time.Duration, wallFlow, radiatorFlow, volume, airDensity, specificHeat float64) (float64, error) {
	if volume <= 0 {
		return 0, ErrNonPositiveVolume
	}
	return dt.Seconds() * (wallFlow + radiatorFlow) / volume * airDensity * specificHeat, nil
}

// Delta is TemperatureDelta with the coefficients taken from params.
func (params *Params) Delta(dt time.Duration, wallFlow, radiatorFlow, volume float64) (float64, error) {
	return TemperatureDelta(dt, wallFlow, radiatorFlow, volume, params.AirDensity, params.SpecificHeat)
}
