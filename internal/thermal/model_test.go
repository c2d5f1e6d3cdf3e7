package thermal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParams(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   error
	}{
		{"Default params", DefaultParams(), nil},
		{"No transfer", Params{TransferCoefficient: 0, AirDensity: 1, SpecificHeat: 1}, nil},
		{"Negative transfer", Params{TransferCoefficient: -1, AirDensity: 1, SpecificHeat: 1}, ErrNegativeTransferCoefficient},
		{"Zero density", Params{TransferCoefficient: 1, AirDensity: 0, SpecificHeat: 1}, ErrInvalidAirProperties},
		{"Zero specific heat", Params{TransferCoefficient: 1, AirDensity: 1, SpecificHeat: 0}, ErrInvalidAirProperties},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.params.Validate(), tt.want)
		})
	}
}

func TestExposedAreaExcludesFloor(t *testing.T) {
	// 2*(4*2.5) + 2*(3*2.5) + 4*3
	assert.InDelta(t, 47.0, ExposedArea(4, 3, 2.5), 1e-9)
	assert.InDelta(t, 125.0, ExposedArea(5, 5, 5), 1e-9)
}

func TestWallHeatFlow(t *testing.T) {
	tests := []struct {
		name    string
		ambient float64
		zone    float64
		want    func(float64) bool
	}{
		{"Heat flows in when ambient is warmer", 30, 20, func(f float64) bool { return f > 0 }},
		{"Heat flows out when ambient is colder", 0, 20, func(f float64) bool { return f < 0 }},
		{"No flow at equal temperatures", 20, 20, func(f float64) bool { return f == 0 }},
		{"No flow at equal negative temperatures", -7.5, -7.5, func(f float64) bool { return f == 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WallHeatFlow(0.003, 5, 5, 5, tt.ambient, tt.zone)
			assert.True(t, tt.want(got), "WallHeatFlow(%v, %v) = %v", tt.ambient, tt.zone, got)
		})
	}
}

func TestWallHeatFlowIsLinear(t *testing.T) {
	base := WallHeatFlow(0.003, 5, 4, 3, 10, 20)
	assert.InDelta(t, -0.003*ExposedArea(5, 4, 3)*10, base, 1e-12)

	// doubling the temperature gap doubles the flow
	assert.InDelta(t, 2*base, WallHeatFlow(0.003, 5, 4, 3, 0, 20), 1e-12)
	// doubling the coefficient doubles the flow
	assert.InDelta(t, 2*base, WallHeatFlow(0.006, 5, 4, 3, 10, 20), 1e-12)
}

func TestRadiatorHeatFlow(t *testing.T) {
	assert.Equal(t, 0.0, RadiatorHeatFlow(0, 1, 0.5))
	assert.InDelta(t, 200.9*5, RadiatorHeatFlow(1, 1, 0.5), 1e-9)

	prev := RadiatorHeatFlow(0, 1, 0.5)
	for p := 0.05; p <= 1.0; p += 0.05 {
		cur := RadiatorHeatFlow(p, 1, 0.5)
		require.GreaterOrEqual(t, cur, prev, "flow decreased at power %v", p)
		prev = cur
	}

	assert.Greater(t, RadiatorHeatFlow(0.5, 2, 0.5), RadiatorHeatFlow(0.5, 1, 0.5))
	assert.Greater(t, RadiatorHeatFlow(0.5, 1, 0.6), RadiatorHeatFlow(0.5, 1, 0.5))
}

func TestTemperatureDelta(t *testing.T) {
	got, err := TemperatureDelta(time.Second, -7.5, 100, 125, 1.25, 1.005)
	require.NoError(t, err)
	assert.InDelta(t, 92.5/125*1.25*1.005, got, 1e-12)

	got, err = TemperatureDelta(2*time.Second, -7.5, 100, 125, 1.25, 1.005)
	require.NoError(t, err)
	assert.InDelta(t, 2*92.5/125*1.25*1.005, got, 1e-12)
}

func TestTemperatureDeltaRejectsDegenerateVolume(t *testing.T) {
	for _, v := range []float64{0, -1} {
		_, err := TemperatureDelta(time.Second, 1, 1, v, 1.25, 1.005)
		assert.ErrorIs(t, err, ErrNonPositiveVolume, "volume %v", v)
	}
}

func TestParamsDelta(t *testing.T) {
	p := DefaultParams()
	got, err := p.Delta(time.Second, 10, 0, 100)
	require.NoError(t, err)
	want, _ := TemperatureDelta(time.Second, 10, 0, 100, p.AirDensity, p.SpecificHeat)
	assert.Equal(t, want, got)
}
