package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKPaToPSI(t *testing.T) {
	assert.InDelta(t, 14.5, KPaToPSI(100), 0.1)
	assert.InDelta(t, 2.9, KPaToPSI(20), 0.01)
	assert.Equal(t, 0.0, KPaToPSI(0))
}

func TestPSIToKPaRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 14.7, 29.4, 101.325} {
		assert.InDelta(t, v, PSIToKPa(KPaToPSI(v)), 1e-9)
	}
}

func TestAtmosphericPressurePSI(t *testing.T) {
	tests := []struct {
		name      string
		elevation float64
		want      float64
		delta     float64
	}{
		{"sea level", 0, 14.70, 0.1},
		{"high altitude", 4000, 8.94, 0.01},
		{"below sea level", -300, 15.23, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AtmosphericPressurePSI(tt.elevation), tt.delta)
		})
	}
}

func TestAtmosphericPressureMonotonicallyDecreasing(t *testing.T) {
	prev := AtmosphericPressurePSI(-400)
	for h := -300.0; h <= 8000; h += 100 {
		p := AtmosphericPressurePSI(h)
		assert.Lessf(t, p, prev, "pressure at %.0fm should be below pressure 100m lower", h)
		prev = p
	}
}

func TestAtmosphericPressureExtremeElevation(t *testing.T) {
	// L*h >= T0 would make the formula's base non-positive; the sentinel 0
	// is returned instead of a NaN.
	assert.Equal(t, 0.0, AtmosphericPressureKPa(50000))
	assert.Equal(t, 0.0, AtmosphericPressurePSI(44331))
}
