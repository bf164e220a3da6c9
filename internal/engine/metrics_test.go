package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateHPZeroCases(t *testing.T) {
	p := testParams(t)
	tr := NewTracker(p)

	assert.Equal(t, 0.0, tr.EstimateHP(400, 14.0), "rpm below floor")
	assert.Equal(t, 0.0, tr.EstimateHP(3000, 1.5), "map below floor")

	// A disabled calibration factor yields zero everywhere instead of failing.
	disabled := *p
	disabled.HPUnitFactor = 0
	trd := NewTracker(&disabled)
	assert.Equal(t, 0.0, trd.EstimateHP(6000, 20))
}

func TestEstimateHPCalibrationPoint(t *testing.T) {
	p := testParams(t)
	tr := NewTracker(p)

	// At the calibration point the estimate reproduces the base peak HP.
	got := tr.EstimateHP(p.BasePeakHPRPM, p.AccelNAMAP)
	assert.InDelta(t, p.BasePeakHP, got, 0.001)
}

func TestEstimateHPCapped(t *testing.T) {
	p := testParams(t)
	tr := NewTracker(p)

	hp := tr.EstimateHP(p.RedlineRPM, MaxBoostCapPSI)
	assert.LessOrEqual(t, hp, p.MaxEstimatedHP())
}

func TestEstimateHPAlwaysInBounds(t *testing.T) {
	p := testParams(t)
	tr := NewTracker(p)
	s := NewSampler(p, NewSource(31))

	for i := 0; i < 10000; i++ {
		sample := tr.Observe(s.Next(), float64(i)*0.1)
		assert.GreaterOrEqual(t, sample.EstimatedHP, 0.0)
		assert.LessOrEqual(t, sample.EstimatedHP, p.MaxEstimatedHP())
	}
}

func TestPeaksMonotonic(t *testing.T) {
	p := testParams(t)
	tr := NewTracker(p)
	s := NewSampler(p, NewSource(17))

	prev := tr.Peaks()
	assert.Equal(t, p.BoostActivePSI, prev.MaxBoostPSI, "max boost starts at the threshold")

	for i := 0; i < 5000; i++ {
		tr.Observe(s.Next(), float64(i)*0.1)
		cur := tr.Peaks()
		assert.GreaterOrEqual(t, cur.MaxHP, prev.MaxHP)
		assert.GreaterOrEqual(t, cur.MaxBoostPSI, prev.MaxBoostPSI)
		prev = cur
	}
}

func TestPeaksRecordSampleAtMax(t *testing.T) {
	p := testParams(t)
	tr := NewTracker(p)

	tr.Observe(Sample{RPM: 6000, MAP: 18}, 0)
	peaks := tr.Peaks()
	assert.Equal(t, 6000, peaks.RPMAtMaxHP)
	assert.Equal(t, 18.0, peaks.MAPAtMaxHP)
	assert.Equal(t, 18.0, peaks.MaxBoostPSI)

	// A weaker sample leaves the peaks alone.
	tr.Observe(Sample{RPM: 2000, MAP: 8}, 0.1)
	assert.Equal(t, peaks, tr.Peaks())
}

func TestTrackerReset(t *testing.T) {
	p := testParams(t)
	tr := NewTracker(p)

	tr.Observe(Sample{RPM: 6000, MAP: 18}, 0)
	require.Greater(t, tr.Peaks().MaxHP, 0.0)

	tr.Reset()
	peaks := tr.Peaks()
	assert.Equal(t, 0.0, peaks.MaxHP)
	assert.Equal(t, p.BoostActivePSI, peaks.MaxBoostPSI)
	// History survives the reset.
	assert.Equal(t, 1, tr.History().Len())
}

func TestObserveAppendsHistory(t *testing.T) {
	tr := NewTracker(testParams(t))
	for i := 0; i < 10; i++ {
		tr.Observe(Sample{RPM: 1000, MAP: 5}, float64(i)*0.1)
	}
	pts := tr.History().Points()
	require.Len(t, pts, 10)
	assert.Equal(t, 0.0, pts[0].Offset)
	assert.InDelta(t, 0.9, pts[9].Offset, 1e-9)
}
