package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/prasadtara/enginesim/internal/units"
)

// Input bounds. The prompts in the original tuning tool enforced the same
// ranges before the simulation was allowed to start.
const (
	MinElevationM = -400
	MaxElevationM = 8000
	MinRedlineRPM = 5000
	MaxRedlineRPM = 10000
	MinIdleRPM    = 500
	MaxIdleRPM    = 1000
	MaxBoostCapPSI = 45
)

// accelStartRPM is where full-throttle acceleration begins.
const accelStartRPM = 5000

// decelMAPKPa is the manifold vacuum during engine-braking deceleration.
const decelMAPKPa = 20

const (
	defaultHistorySize  = 450
	defaultTickInterval = 100 * time.Millisecond
)

// Tuning holds the raw user-supplied tuning parameters. All pressures are PSI;
// presentation layers convert for display.
type Tuning struct {
	ElevationM  float64
	BasePeakHP  float64 // naturally-aspirated peak HP
	MaxBoostPSI float64 // absolute target peak MAP
	RedlineRPM  int
	IdleRPM     int

	// Policy knobs the original tuning tool hardcoded differently per variant.
	BoostMarginPSI float64 // added to atmospheric for the boost-active threshold
	HistorySize    int
	TickInterval   time.Duration
}

// Params is the full derived simulation configuration. Immutable once built;
// a Simulation never mutates it.
type Params struct {
	Tuning

	AtmosphericPSI float64
	BoostActivePSI float64
	AccelStartRPM  int
	RPMAtMaxBoost  int

	IdleMAP      float64
	CruiseMAPMin float64
	CruiseMAPMax float64
	AccelNAMAP   float64
	DecelMAP     float64

	BasePeakHPRPM int
	HPUnitFactor  float64

	CruiseRPMMin int
	CruiseRPMMax int
	DecelRPMMin  int
	DecelRPMMax  int
}

// Derive validates the tuning inputs and computes every derived parameter.
// All invalid configurations are rejected here; the state machine itself
// cannot fail once it is running.
func (t Tuning) Derive() (*Params, error) {
	if t.ElevationM < MinElevationM || t.ElevationM > MaxElevationM {
		return nil, fmt.Errorf("elevation %.0fm outside [%d, %d]", t.ElevationM, MinElevationM, MaxElevationM)
	}
	if t.BasePeakHP < 1 {
		return nil, fmt.Errorf("base peak HP must be at least 1, got %.1f", t.BasePeakHP)
	}
	if t.RedlineRPM < MinRedlineRPM || t.RedlineRPM > MaxRedlineRPM {
		return nil, fmt.Errorf("redline %d RPM outside [%d, %d]", t.RedlineRPM, MinRedlineRPM, MaxRedlineRPM)
	}
	if t.IdleRPM < MinIdleRPM || t.IdleRPM > MaxIdleRPM {
		return nil, fmt.Errorf("idle %d RPM outside [%d, %d]", t.IdleRPM, MinIdleRPM, MaxIdleRPM)
	}
	if t.IdleRPM >= t.RedlineRPM {
		return nil, fmt.Errorf("idle RPM %d must be below redline %d", t.IdleRPM, t.RedlineRPM)
	}
	if t.BoostMarginPSI < 0 {
		return nil, fmt.Errorf("boost margin must not be negative, got %.2f", t.BoostMarginPSI)
	}

	atm := units.AtmosphericPressurePSI(t.ElevationM)
	if atm <= 0 {
		return nil, fmt.Errorf("no usable atmospheric pressure at %.0fm", t.ElevationM)
	}

	// The boost target is absolute manifold pressure, so anything at or below
	// atmospheric could never be reached under boost.
	if t.MaxBoostPSI < math.Round(atm) {
		return nil, fmt.Errorf("max boost %.1f PSI below atmospheric %.1f PSI", t.MaxBoostPSI, atm)
	}
	if t.MaxBoostPSI > MaxBoostCapPSI {
		return nil, fmt.Errorf("max boost %.1f PSI above %d PSI limit", t.MaxBoostPSI, MaxBoostCapPSI)
	}

	if t.HistorySize <= 0 {
		t.HistorySize = defaultHistorySize
	}
	if t.TickInterval <= 0 {
		t.TickInterval = defaultTickInterval
	}

	p := &Params{
		Tuning:         t,
		AtmosphericPSI: atm,
		BoostActivePSI: atm + t.BoostMarginPSI,
		AccelStartRPM:  accelStartRPM,
	}

	// Boost reaches its peak at ~90% of redline, but never below the
	// full-throttle band.
	p.RPMAtMaxBoost = int(math.Round(float64(t.RedlineRPM) * 0.9))
	if p.RPMAtMaxBoost < p.AccelStartRPM {
		p.RPMAtMaxBoost = p.AccelStartRPM + 500
	}

	p.IdleMAP = atm * 0.3
	p.CruiseMAPMin = atm * 0.4
	p.CruiseMAPMax = atm * 0.7
	p.AccelNAMAP = atm * 0.95
	p.DecelMAP = units.KPaToPSI(decelMAPKPa)

	p.BasePeakHPRPM = int(math.Round(float64(t.RedlineRPM) * 0.8))
	if p.BasePeakHPRPM < p.AccelStartRPM {
		p.BasePeakHPRPM = p.AccelStartRPM + 500
	}

	// Calibration factor for the linear HP estimate. Zero disables the
	// estimate instead of failing the run.
	if p.BasePeakHPRPM > 0 && p.AccelNAMAP > 0 {
		p.HPUnitFactor = t.BasePeakHP / (float64(p.BasePeakHPRPM) * p.AccelNAMAP)
	}

	p.CruiseRPMMax = int(float64(p.AccelStartRPM) * 0.9)
	p.CruiseRPMMin = int(float64(t.IdleRPM) * 1.5)
	p.DecelRPMMin = t.IdleRPM + 100
	p.DecelRPMMax = p.AccelStartRPM - 100

	return p, nil
}

// MaxEstimatedHP is the hard cap on the HP estimate; the linear formula runs
// away at high RPM x pressure products.
func (p *Params) MaxEstimatedHP() float64 {
	return p.BasePeakHP * 2.5
}

// ClassifyBoost maps a manifold pressure to its boost status. The boost
// boundary is exclusive: a MAP exactly at the threshold is not boosting.
func (p *Params) ClassifyBoost(mapPSI float64) BoostStatus {
	switch {
	case mapPSI > p.BoostActivePSI:
		return BoostActive
	case mapPSI > p.AtmosphericPSI*0.9:
		return BoostAtmospheric
	default:
		return BoostVacuum
	}
}
