package engine

// Minimum readings below which the HP estimate reads zero. An engine barely
// turning or a manifold near full vacuum produces no meaningful power.
const (
	minHPEstimateRPM = 500
	minHPEstimateMAP = 2.0 // PSI
)

// Peaks accumulates the best values seen during a run. Monotonic: values only
// move up between resets.
type Peaks struct {
	MaxHP       float64 `json:"maxHp"`
	RPMAtMaxHP  int     `json:"rpmAtMaxHp"`
	MAPAtMaxHP  float64 `json:"mapAtMaxHp"`  // PSI
	MaxBoostPSI float64 `json:"maxBoostPsi"` // floored at the boost threshold
}

// Tracker computes the HP estimate for each sample and maintains the peak
// statistics and rolling history. Not safe for concurrent use; Simulation
// guards it.
type Tracker struct {
	p     *Params
	peaks Peaks
	hist  *History
}

// NewTracker creates a tracker with peaks reset for a new run. MaxBoostPSI
// starts at the boost threshold so a run that never boosts is representable
// as "max boost == threshold".
func NewTracker(p *Params) *Tracker {
	t := &Tracker{p: p, hist: NewHistory(p.HistorySize)}
	t.Reset()
	return t
}

// Reset clears the peaks for a fresh run. The history is left alone so the
// plot stays continuous across a peak reset.
func (t *Tracker) Reset() {
	t.peaks = Peaks{MaxBoostPSI: t.p.BoostActivePSI}
}

// EstimateHP converts an (rpm, map) reading into estimated horsepower.
// Returns 0 when the calibration factor is disabled or the readings are
// below the estimation floor; never exceeds 2.5x the base peak HP.
func (t *Tracker) EstimateHP(rpm int, mapPSI float64) float64 {
	if t.p.HPUnitFactor == 0 || rpm < minHPEstimateRPM || mapPSI < minHPEstimateMAP {
		return 0
	}
	hp := t.p.HPUnitFactor * float64(rpm) * mapPSI
	if limit := t.p.MaxEstimatedHP(); hp > limit {
		hp = limit
	}
	return hp
}

// Observe fills in the sample's HP estimate, updates the peaks, and appends
// the MAP reading to the rolling history at the given elapsed offset.
func (t *Tracker) Observe(s Sample, elapsed float64) Sample {
	s.EstimatedHP = t.EstimateHP(s.RPM, s.MAP)

	if s.EstimatedHP > t.peaks.MaxHP {
		t.peaks.MaxHP = s.EstimatedHP
		t.peaks.RPMAtMaxHP = s.RPM
		t.peaks.MAPAtMaxHP = s.MAP
	}
	if s.MAP > t.p.BoostActivePSI && s.MAP > t.peaks.MaxBoostPSI {
		t.peaks.MaxBoostPSI = s.MAP
	}

	t.hist.Push(Point{Offset: elapsed, MAP: s.MAP})
	return s
}

// Peaks returns a copy of the current peak statistics.
func (t *Tracker) Peaks() Peaks { return t.peaks }

// History returns the tracker's rolling history.
func (t *Tracker) History() *History { return t.hist }
