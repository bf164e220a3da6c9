package engine

// Phase is a driving state of the simulated engine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCruise
	PhaseAccelNA
	PhaseAccelBoost
	PhaseDecel
)

var phaseNames = [...]string{"idle", "cruise", "accel_na", "accel_boost", "decel"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// MarshalText makes phases render as their names in JSON frames and CSV rows.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// successors lists the phases a phase may transition to. Decel always
// settles back to idle before anything else can happen.
var successors = map[Phase][]Phase{
	PhaseIdle:       {PhaseCruise, PhaseAccelNA, PhaseAccelBoost},
	PhaseCruise:     {PhaseAccelBoost, PhaseAccelNA, PhaseDecel, PhaseIdle},
	PhaseAccelNA:    {PhaseCruise, PhaseDecel, PhaseAccelBoost, PhaseIdle},
	PhaseAccelBoost: {PhaseCruise, PhaseDecel, PhaseIdle},
	PhaseDecel:      {PhaseIdle},
}

// patience bounds, in seconds of time spent in a phase, before a transition
// becomes possible. Drawn per check like the rest of the sampling noise.
var patience = map[Phase][2]int{
	PhaseIdle:       {2, 5},
	PhaseCruise:     {3, 7},
	PhaseAccelNA:    {2, 5},
	PhaseAccelBoost: {2, 5},
	PhaseDecel:      {2, 5},
}

// BoostStatus classifies a sample's manifold pressure against the boost
// threshold and atmospheric pressure.
type BoostStatus int

const (
	BoostWaiting BoostStatus = iota // no sample produced yet
	BoostActive
	BoostAtmospheric // no boost, manifold near atmospheric
	BoostVacuum      // no boost, manifold in vacuum
)

var boostNames = [...]string{"waiting", "active", "atmospheric", "vacuum"}

func (b BoostStatus) String() string {
	if b < 0 || int(b) >= len(boostNames) {
		return "unknown"
	}
	return boostNames[b]
}

func (b BoostStatus) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}
