package engine

import "math"

// Sample is one tick of simulated sensor output. Immutable after creation.
type Sample struct {
	RPM         int         `json:"rpm"`
	MAP         float64     `json:"map"` // PSI
	TPS         int         `json:"tps"` // 0-100%
	Phase       Phase       `json:"phase"`
	BoostStatus BoostStatus `json:"boostStatus"`
	EstimatedHP float64     `json:"estimatedHp"`
}

// Throttle position bands per phase.
const (
	idleTPS      = 0
	cruiseTPSMin = 10
	cruiseTPSMax = 30
	accelTPSMin  = 70
	accelTPSMax  = 100
	decelTPS     = 0
)

// mapJitterPSI is the per-tick noise added to every manifold pressure target.
const mapJitterPSI = 0.5

// Sampler advances the driving-state machine one tick at a time and produces
// raw (rpm, map, tps) samples. It is not safe for concurrent use; Simulation
// serializes access to it.
type Sampler struct {
	p   *Params
	rng Source

	phase     Phase
	phaseTime float64 // seconds spent in the current phase
	prev      Sample  // boosted acceleration ramps RPM off the last sample
}

// NewSampler creates a sampler in the idle phase.
func NewSampler(p *Params, rng Source) *Sampler {
	return &Sampler{p: p, rng: rng, phase: PhaseIdle}
}

// Phase returns the current driving phase.
func (s *Sampler) Phase() Phase { return s.phase }

// Next produces the sample for one tick and then decides whether to move to a
// successor phase. The returned sample carries the phase it was produced in.
func (s *Sampler) Next() Sample {
	var sample Sample
	switch s.phase {
	case PhaseIdle:
		sample = s.sampleIdle()
	case PhaseCruise:
		sample = s.sampleCruise()
	case PhaseAccelNA:
		sample = s.sampleAccelNA()
	case PhaseAccelBoost:
		sample = s.sampleAccelBoost()
	case PhaseDecel:
		sample = s.sampleDecel()
	}
	sample.Phase = s.phase
	sample.BoostStatus = s.p.ClassifyBoost(sample.MAP)
	s.prev = sample

	s.phaseTime += s.p.TickInterval.Seconds()
	bounds := patience[s.phase]
	if s.phaseTime > float64(s.rng.IntBetween(bounds[0], bounds[1])) {
		next := successors[s.phase]
		s.phase = next[s.rng.Pick(len(next))]
		s.phaseTime = 0
	}
	return sample
}

func (s *Sampler) sampleIdle() Sample {
	return Sample{
		RPM: s.rng.IntBetween(s.p.IdleRPM-50, s.p.IdleRPM+50),
		MAP: s.rng.FloatBetween(s.p.IdleMAP-mapJitterPSI, s.p.IdleMAP+mapJitterPSI),
		TPS: idleTPS,
	}
}

func (s *Sampler) sampleCruise() Sample {
	return Sample{
		RPM: s.rng.IntBetween(s.p.CruiseRPMMin, s.p.CruiseRPMMax),
		MAP: s.rng.FloatBetween(s.p.CruiseMAPMin-mapJitterPSI, s.p.CruiseMAPMax+mapJitterPSI),
		TPS: s.rng.IntBetween(cruiseTPSMin, cruiseTPSMax),
	}
}

func (s *Sampler) sampleAccelNA() Sample {
	rpmMax := s.p.RedlineRPM
	if limit := s.p.RPMAtMaxBoost - 500; limit < rpmMax {
		rpmMax = limit
	}
	return Sample{
		RPM: s.rng.IntBetween(s.p.AccelStartRPM, rpmMax),
		MAP: s.rng.FloatBetween(s.p.AccelNAMAP-mapJitterPSI, s.p.AccelNAMAP+mapJitterPSI),
		TPS: s.rng.IntBetween(accelTPSMin, accelTPSMax),
	}
}

func (s *Sampler) sampleAccelBoost() Sample {
	target := s.rng.IntBetween(s.p.AccelStartRPM, s.p.RedlineRPM)

	// RPM cannot jump discontinuously: climb toward the target in 100-300
	// RPM steps, then hover around it.
	var rpm int
	if s.prev.RPM < target {
		rpm = s.prev.RPM + s.rng.IntBetween(100, 300)
		if rpm > s.p.RedlineRPM {
			rpm = s.p.RedlineRPM
		}
	} else {
		rpm = s.rng.IntBetween(target-100, target+100)
	}

	targetMAP := s.p.MaxBoostPSI
	if s.p.RPMAtMaxBoost > s.p.AccelStartRPM {
		progress := float64(rpm-s.p.AccelStartRPM) / float64(s.p.RPMAtMaxBoost-s.p.AccelStartRPM)
		progress = math.Max(0, math.Min(1, progress))
		targetMAP = s.p.AtmosphericPSI + progress*(s.p.MaxBoostPSI-s.p.AtmosphericPSI)
		targetMAP = math.Max(s.p.AccelNAMAP, targetMAP)
	}

	mapVal := s.rng.FloatBetween(targetMAP-mapJitterPSI, targetMAP+mapJitterPSI)
	mapVal = math.Max(s.p.AtmosphericPSI*0.1, math.Min(mapVal, s.p.MaxBoostPSI))

	return Sample{
		RPM: rpm,
		MAP: mapVal,
		TPS: s.rng.IntBetween(accelTPSMin, accelTPSMax),
	}
}

func (s *Sampler) sampleDecel() Sample {
	return Sample{
		RPM: s.rng.IntBetween(s.p.DecelRPMMin, s.p.DecelRPMMax),
		MAP: s.rng.FloatBetween(s.p.DecelMAP-mapJitterPSI, s.p.DecelMAP+mapJitterPSI),
		TPS: decelTPS,
	}
}
