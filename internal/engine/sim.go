package engine

import (
	"context"
	"log"
	"sync"
	"time"
)

// Snapshot is a consistent, read-only view of the simulation for consumers.
// Everything in it is copied; readers never share memory with the producer.
type Snapshot struct {
	Sample  Sample  `json:"sample"`
	Peaks   Peaks   `json:"peaks"`
	History []Point `json:"history"`
	Elapsed float64 `json:"elapsed"` // simulated seconds
	Running bool    `json:"running"`
	Ticks   int     `json:"ticks"`
}

// Simulation owns all mutable simulation state: the sampler, the tracker and
// the latest sample, behind one lock. One background producer advances it per
// tick; any number of consumers poll Snapshot on their own cadence. A
// slightly stale read is fine, a torn one is not.
type Simulation struct {
	params *Params

	mu      sync.RWMutex
	sampler *Sampler
	tracker *Tracker
	latest  Sample
	elapsed float64
	ticks   int
	running bool
}

// NewSimulation builds a simulation from derived params and a random source.
func NewSimulation(p *Params, rng Source) *Simulation {
	return &Simulation{
		params:  p,
		sampler: NewSampler(p, rng),
		tracker: NewTracker(p),
	}
}

// Params returns the immutable derived configuration.
func (s *Simulation) Params() *Params { return s.params }

// Run advances the state machine once per tick until the wall-clock duration
// elapses or ctx is cancelled. Cancellation is cooperative and observed
// within one tick interval. A duration <= 0 runs until cancellation.
func (s *Simulation) Run(ctx context.Context, duration time.Duration) {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		log.Printf("[sim] finished after %d ticks", s.TickCount())
	}()

	log.Printf("[sim] started (tick %v, duration %v)", s.params.TickInterval, duration)

	ticker := time.NewTicker(s.params.TickInterval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-ticker.C:
			s.Step()
		}
	}
}

// Step advances exactly one tick. Exposed so tests can drive the simulation
// without timers.
func (s *Simulation) Step() Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample := s.sampler.Next()
	sample = s.tracker.Observe(sample, s.elapsed)
	s.latest = sample
	s.elapsed += s.params.TickInterval.Seconds()
	s.ticks++
	return sample
}

// Snapshot returns a copy of the current state for rendering.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Sample:  s.latest,
		Peaks:   s.tracker.Peaks(),
		History: s.tracker.History().Points(),
		Elapsed: s.elapsed,
		Running: s.running,
		Ticks:   s.ticks,
	}
}

// ResetPeaks clears the peak statistics mid-run.
func (s *Simulation) ResetPeaks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.Reset()
}

// TickCount returns the number of ticks produced so far.
func (s *Simulation) TickCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

// Running reports whether the producer loop is active.
func (s *Simulation) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
