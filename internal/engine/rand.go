package engine

import (
	"math/rand"
	"time"
)

// Source supplies the uniform draws the sampler needs. Injecting it keeps the
// simulation deterministic under test: the same seed reproduces the same
// sequence of phases and samples.
type Source interface {
	// IntBetween returns a uniform integer in [min, max] inclusive.
	IntBetween(min, max int) int
	// FloatBetween returns a uniform float in [min, max).
	FloatBetween(min, max float64) float64
	// Pick returns a uniform index in [0, n).
	Pick(n int) int
}

type randSource struct {
	r *rand.Rand
}

// NewSource returns a Source seeded with the given value.
func NewSource(seed int64) Source {
	return &randSource{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSource returns a Source seeded from the wall clock.
func NewTimeSource() Source {
	return NewSource(time.Now().UnixNano())
}

func (s *randSource) IntBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.r.Intn(max-min+1)
}

func (s *randSource) FloatBetween(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + s.r.Float64()*(max-min)
}

func (s *randSource) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return s.r.Intn(n)
}
