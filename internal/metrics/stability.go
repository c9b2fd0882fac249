package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/ctrlib/internal/sim"
)

// Stability is the fraction of observed steps whose state is finite and
// within bound in every component.
type Stability struct {
	bound      float64
	violations int
	samples    int
	first      float64
}

func NewStability(bound float64) *Stability {
	return &Stability{bound: bound}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(x sim.State, u sim.Control, t float64) {
	s.samples++
	if x.IsValid() && floats.Norm(x, math.Inf(1)) <= s.bound {
		return
	}
	if s.violations == 0 {
		s.first = t
	}
	s.violations++
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1
	}
	return 1 - float64(s.violations)/float64(s.samples)
}

// FirstViolation returns the time the state first left the bound.
func (s *Stability) FirstViolation() (float64, bool) {
	return s.first, s.violations > 0
}

func (s *Stability) Reset() { *s = Stability{bound: s.bound} }
