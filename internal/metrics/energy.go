package metrics

import (
	"math"

	"github.com/san-kum/ctrlib/internal/sim"
)

// PeakEnergy is the largest energy reported by the system during the run.
// Systems that do not report energy yield zero.
type PeakEnergy struct {
	name string
	sys  sim.System
	peak float64
}

func NewPeakEnergy(sys sim.System) *PeakEnergy {
	return &PeakEnergy{
		name: "peak_energy",
		sys:  sys,
	}
}

func (e *PeakEnergy) Name() string { return e.name }

func (e *PeakEnergy) Observe(x sim.State, u sim.Control, t float64) {
	ec, ok := e.sys.(sim.Energetic)
	if !ok {
		return
	}
	e.peak = math.Max(e.peak, ec.Energy(x))
}

func (e *PeakEnergy) Value() float64 { return e.peak }

func (e *PeakEnergy) Reset() { e.peak = 0 }
