package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/ctrlib/internal/sim"
)

// ControlEffort is the root mean square of the torque norm over the run.
type ControlEffort struct {
	squares float64
	samples int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(x sim.State, u sim.Control, t float64) {
	c.squares += floats.Dot(u, u)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return math.Sqrt(c.squares / float64(c.samples))
}

func (c *ControlEffort) Reset() { *c = ControlEffort{} }
