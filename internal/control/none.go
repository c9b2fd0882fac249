package control

import (
	"fmt"

	"github.com/san-kum/ctrlib/internal/sim"
)

// None applies no torque; the robot coasts under friction.
type None struct {
	joints int
}

func NewNone(joints int) *None { return &None{joints: joints} }

func (n *None) Compute(x sim.State, t float64) (sim.Control, error) {
	if len(x) != 2*n.joints {
		return nil, fmt.Errorf("%w: state has %d entries for %d joints", sim.ErrDimensionMismatch, len(x), n.joints)
	}
	return make(sim.Control, n.joints), nil
}
