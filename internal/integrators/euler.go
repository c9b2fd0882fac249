package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/ctrlib/internal/sim"
)

// Euler is the explicit first-order method.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (*Euler) Step(sys sim.System, x sim.State, u sim.Control, t float64, dt float64) sim.State {
	next := make(sim.State, len(x))
	floats.AddScaledTo(next, x, dt, sys.Derive(x, u, t))
	return next
}
