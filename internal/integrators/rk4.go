package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/ctrlib/internal/sim"
)

// RK4 is the classic fourth-order Runge-Kutta method. The control is held
// constant over the step. An RK4 keeps scratch buffers and must not be shared
// between goroutines.
type RK4 struct {
	k1, k2, k3, k4 sim.State
	scratch        sim.State
}

func NewRK4() *RK4 { return &RK4{} }

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(sim.State, n)
		r.k2 = make(sim.State, n)
		r.k3 = make(sim.State, n)
		r.k4 = make(sim.State, n)
		r.scratch = make(sim.State, n)
	}
}

func (r *RK4) Step(sys sim.System, x sim.State, u sim.Control, t, dt float64) sim.State {
	r.ensureScratch(len(x))
	half := dt / 2

	copy(r.k1, sys.Derive(x, u, t))
	floats.AddScaledTo(r.scratch, x, half, r.k1)
	copy(r.k2, sys.Derive(r.scratch, u, t+half))
	floats.AddScaledTo(r.scratch, x, half, r.k2)
	copy(r.k3, sys.Derive(r.scratch, u, t+half))
	floats.AddScaledTo(r.scratch, x, dt, r.k3)
	copy(r.k4, sys.Derive(r.scratch, u, t+dt))

	next := x.Clone()
	floats.AddScaled(next, dt/6, r.k1)
	floats.AddScaled(next, dt/3, r.k2)
	floats.AddScaled(next, dt/3, r.k3)
	floats.AddScaled(next, dt/6, r.k4)
	return next
}
