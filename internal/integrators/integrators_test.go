package integrators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/ctrlib/internal/sim"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int   { return 2 }
func (h *harmonicOscillator) ControlDim() int { return 0 }

func (h *harmonicOscillator) Derive(x sim.State, u sim.Control, t float64) sim.State {
	return sim.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x sim.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestIntegratorAccuracy(t *testing.T) {
	tests := []struct {
		name  string
		integ sim.Integrator
		tol   float64
	}{
		{"euler", NewEuler(), 2e-2},
		{"rk4", NewRK4(), 1e-4},
		{"verlet", NewVerlet(), 1e-3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &harmonicOscillator{}
			x := sim.State{1.0, 0.0}
			dt := 0.01
			steps := 100

			for i := 0; i < steps; i++ {
				x = tt.integ.Step(sys, x, nil, float64(i)*dt, dt)
			}

			expectedX := math.Cos(float64(steps) * dt)
			expectedV := -math.Sin(float64(steps) * dt)

			assert.InDelta(t, expectedX, x[0], tt.tol, "position")
			assert.InDelta(t, expectedV, x[1], tt.tol, "velocity")
		})
	}
}

func TestVerletEnergyBounded(t *testing.T) {
	sys := &harmonicOscillator{}
	integ := NewVerlet()
	x := sim.State{1.0, 0.0}
	e0 := sys.Energy(x)

	for i := 0; i < 10000; i++ {
		x = integ.Step(sys, x, nil, float64(i)*0.01, 0.01)
	}

	assert.InEpsilon(t, e0, sys.Energy(x), 1e-3, "energy drift")
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	sys := &harmonicOscillator{}
	x := sim.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(sys, x, nil, 0, 0.01)
	}
}
