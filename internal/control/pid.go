package control

import (
	"github.com/san-kum/ctrlib/internal/robot"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/state"
)

// PID is an independent joint PID regulating the positions to a target.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target state.JointPositions

	model    *robot.Model
	integral []float64
	prevT    float64
	first    bool
}

func NewPID(model *robot.Model, kp, ki, kd float64, target state.JointPositions) *PID {
	return &PID{
		Kp:       kp,
		Ki:       ki,
		Kd:       kd,
		Target:   target,
		model:    model,
		integral: make([]float64, model.NbJoints()),
		first:    true,
	}
}

// Compute uses the measured joint velocities for the derivative term.
func (p *PID) Compute(x sim.State, t float64) (sim.Control, error) {
	js, err := JointState(p.model, x)
	if err != nil {
		return nil, err
	}
	e, err := p.Target.Sub(js.Positions())
	if err != nil {
		return nil, err
	}

	dt := t - p.prevT
	if p.first {
		dt = 0
		p.first = false
	}
	p.prevT = t

	errs := e.Data()
	velocities := js.GetVelocities()
	u := make(sim.Control, len(errs))
	for i, ei := range errs {
		if dt > 0 {
			p.integral[i] += ei * dt
		}
		u[i] = p.Kp*ei + p.Ki*p.integral[i] - p.Kd*velocities[i]
	}
	return u, nil
}

// Reset clears the integral state.
func (p *PID) Reset() {
	clear(p.integral)
	p.first = true
}
