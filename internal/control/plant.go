package control

import (
	"fmt"

	"github.com/san-kum/ctrlib/internal/robot"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/state"
)

// JointPlant is ddq = tau - friction*dq for every joint of the model.
type JointPlant struct {
	model    *robot.Model
	friction float64
}

func NewJointPlant(model *robot.Model, friction float64) *JointPlant {
	return &JointPlant{model: model, friction: friction}
}

func (p *JointPlant) Model() *robot.Model { return p.model }
func (p *JointPlant) StateDim() int       { return 2 * p.model.NbJoints() }
func (p *JointPlant) ControlDim() int     { return p.model.NbJoints() }

func (p *JointPlant) Derive(x sim.State, u sim.Control, t float64) sim.State {
	n := p.model.NbJoints()
	dx := make(sim.State, 2*n)
	for i := 0; i < n; i++ {
		dx[i] = x[n+i]
		dx[n+i] = u[i] - p.friction*x[n+i]
	}
	return dx
}

// Energy is the kinetic energy of the joints.
func (p *JointPlant) Energy(x sim.State) float64 {
	n := p.model.NbJoints()
	e := 0.0
	for _, v := range x[n:] {
		e += 0.5 * v * v
	}
	return e
}

// JointState unpacks a flat state into the positions and velocities of the
// model joints.
func JointState(model *robot.Model, x sim.State) (state.JointState, error) {
	n := model.NbJoints()
	if len(x) != 2*n {
		return state.JointState{}, fmt.Errorf("%w: state has %d entries for %d joints",
			sim.ErrDimensionMismatch, len(x), n)
	}
	js := state.ZeroJointState(model.Name(), model.JointNames())
	if err := js.SetPositions(x[:n]); err != nil {
		return state.JointState{}, err
	}
	if err := js.SetVelocities(x[n:]); err != nil {
		return state.JointState{}, err
	}
	return js, nil
}

// InitialState packs joint positions at rest into a flat state.
func InitialState(q state.JointPositions) sim.State {
	x := make(sim.State, 2*q.Size())
	copy(x, q.Data())
	return x
}
