package control

import (
	"github.com/san-kum/ctrlib/internal/dynsys"
	"github.com/san-kum/ctrlib/internal/impedance"
	"github.com/san-kum/ctrlib/internal/robot"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/state"
)

// JointImpedance drives the joints toward an attractor. The linear system
// gives the desired joint velocities and the dissipative controller turns the
// velocity error into torques.
type JointImpedance struct {
	model *robot.Model
	ds    *dynsys.JointLinear
	ctrl  *impedance.Dissipative
	// MaxVelocity bounds each desired joint velocity when positive.
	MaxVelocity float64
}

func NewJointImpedance(model *robot.Model, attractor state.JointPositions, gains []float64, eigenvalues []float64) (*JointImpedance, error) {
	ds, err := dynsys.NewWithDiagonal[state.JointPositions, state.JointVelocities](attractor, gains)
	if err != nil {
		return nil, err
	}
	ctrl, err := impedance.NewJoint(model.NbJoints())
	if err != nil {
		return nil, err
	}
	if err := ctrl.SetDampingEigenvalues(eigenvalues); err != nil {
		return nil, err
	}
	return &JointImpedance{model: model, ds: ds, ctrl: ctrl}, nil
}

func (c *JointImpedance) DynamicalSystem() *dynsys.JointLinear { return c.ds }
func (c *JointImpedance) Impedance() *impedance.Dissipative    { return c.ctrl }

// Desired returns the joint velocities requested by the dynamical system.
func (c *JointImpedance) Desired(q state.JointPositions) (state.JointVelocities, error) {
	desired, err := c.ds.ComputeDynamics(q)
	if err != nil {
		return state.JointVelocities{}, err
	}
	if c.MaxVelocity > 0 {
		if err := desired.Clamp(c.MaxVelocity, 0); err != nil {
			return state.JointVelocities{}, err
		}
	}
	return desired, nil
}

func (c *JointImpedance) Compute(x sim.State, t float64) (sim.Control, error) {
	js, err := JointState(c.model, x)
	if err != nil {
		return nil, err
	}
	desired, err := c.Desired(js.Positions())
	if err != nil {
		return nil, err
	}
	torques, err := c.ctrl.ComputeJointCommand(desired, js.Velocities())
	if err != nil {
		return nil, err
	}
	return sim.Control(torques.Data()), nil
}
