package control

import (
	"github.com/san-kum/ctrlib/internal/dynsys"
	"github.com/san-kum/ctrlib/internal/impedance"
	"github.com/san-kum/ctrlib/internal/robot"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/state"
)

// TaskImpedance drives the end effector toward a target pose. The Cartesian
// linear system gives the desired twist, the dissipative controller turns the
// twist error into a wrench and the Jacobian transpose maps it to torques.
type TaskImpedance struct {
	model *robot.Model
	ds    *dynsys.CartesianLinear
	ctrl  *impedance.Dissipative
	// MaxLinear and MaxAngular bound the desired twist when positive.
	MaxLinear  float64
	MaxAngular float64
	// JointDamping adds -JointDamping*dq to damp the motions the task does
	// not see.
	JointDamping float64
}

// NewTaskImpedance builds the controller. The target is renamed after the
// end effector of the model, whose Jacobian maps the command.
func NewTaskImpedance(model *robot.Model, target state.CartesianPose, space impedance.ComputationalSpace, gains []float64, eigenvalues []float64) (*TaskImpedance, error) {
	target.SetName(model.EndEffector())
	ds, err := dynsys.NewWithDiagonal[state.CartesianPose, state.CartesianTwist](target, gains)
	if err != nil {
		return nil, err
	}
	ctrl, err := impedance.NewCartesian(space)
	if err != nil {
		return nil, err
	}
	if err := ctrl.SetDampingEigenvalues(eigenvalues); err != nil {
		return nil, err
	}
	return &TaskImpedance{model: model, ds: ds, ctrl: ctrl}, nil
}

func (c *TaskImpedance) DynamicalSystem() *dynsys.CartesianLinear { return c.ds }
func (c *TaskImpedance) Impedance() *impedance.Dissipative        { return c.ctrl }

// Desired returns the end-effector twist requested at pose.
func (c *TaskImpedance) Desired(pose state.CartesianPose) (state.CartesianTwist, error) {
	desired, err := c.ds.ComputeDynamics(pose)
	if err != nil {
		return state.CartesianTwist{}, err
	}
	if c.MaxLinear > 0 || c.MaxAngular > 0 {
		maxLinear, maxAngular := c.MaxLinear, c.MaxAngular
		if maxLinear <= 0 {
			maxLinear = desired.Linear().Norm()
		}
		if maxAngular <= 0 {
			maxAngular = desired.Angular().Norm()
		}
		if err := desired.Clamp(maxLinear, maxAngular, 0, 0); err != nil {
			return state.CartesianTwist{}, err
		}
	}
	return desired, nil
}

func (c *TaskImpedance) Compute(x sim.State, t float64) (sim.Control, error) {
	js, err := JointState(c.model, x)
	if err != nil {
		return nil, err
	}
	feedback, err := c.model.ForwardKinematics(js, "")
	if err != nil {
		return nil, err
	}
	desired, err := c.Desired(feedback.Pose())
	if err != nil {
		return nil, err
	}
	jac, err := c.model.ComputeJacobian(js.Positions(), "")
	if err != nil {
		return nil, err
	}
	torques, err := c.ctrl.ComputeTaskToJointCommand(desired, feedback.Twist(), jac)
	if err != nil {
		return nil, err
	}
	u := sim.Control(torques.Data())
	for i, v := range js.GetVelocities() {
		u[i] -= c.JointDamping * v
	}
	return u, nil
}
