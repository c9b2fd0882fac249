package metrics

import (
	"github.com/san-kum/ctrlib/internal/robot"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/state"
)

// JointTracking is the distance between the observed joint positions and a
// target, as last observed. The positions are the leading entries of the
// state.
type JointTracking struct {
	target state.JointPositions
	last   float64
}

func NewJointTracking(target state.JointPositions) *JointTracking {
	return &JointTracking{target: target.Copy()}
}

func (j *JointTracking) Name() string { return "joint_tracking_error" }

func (j *JointTracking) Observe(x sim.State, u sim.Control, t float64) {
	n := j.target.Size()
	if len(x) < n {
		return
	}
	q, err := state.JointPositionsFrom(j.target.Name(), j.target.Names(), x[:n])
	if err != nil {
		return
	}
	if d, err := j.target.Dist(q); err == nil {
		j.last = d
	}
}

func (j *JointTracking) Value() float64 { return j.last }
func (j *JointTracking) Reset()         { j.last = 0 }

// TaskTracking is the distance between the end-effector pose and a target
// pose, as last observed.
type TaskTracking struct {
	model  *robot.Model
	target state.CartesianPose
	last   float64
}

func NewTaskTracking(model *robot.Model, target state.CartesianPose) *TaskTracking {
	return &TaskTracking{model: model, target: target.Copy()}
}

func (k *TaskTracking) Name() string { return "task_tracking_error" }

func (k *TaskTracking) Observe(x sim.State, u sim.Control, t float64) {
	n := k.model.NbJoints()
	if len(x) < n {
		return
	}
	q, err := state.JointPositionsFrom(k.model.Name(), k.model.JointNames(), x[:n])
	if err != nil {
		return
	}
	pose, err := k.model.ForwardGeometry(q, "")
	if err != nil {
		return
	}
	if d, err := k.target.Dist(pose); err == nil {
		k.last = d
	}
}

func (k *TaskTracking) Value() float64 { return k.last }
func (k *TaskTracking) Reset()         { k.last = 0 }
