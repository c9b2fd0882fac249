// Package state provides typed kinematic and dynamic state objects for robots.
//
// Two families of states are defined:
//
//   - Joint space: [JointState] holds positions, velocities, accelerations and
//     torques over an ordered list of joint names. [JointPositions],
//     [JointVelocities], [JointAccelerations] and [JointTorques] each hold a
//     single one of those vectors and only expose operations on it.
//   - Cartesian space: [CartesianState] holds the pose, twist, acceleration and
//     wrench of a frame expressed in a reference frame. [CartesianPose],
//     [CartesianTwist] and [CartesianWrench] are the single-quantity views.
//
// A [Jacobian] maps joint velocities to a Cartesian twist and back.
//
// Every binary operation checks compatibility first: joint states must share
// the same joint names, Cartesian states the same reference frame. Violations
// return [ErrIncompatibleStates] or [ErrIncompatibleSize]; operations on a
// state that carries no data return [ErrEmptyState].
//
// # Units
//
// Conversions between views that differ by a time derivative assume a unit
// time base:
//
//	v := state.VelocitiesFromPositions(p) // p / 1s
//	p := state.IntegrateVelocities(v, 10*time.Millisecond)
//
// # Thread Safety
//
// States are values. Copies never share numeric buffers, so independent
// copies can be used from different goroutines. A single state is NOT safe
// for concurrent mutation.
package state
