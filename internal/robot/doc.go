// Package robot provides a kinematic robot model that produces the states
// consumed by the controllers: end-effector poses, twists and Jacobians.
//
// The model is a planar serial chain of revolute joints rotating about the z
// axis of the base frame. Every link ends in a named frame; the last one is
// the end effector.
//
//   - [Model.ForwardGeometry]: joint positions to the pose of a frame
//   - [Model.ForwardVelocity]: joint velocities to the twist of a frame
//   - [Model.ComputeJacobian]: the 6xN geometric Jacobian of a frame
//   - [Model.InverseGeometry]: damped least-squares joint solution of a pose
//
// # Thread Safety
//
// A Model is immutable after construction and safe for concurrent use.
package robot
