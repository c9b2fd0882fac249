// Package dynsys provides dynamical systems that map a current state to a
// desired velocity.
//
// [Linear] drives a state toward an attractor with a proportional field:
//
//	velocity = gain * (attractor - state)
//
// It is generic over the state space. [JointLinear] works on joint positions
// and returns joint velocities, [CartesianLinear] works on poses and returns
// twists. Any type implementing [Attractor] can be plugged in.
//
// # Thread Safety
//
// A Linear owns its attractor and gain. It is NOT safe for concurrent
// mutation; copies made with [Linear.Copy] are independent.
package dynsys
