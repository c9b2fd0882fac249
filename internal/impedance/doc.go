// Package impedance provides the dissipative impedance controller.
//
// A [Dissipative] controller turns a velocity error into a force or torque:
//
//	command = D * (desired - feedback)
//
// The damping matrix D is rebuilt on every command so that its first
// eigenvector is aligned with the desired velocity. The
// [ComputationalSpace] selects which part of a twist the alignment uses:
//
//   - [Linear]: the linear velocity only
//   - [Angular]: the angular velocity only
//   - [DecoupledTwist]: linear and angular parts independently
//   - [Full]: the whole twist
//   - [Joint]: the joint velocity vector
//
// When the relevant velocity is under the velocity threshold the previous
// damping matrix is kept.
//
// # Thread Safety
//
// A Dissipative controller keeps its last damping matrix and is NOT safe for
// concurrent use. Use [Dissipative.Copy] to hand a controller to another
// goroutine.
package impedance
