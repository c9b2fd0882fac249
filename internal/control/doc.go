// Package control closes the loop between a robot model and the state-space
// controllers.
//
// [JointPlant] simulates the robot as a unit-inertia double integrator with
// viscous friction. Its flat state is the joint positions followed by the
// joint velocities, and its control is one torque per joint.
//
// Controllers implement [sim.Controller]:
//
//   - [JointImpedance]: joint linear dynamical system tracked by a joint
//     dissipative controller
//   - [TaskImpedance]: end-effector linear dynamical system tracked by a
//     Cartesian dissipative controller through the Jacobian transpose
//   - [PID]: per-joint PID baseline
//   - [None]: zero torques
//
// # Usage
//
//	plant := control.NewJointPlant(model, 0.1)
//	ctrl, _ := control.NewJointImpedance(model, attractor, 2, eigenvalues)
//	s := sim.New(plant, integrators.NewRK4(), ctrl)
//
// Controllers keep state between steps and are not safe for concurrent use.
package control
