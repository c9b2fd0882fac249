// Package sim runs closed-loop simulations of a controlled system.
//
// The package defines the interfaces the harness is assembled from:
//
//   - [State]: flat state vector of the simulated plant
//   - [System]: plant dynamics dX/dt = f(X, u, t)
//   - [Integrator]: numerical integration step
//   - [Controller]: feedback law computing the control from the state
//   - [Metric], [Observer]: per-step instrumentation
//   - [Simulator]: orchestrates a run
//
// # Example
//
//	plant := control.NewJointPlant(model, 0.1)
//	ctrl, _ := control.NewJointImpedance(model, attractor, gain, eigenvalues)
//	s := sim.New(plant, integrators.NewRK4(), ctrl)
//	result, err := s.Run(ctx, x0, sim.DefaultConfig())
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe and controllers usually keep state
// between steps. Use [Ensemble], which builds one simulator per run, to run
// simulations in parallel.
package sim
