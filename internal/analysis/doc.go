// Package analysis characterizes closed-loop trajectories.
//
// The package includes:
//
//   - [PowerSpectrum] and [DominantFrequency]: spectral content of a signal
//   - [DecayRate] and [SettlingTime]: convergence of an error signal
//   - [LyapunovExponent]: separation rate of two nearby closed-loop runs
//   - [Sweep]: a measure evaluated over a range of one parameter
//   - [PhasePortrait]: position against velocity of one joint
//
// # Convergence
//
// A dissipative controller tracking a stable attractor yields a negative
// decay rate for the tracking error:
//
//	rate, err := analysis.DecayRate(traj.Times, errors)
//	if err == nil && rate < 0 {
//	    // error decays like exp(rate*t)
//	}
package analysis
