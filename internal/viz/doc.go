// Package viz provides terminal visualization of closed-loop runs.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Live]: steps an experiment in real time and draws the arm
//   - [Canvas] and [Viewport]: braille canvas addressed in meters
//   - [RunInteractive]: preset picker launching the live view
//
// Themes are lipgloss color schemes, see [Themes].
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	[ ]   - Replay history backward and forward
//	Up/Dn - Scale the damping eigenvalues
//	+ -   - Change the simulation speed
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
