// Package metrics provides [sim.Metric] implementations summarizing a
// closed-loop run: control effort, tracking error, peak energy and
// stability.
package metrics
