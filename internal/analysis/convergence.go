package analysis

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/ctrlib/internal/sim"
)

// DecayRate fits |v(t)| ~ exp(rate*t) by least squares on the log of the
// samples. A negative rate means the series converges to zero. Samples equal
// to zero carry no information and are skipped.
func DecayRate(times, values []float64) (float64, error) {
	if len(times) != len(values) {
		return 0, fmt.Errorf("analysis: %d times for %d values", len(times), len(values))
	}
	xs := make([]float64, 0, len(values))
	ys := make([]float64, 0, len(values))
	for i, v := range values {
		a := math.Abs(v)
		if a == 0 || math.IsNaN(a) || math.IsInf(a, 0) {
			continue
		}
		xs = append(xs, times[i])
		ys = append(ys, math.Log(a))
	}
	if len(xs) < 2 {
		return 0, ErrTooShort
	}
	_, rate := stat.LinearRegression(xs, ys, nil, false)
	return rate, nil
}

// SettlingTime returns the first time after which |v| stays within tol. The
// boolean is false when the series never settles.
func SettlingTime(times, values []float64, tol float64) (float64, bool) {
	n := min(len(times), len(values))
	settled := -1
	for i := n - 1; i >= 0; i-- {
		if math.Abs(values[i]) > tol {
			break
		}
		settled = i
	}
	if settled < 0 {
		return 0, false
	}
	return times[settled], true
}

// LyapunovExponent estimates the exponential rate at which two closed-loop
// trajectories started perturbation apart on the first state component
// separate. build is called once per trajectory so that stateful controllers
// do not share memory. A stable closed loop yields a negative exponent.
func LyapunovExponent(ctx context.Context, build func() (*sim.Simulator, error), x0 sim.State, cfg sim.Config, perturbation float64) (float64, error) {
	if len(x0) == 0 || perturbation == 0 {
		return 0, fmt.Errorf("analysis: need a non-empty state and a non-zero perturbation")
	}
	nominal, err := runFrom(ctx, build, x0, cfg)
	if err != nil {
		return 0, err
	}
	x0p := x0.Clone()
	x0p[0] += perturbation
	perturbed, err := runFrom(ctx, build, x0p, cfg)
	if err != nil {
		return 0, err
	}

	n := min(len(nominal.States), len(perturbed.States))
	separation := make([]float64, n)
	for i := 0; i < n; i++ {
		separation[i] = perturbed.States[i].Sub(nominal.States[i]).Norm()
	}
	return DecayRate(nominal.Times[:n], separation)
}

func runFrom(ctx context.Context, build func() (*sim.Simulator, error), x0 sim.State, cfg sim.Config) (*sim.Result, error) {
	s, err := build()
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, x0, cfg)
}
