package analysis

import (
	"fmt"

	"go.uber.org/multierr"
)

// SweepPoint is the value a measure took for one parameter value.
type SweepPoint struct {
	Param float64
	Value float64
	Err   error
}

// Sweep evaluates eval on steps evenly spaced values of [lo, hi]. Failed
// evaluations keep their error in the point and are combined in the returned
// error, the other points are still reported.
func Sweep(lo, hi float64, steps int, eval func(param float64) (float64, error)) ([]SweepPoint, error) {
	if steps < 1 {
		return nil, fmt.Errorf("analysis: sweep needs at least one step, got %d", steps)
	}
	step := 0.0
	if steps > 1 {
		step = (hi - lo) / float64(steps-1)
	}

	points := make([]SweepPoint, steps)
	var errs error
	for i := range points {
		p := lo + float64(i)*step
		v, err := eval(p)
		points[i] = SweepPoint{Param: p, Value: v, Err: err}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("param %g: %w", p, err))
		}
	}
	return points, errs
}
