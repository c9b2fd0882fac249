package sim

import (
	"context"
	"fmt"
)

type Simulator struct {
	sys        System
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
}

func New(sys System, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates the closed loop from x0 for cfg.Duration. On failure the
// states recorded so far are returned along with the error.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	result := &Result{
		States:   make([]State, 0, steps+1),
		Controls: make([]Control, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		u, err := s.step(x, t)
		if err != nil {
			runErr = &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
			break
		}

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		newX := s.integrator.Step(s.sys, x, u, t, dt)
		if cfg.ValidateState && !newX.IsValid() {
			runErr = &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: ErrInvalidState}
			break
		}

		x = newX
		t += dt
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, t)
	}

	s.collect(result)
	return result, runErr
}

func (s *Simulator) step(x State, t float64) (Control, error) {
	u, err := s.controller.Compute(x, t)
	if err != nil {
		return nil, err
	}
	if len(u) != s.sys.ControlDim() {
		return nil, fmt.Errorf("%w: control has %d entries, system expects %d",
			ErrDimensionMismatch, len(u), s.sys.ControlDim())
	}
	return u, nil
}

func (s *Simulator) collect(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if len(x0) != s.sys.StateDim() {
		return fmt.Errorf("%w: initial state has %d entries, system expects %d",
			ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}
	if !x0.IsValid() {
		return ErrInvalidState
	}
	return nil
}

// RunWithCallback steps the closed loop until the duration elapses or the
// callback returns false. Nothing is recorded.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, callback func(State, Control, float64) bool) error {
	if err := s.validate(x0, cfg); err != nil {
		return err
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	for step := 0; t < cfg.Duration; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		u, err := s.step(x, t)
		if err != nil {
			return &SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: err}
		}

		if !callback(x, u, t) {
			return nil
		}

		x = s.integrator.Step(s.sys, x, u, t, dt)
		t += dt

		if cfg.ValidateState && !x.IsValid() {
			return &SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: ErrInvalidState}
		}
	}

	return nil
}
