package experiment

import (
	"fmt"
	"slices"

	"github.com/san-kum/ctrlib/internal/config"
	"github.com/san-kum/ctrlib/internal/control"
	"github.com/san-kum/ctrlib/internal/impedance"
	"github.com/san-kum/ctrlib/internal/integrators"
	"github.com/san-kum/ctrlib/internal/metrics"
	"github.com/san-kum/ctrlib/internal/robot"
	"github.com/san-kum/ctrlib/internal/sim"
)

// ControllerFactory builds a controller of model from a configuration whose
// targets have already been resolved.
type ControllerFactory func(model *robot.Model, cfg *config.Config, target Target) (sim.Controller, error)

type Registry struct {
	integrators map[string]func() sim.Integrator
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() sim.Integrator),
		controllers: make(map[string]ControllerFactory),
	}

	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() sim.Integrator { return integrators.NewRK4() }
	r.integrators["verlet"] = func() sim.Integrator { return integrators.NewVerlet() }

	r.controllers["none"] = func(model *robot.Model, cfg *config.Config, target Target) (sim.Controller, error) {
		return control.NewNone(model.NbJoints()), nil
	}
	r.controllers["pid"] = func(model *robot.Model, cfg *config.Config, target Target) (sim.Controller, error) {
		if cfg.Mode != config.ModeJoint {
			return nil, fmt.Errorf("pid: %s mode is not supported", cfg.Mode)
		}
		return control.NewPID(model, cfg.PID.Kp, cfg.PID.Ki, cfg.PID.Kd, target.Joint), nil
	}
	r.controllers["impedance"] = newImpedance

	return r
}

func newImpedance(model *robot.Model, cfg *config.Config, target Target) (sim.Controller, error) {
	if cfg.Mode == config.ModeJoint {
		ctrl, err := control.NewJointImpedance(model, target.Joint, cfg.Dynamics.Gains, cfg.Impedance.Eigenvalues)
		if err != nil {
			return nil, err
		}
		ctrl.MaxVelocity = cfg.Dynamics.MaxVelocity
		if err := ctrl.Impedance().SetVelocityThreshold(cfg.Impedance.VelocityThreshold); err != nil {
			return nil, err
		}
		return ctrl, nil
	}

	space, err := impedance.ParseComputationalSpace(cfg.Impedance.Space)
	if err != nil {
		return nil, err
	}
	ctrl, err := control.NewTaskImpedance(model, target.Pose, space, cfg.Dynamics.Gains, cfg.Impedance.Eigenvalues)
	if err != nil {
		return nil, err
	}
	ctrl.MaxLinear = cfg.Dynamics.MaxVelocity
	ctrl.JointDamping = cfg.Impedance.JointDamping
	if err := ctrl.Impedance().SetVelocityThreshold(cfg.Impedance.VelocityThreshold); err != nil {
		return nil, err
	}
	return ctrl, nil
}

// RegisterController adds or replaces the controller built under name.
func (r *Registry) RegisterController(name string, factory ControllerFactory) {
	r.controllers[name] = factory
}

func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, model *robot.Model, cfg *config.Config, target Target) (sim.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(model, cfg, target)
}

func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListControllers() []string { return sortedKeys(r.controllers) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultMetrics returns the metrics recorded on every run: control effort,
// stability, peak kinetic energy and the tracking error of the target.
func (r *Registry) DefaultMetrics(plant *control.JointPlant, target Target) []sim.Metric {
	ms := []sim.Metric{
		metrics.NewControlEffort(),
		metrics.NewStability(10.0),
		metrics.NewPeakEnergy(plant),
	}
	if target.IsTask() {
		ms = append(ms, metrics.NewTaskTracking(plant.Model(), target.Pose))
	} else {
		ms = append(ms, metrics.NewJointTracking(target.Joint))
	}
	return ms
}
