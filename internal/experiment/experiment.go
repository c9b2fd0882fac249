package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/ctrlib/internal/config"
	"github.com/san-kum/ctrlib/internal/control"
	"github.com/san-kum/ctrlib/internal/robot"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/state"
)

// Target is what a run drives the robot toward: joint positions in joint
// mode, an end-effector pose in task mode.
type Target struct {
	Joint state.JointPositions
	Pose  state.CartesianPose
}

// IsTask reports whether the target is an end-effector pose.
func (t Target) IsTask() bool { return t.Pose.Type() == state.CartesianPoseType }

// Experiment is one configured closed loop ready to run.
type Experiment struct {
	cfg       *config.Config
	model     *robot.Model
	plant     *control.JointPlant
	target    Target
	integ     sim.Integrator
	ctrl      sim.Controller
	simulator *sim.Simulator
	x0        sim.State
}

// BuildModel creates the planar robot described by cfg. Missing joint names
// default to joint0, joint1 and so on.
func BuildModel(cfg *config.Config) (*robot.Model, error) {
	joints := cfg.Robot.Joints
	if len(joints) == 0 {
		joints = state.JointNames(cfg.NbJoints())
	}
	return robot.NewPlanar(cfg.Robot.Name, joints, cfg.Robot.LinkLengths, cfg.Robot.BaseFrame, cfg.Robot.EndEffector)
}

// ResolveTarget reads the attractor of cfg for model.
func ResolveTarget(model *robot.Model, cfg *config.Config) (Target, error) {
	if cfg.Mode == config.ModeTask {
		p := cfg.Dynamics.TargetPosition
		if len(p) != 3 {
			return Target{}, fmt.Errorf("experiment: target position needs 3 values, got %d", len(p))
		}
		yaw := cfg.Dynamics.TargetYaw
		orientation := quat.Number{Real: math.Cos(yaw / 2), Kmag: math.Sin(yaw / 2)}
		pose, err := state.CartesianPoseFrom(model.EndEffector(), r3.Vector{X: p[0], Y: p[1], Z: p[2]}, orientation, model.BaseFrame())
		if err != nil {
			return Target{}, err
		}
		return Target{Pose: pose}, nil
	}
	q, err := state.JointPositionsFrom(model.Name(), model.JointNames(), cfg.Dynamics.Attractor)
	if err != nil {
		return Target{}, err
	}
	return Target{Joint: q}, nil
}

// New validates cfg and wires the robot, its plant, the controller and the
// default metrics.
func New(reg *Registry, cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	model, err := BuildModel(cfg)
	if err != nil {
		return nil, err
	}
	target, err := ResolveTarget(model, cfg)
	if err != nil {
		return nil, err
	}
	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	ctrl, err := reg.GetController(cfg.Controller, model, cfg, target)
	if err != nil {
		return nil, err
	}
	q0, err := state.JointPositionsFrom(model.Name(), model.JointNames(), cfg.InitialPositions)
	if err != nil {
		return nil, err
	}

	plant := control.NewJointPlant(model, cfg.Friction)
	simulator := sim.New(plant, integ, ctrl)
	for _, m := range reg.DefaultMetrics(plant, target) {
		simulator.AddMetric(m)
	}
	return &Experiment{
		cfg:       cfg,
		model:     model,
		plant:     plant,
		target:    target,
		integ:     integ,
		ctrl:      ctrl,
		simulator: simulator,
		x0:        control.InitialState(q0),
	}, nil
}

func (e *Experiment) Config() *config.Config     { return e.cfg }
func (e *Experiment) Model() *robot.Model        { return e.model }
func (e *Experiment) Plant() *control.JointPlant { return e.plant }
func (e *Experiment) Target() Target             { return e.target }
func (e *Experiment) InitialState() sim.State    { return e.x0.Clone() }
func (e *Experiment) Integrator() sim.Integrator { return e.integ }
func (e *Experiment) Controller() sim.Controller { return e.ctrl }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator { return e.simulator }

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.cfg.Duration,
		Seed:          e.cfg.Seed,
		ValidateState: true,
	}
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	return e.simulator.Run(ctx, e.x0.Clone(), e.SimConfig())
}

// Perturb adds Gaussian noise of standard deviation cfg.Perturbation to the
// initial joint positions. The same seed always yields the same state.
func (e *Experiment) Perturb(seed int64) {
	if e.cfg.Perturbation <= 0 {
		return
	}
	noise := distuv.Normal{Mu: 0, Sigma: e.cfg.Perturbation, Src: rand.NewPCG(uint64(seed), 0x5eed)}
	for i := 0; i < e.model.NbJoints(); i++ {
		e.x0[i] += noise.Rand()
	}
}

// Factory returns an ensemble factory building a fresh experiment of cfg per
// run, perturbed by the run seed.
func Factory(reg *Registry, cfg *config.Config) sim.Factory {
	return func(run int, seed int64) (*sim.Simulator, sim.State, error) {
		e, err := New(reg, cfg.Clone())
		if err != nil {
			return nil, nil, err
		}
		e.Perturb(seed)
		return e.simulator, e.InitialState(), nil
	}
}
