package config

import (
	"fmt"
	"os"
	"slices"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt                = 0.01
	DefaultDuration          = 10.0
	DefaultFriction          = 0.1
	DefaultGain              = 2.0
	DefaultEigenvalue        = 4.0
	DefaultVelocityThreshold = 1e-6
	DefaultKp                = 10.0
	DefaultKi                = 0.1
	DefaultKd                = 5.0
)

// Modes select the space the attractor lives in.
const (
	ModeJoint = "joint"
	ModeTask  = "task"
)

type Config struct {
	Robot            RobotConfig     `yaml:"robot"`
	Mode             string          `yaml:"mode"`
	Controller       string          `yaml:"controller"`
	Integrator       string          `yaml:"integrator"`
	Dt               float64         `yaml:"dt"`
	Duration         float64         `yaml:"duration"`
	Seed             int64           `yaml:"seed"`
	Friction         float64         `yaml:"friction"`
	InitialPositions []float64       `yaml:"initial_positions"`
	// Perturbation is the standard deviation of the noise added to the
	// initial positions of every ensemble run.
	Perturbation     float64         `yaml:"perturbation"`
	Dynamics         DynamicsConfig  `yaml:"dynamics"`
	Impedance        ImpedanceConfig `yaml:"impedance"`
	PID              PIDConfig       `yaml:"pid"`
}

type RobotConfig struct {
	Name        string    `yaml:"name"`
	Joints      []string  `yaml:"joints"`
	LinkLengths []float64 `yaml:"link_lengths"`
	BaseFrame   string    `yaml:"base_frame"`
	EndEffector string    `yaml:"end_effector"`
}

// DynamicsConfig describes the attractor and gains of the linear dynamical
// system. Attractor holds joint positions in joint mode; TargetPosition and
// TargetYaw describe the end-effector pose in task mode.
type DynamicsConfig struct {
	Gains          []float64 `yaml:"gains"`
	Attractor      []float64 `yaml:"attractor"`
	TargetPosition []float64 `yaml:"target_position"`
	TargetYaw      float64   `yaml:"target_yaw"`
	MaxVelocity    float64   `yaml:"max_velocity"`
}

type ImpedanceConfig struct {
	Space             string    `yaml:"space"`
	Eigenvalues       []float64 `yaml:"eigenvalues"`
	VelocityThreshold float64   `yaml:"velocity_threshold"`
	JointDamping      float64   `yaml:"joint_damping"`
}

type PIDConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

func DefaultConfig() *Config {
	return &Config{
		Robot: RobotConfig{
			Name:        "planar2",
			Joints:      []string{"shoulder", "elbow"},
			LinkLengths: []float64{1.0, 1.0},
			EndEffector: "tool",
		},
		Mode:             ModeJoint,
		Controller:       "impedance",
		Integrator:       "rk4",
		Dt:               DefaultDt,
		Duration:         DefaultDuration,
		Friction:         DefaultFriction,
		InitialPositions: []float64{0, 0},
		Dynamics: DynamicsConfig{
			Gains:     []float64{DefaultGain, DefaultGain},
			Attractor: []float64{0.5, -0.3},
		},
		Impedance: ImpedanceConfig{
			Space:             "joint",
			Eigenvalues:       []float64{DefaultEigenvalue, DefaultEigenvalue},
			VelocityThreshold: DefaultVelocityThreshold,
		},
		PID: PIDConfig{
			Kp: DefaultKp,
			Ki: DefaultKi,
			Kd: DefaultKd,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a copy that shares no slices with c.
func (c *Config) Clone() *Config {
	out := *c
	out.Robot.Joints = slices.Clone(c.Robot.Joints)
	out.Robot.LinkLengths = slices.Clone(c.Robot.LinkLengths)
	out.InitialPositions = slices.Clone(c.InitialPositions)
	out.Dynamics.Gains = slices.Clone(c.Dynamics.Gains)
	out.Dynamics.Attractor = slices.Clone(c.Dynamics.Attractor)
	out.Dynamics.TargetPosition = slices.Clone(c.Dynamics.TargetPosition)
	out.Impedance.Eigenvalues = slices.Clone(c.Impedance.Eigenvalues)
	return &out
}

// NbJoints is the number of joints of the configured robot.
func (c *Config) NbJoints() int { return len(c.Robot.LinkLengths) }

// Validate reports every inconsistency of the configuration at once.
func (c *Config) Validate() error {
	var err error
	n := c.NbJoints()
	if n == 0 {
		err = multierr.Append(err, fmt.Errorf("robot: no links"))
	}
	if len(c.Robot.Joints) != 0 && len(c.Robot.Joints) != n {
		err = multierr.Append(err, fmt.Errorf("robot: %d joint names for %d links", len(c.Robot.Joints), n))
	}
	for i, l := range c.Robot.LinkLengths {
		if l <= 0 {
			err = multierr.Append(err, fmt.Errorf("robot: link %d has length %g", i+1, l))
		}
	}
	if c.Dt <= 0 {
		err = multierr.Append(err, fmt.Errorf("dt must be positive, got %g", c.Dt))
	}
	if c.Duration <= 0 {
		err = multierr.Append(err, fmt.Errorf("duration must be positive, got %g", c.Duration))
	}
	if c.Friction < 0 {
		err = multierr.Append(err, fmt.Errorf("friction must not be negative, got %g", c.Friction))
	}
	if len(c.InitialPositions) != n {
		err = multierr.Append(err, fmt.Errorf("initial_positions: %d values for %d joints", len(c.InitialPositions), n))
	}
	if c.Perturbation < 0 {
		err = multierr.Append(err, fmt.Errorf("perturbation must not be negative, got %g", c.Perturbation))
	}
	if c.Impedance.VelocityThreshold < 0 {
		err = multierr.Append(err, fmt.Errorf("impedance: negative velocity threshold %g", c.Impedance.VelocityThreshold))
	}

	switch c.Mode {
	case ModeJoint:
		err = multierr.Append(err, expectLen("dynamics.gains", c.Dynamics.Gains, n))
		err = multierr.Append(err, expectLen("dynamics.attractor", c.Dynamics.Attractor, n))
		if c.Controller == "impedance" {
			err = multierr.Append(err, expectLen("impedance.eigenvalues", c.Impedance.Eigenvalues, n))
		}
	case ModeTask:
		err = multierr.Append(err, expectLen("dynamics.gains", c.Dynamics.Gains, 6))
		err = multierr.Append(err, expectLen("dynamics.target_position", c.Dynamics.TargetPosition, 3))
		err = multierr.Append(err, expectLen("impedance.eigenvalues", c.Impedance.Eigenvalues, 6))
		if c.Impedance.Space == "joint" {
			err = multierr.Append(err, fmt.Errorf("impedance: task mode needs a Cartesian space"))
		}
		if c.Controller != "impedance" {
			err = multierr.Append(err, fmt.Errorf("controller %q has no task mode", c.Controller))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown mode %q", c.Mode))
	}
	return err
}

func expectLen(field string, values []float64, n int) error {
	if len(values) != n {
		return fmt.Errorf("%s: %d values, expected %d", field, len(values), n)
	}
	return nil
}
