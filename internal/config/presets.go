package config

import "slices"

func planar2() *Config { return DefaultConfig() }

func planar3() *Config {
	cfg := DefaultConfig()
	cfg.Robot = RobotConfig{
		Name:        "planar3",
		Joints:      []string{"shoulder", "elbow", "wrist"},
		LinkLengths: []float64{0.7, 0.5, 0.3},
		EndEffector: "tool",
	}
	cfg.InitialPositions = []float64{0, 0.5, 0.5}
	cfg.Dynamics.Gains = []float64{DefaultGain, DefaultGain, DefaultGain}
	cfg.Dynamics.Attractor = []float64{0.8, -0.4, 0.6}
	cfg.Impedance.Eigenvalues = []float64{DefaultEigenvalue, DefaultEigenvalue, DefaultEigenvalue}
	return cfg
}

func taskMode(cfg *Config, target []float64, yaw float64, space string) *Config {
	cfg.Mode = ModeTask
	cfg.Dynamics.Gains = []float64{3, 3, 3, 1, 1, 1}
	cfg.Dynamics.TargetPosition = target
	cfg.Dynamics.TargetYaw = yaw
	cfg.Dynamics.MaxVelocity = 1
	cfg.Impedance.Space = space
	cfg.Impedance.Eigenvalues = []float64{6, 6, 6, 1, 1, 1}
	cfg.Impedance.JointDamping = 0.5
	return cfg
}

func with(cfg *Config, fn func(*Config)) *Config {
	fn(cfg)
	return cfg
}

var Presets = map[string]map[string]*Config{
	"planar2": {
		"reach": planar2(),
		"fold": with(planar2(), func(c *Config) {
			c.Dynamics.Attractor = []float64{1.2, 2.4}
			c.Dynamics.MaxVelocity = 1.5
		}),
		"task": with(planar2(), func(c *Config) {
			c.InitialPositions = []float64{0.3, 1.2}
			taskMode(c, []float64{0.9, 1.1, 0}, 0, "linear")
		}),
		"pid": with(planar2(), func(c *Config) {
			c.Controller = "pid"
		}),
		"coast": with(planar2(), func(c *Config) {
			c.Controller = "none"
			c.InitialPositions = []float64{0.5, 0}
		}),
	},
	"planar3": {
		"reach": planar3(),
		"task": with(planar3(), func(c *Config) {
			c.Duration = 15
			taskMode(c, []float64{0.6, 0.8, 0}, 1.2, "decoupled_twist")
			c.Dynamics.Gains = []float64{3, 3, 0, 0, 0, 2}
			c.Impedance.Eigenvalues = []float64{6, 6, 6, 2, 2, 2}
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(robot, preset string) *Config {
	robotPresets, ok := Presets[robot]
	if !ok {
		return nil
	}
	cfg, ok := robotPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the sorted preset names of a robot.
func ListPresets(robot string) []string {
	robotPresets, ok := Presets[robot]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(robotPresets))
	for name := range robotPresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Robots returns the sorted robot names that have presets.
func Robots() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
