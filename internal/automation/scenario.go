// Package automation runs scripted sequences of experiments described in YAML.
package automation

import (
	"context"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ctrlib/internal/config"
	"github.com/san-kum/ctrlib/internal/experiment"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one experiment of a scenario. It starts from a preset and overrides
// the fields that are set.
type Step struct {
	Name             string    `yaml:"name"`
	Robot            string    `yaml:"robot"`
	Preset           string    `yaml:"preset"`
	Mode             string    `yaml:"mode"`
	Integrator       string    `yaml:"integrator"`
	Controller       string    `yaml:"controller"`
	Space            string    `yaml:"space"`
	Duration         float64   `yaml:"duration"`
	Dt               float64   `yaml:"dt"`
	Seed             int64     `yaml:"seed"`
	InitialPositions []float64 `yaml:"initial_positions"`
	Eigenvalues      []float64 `yaml:"eigenvalues"`
	Save             bool      `yaml:"save"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	Name   string
	RunID  string
	Result *sim.Result
	// Stable reports whether the final state stayed finite and bounded.
	Stable bool
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("automation: scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Config resolves the configuration of the step.
func (s Step) Config() (*config.Config, error) {
	robot, preset := s.Robot, s.Preset
	if robot == "" {
		robot = "planar2"
	}
	if preset == "" {
		preset = "reach"
	}
	cfg := config.GetPreset(robot, preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s/%s", robot, preset)
	}
	if s.Mode != "" {
		cfg.Mode = s.Mode
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Controller != "" {
		cfg.Controller = s.Controller
	}
	if s.Space != "" {
		cfg.Impedance.Space = s.Space
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.InitialPositions != nil {
		cfg.InitialPositions = s.InitialPositions
	}
	if s.Eigenvalues != nil {
		cfg.Impedance.Eigenvalues = s.Eigenvalues
	}
	return cfg, nil
}

// RunScenario executes all steps in order and stops at the first failure.
// Steps marked for saving are stored in st when it is not nil.
func RunScenario(ctx context.Context, scenario *Scenario, reg *experiment.Registry, st *storage.Store, log *zap.SugaredLogger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		log.Infow("running step", "scenario", scenario.Name, "step", name, "index", i+1, "of", len(scenario.Steps))

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := experiment.New(reg, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		out := StepResult{Name: name, Result: result, Stable: bounded(result.Final())}
		if step.Save && st != nil {
			out.RunID, err = st.Save(storage.MetadataFor(cfg, exp.Model().JointNames(), result), cfg, result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, out)
	}

	return results, nil
}

func bounded(x sim.State) bool {
	if !x.IsValid() {
		return false
	}
	for _, v := range x {
		if math.Abs(v) > 1e6 {
			return false
		}
	}
	return true
}
