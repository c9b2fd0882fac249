package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "planar2", cfg.Robot.Name)
	assert.Equal(t, ModeJoint, cfg.Mode)
	assert.Positive(t, cfg.Dt)
	assert.Positive(t, cfg.Duration)
	assert.NoError(t, cfg.Validate())
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("planar2", "task")
	require.NotNil(t, cfg)
	assert.Equal(t, ModeTask, cfg.Mode)
	assert.Equal(t, []float64{0.9, 1.1, 0}, cfg.Dynamics.TargetPosition)

	cfg.Dynamics.TargetPosition[0] = 42
	assert.Equal(t, 0.9, GetPreset("planar2", "task").Dynamics.TargetPosition[0])
}

func TestGetPreset_NotFound(t *testing.T) {
	assert.Nil(t, GetPreset("planar2", "nonexistent"))
	assert.Nil(t, GetPreset("nonexistent", "reach"))
}

func TestPresetsAreValid(t *testing.T) {
	for _, robot := range Robots() {
		for _, name := range ListPresets(robot) {
			t.Run(robot+"/"+name, func(t *testing.T) {
				assert.NoError(t, GetPreset(robot, name).Validate())
			})
		}
	}
}

func TestListPresets(t *testing.T) {
	assert.Equal(t, []string{"reach", "task"}, ListPresets("planar3"))
	assert.Nil(t, ListPresets("nonexistent"))
	assert.Equal(t, []string{"planar2", "planar3"}, Robots())
}

func TestValidateCollectsEveryError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt = 0
	cfg.Duration = -1
	cfg.Robot.LinkLengths = []float64{1, -1}
	cfg.InitialPositions = []float64{0}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
}

func TestValidateTaskMode(t *testing.T) {
	cfg := GetPreset("planar2", "task")
	cfg.Impedance.Space = "joint"
	cfg.Dynamics.Gains = []float64{1}
	assert.Len(t, multierr.Errors(cfg.Validate()), 2)

	cfg = DefaultConfig()
	cfg.Mode = "cylindrical"
	assert.ErrorContains(t, cfg.Validate(), "unknown mode")
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctrlib.yaml")
	cfg := GetPreset("planar3", "task")
	cfg.Seed = 7
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
