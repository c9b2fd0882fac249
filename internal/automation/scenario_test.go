package automation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/san-kum/ctrlib/internal/experiment"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/storage"
)

const scenarioYAML = `
name: tour
description: reach then coast
steps:
  - name: reach
    robot: planar2
    duration: 2
    save: true
  - robot: planar2
    preset: coast
    integrator: verlet
    duration: 1
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "tour", s.Name)
	require.Len(t, s.Steps, 2)
	assert.True(t, s.Steps[0].Save)
	assert.Equal(t, "coast", s.Steps[1].Preset)

	_, err = ParseScenario([]byte("name: empty\n"))
	assert.Error(t, err)
}

func TestStepConfig(t *testing.T) {
	cfg, err := Step{Controller: "pid", Dt: 0.005, InitialPositions: []float64{0.2, 0.1}}.Config()
	require.NoError(t, err)
	assert.Equal(t, "planar2", cfg.Robot.Name)
	assert.Equal(t, "pid", cfg.Controller)
	assert.Equal(t, 0.005, cfg.Dt)
	assert.Equal(t, []float64{0.2, 0.1}, cfg.InitialPositions)

	_, err = Step{Robot: "planar2", Preset: "missing"}.Config()
	assert.ErrorContains(t, err, "unknown preset")
}

func TestRunScenario(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	st := storage.New(t.TempDir())
	require.NoError(t, st.Init())
	results, err := RunScenario(context.Background(), s, experiment.NewRegistry(), st, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "reach", results[0].Name)
	assert.NotEmpty(t, results[0].RunID)
	assert.True(t, results[0].Stable)
	assert.Equal(t, "step2", results[1].Name)
	assert.Empty(t, results[1].RunID)

	runs, err := st.List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, results[0].RunID, runs[0].ID)
}

func TestRunScenarioStopsAtFailure(t *testing.T) {
	s := &Scenario{Name: "bad", Steps: []Step{{Duration: 0.5}, {Integrator: "missing"}, {}}}
	results, err := RunScenario(context.Background(), s, experiment.NewRegistry(), nil, zap.NewNop().Sugar())
	assert.ErrorContains(t, err, "step 2 setup")
	assert.Len(t, results, 1)
}

func TestBounded(t *testing.T) {
	assert.True(t, bounded(sim.State{1, -2}))
	assert.False(t, bounded(sim.State{1e7}))
}
