package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ctrlib/internal/config"
	"github.com/san-kum/ctrlib/internal/robot"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/state"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, []string{"euler", "rk4", "verlet"}, reg.ListIntegrators())
	assert.Equal(t, []string{"impedance", "none", "pid"}, reg.ListControllers())

	_, err := reg.GetIntegrator("rk45")
	assert.ErrorContains(t, err, "unknown integrator")

	cfg := config.DefaultConfig()
	model, err := BuildModel(cfg)
	require.NoError(t, err)
	_, err = reg.GetController("lqr", model, cfg, Target{})
	assert.ErrorContains(t, err, "unknown controller")

	called := false
	reg.RegisterController("custom", func(m *robot.Model, c *config.Config, target Target) (sim.Controller, error) {
		called = true
		return nil, nil
	})
	_, err = reg.GetController("custom", model, cfg, Target{})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestBuildModel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Robot.Joints = nil

	model, err := BuildModel(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"joint0", "joint1"}, model.JointNames())
	assert.Equal(t, "tool", model.EndEffector())
	assert.Equal(t, state.WorldFrame, model.BaseFrame())
}

func TestResolveTarget(t *testing.T) {
	cfg := config.GetPreset("planar2", "task")
	model, err := BuildModel(cfg)
	require.NoError(t, err)

	target, err := ResolveTarget(model, cfg)
	require.NoError(t, err)
	assert.True(t, target.IsTask())
	assert.Equal(t, "tool", target.Pose.Name())
	assert.Equal(t, 0.9, target.Pose.Position().X)
	assert.Equal(t, 1.1, target.Pose.Position().Y)

	cfg = config.DefaultConfig()
	target, err = ResolveTarget(model, cfg)
	require.NoError(t, err)
	assert.False(t, target.IsTask())
	assert.Equal(t, []float64{0.5, -0.3}, target.Joint.Data())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dt = 0
	cfg.Integrator = "rk45"

	_, err := New(NewRegistry(), cfg)
	assert.ErrorContains(t, err, "dt must be positive")

	cfg = config.DefaultConfig()
	cfg.Integrator = "rk45"
	_, err = New(NewRegistry(), cfg)
	assert.ErrorContains(t, err, "unknown integrator")
}

func TestJointExperiment(t *testing.T) {
	e, err := New(NewRegistry(), config.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, sim.State{0, 0, 0, 0}, e.InitialState())

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1000, result.StepsTaken)

	final := result.Final()
	assert.InDelta(t, 0.5, final[0], 1e-3)
	assert.InDelta(t, -0.3, final[1], 1e-3)
	assert.Contains(t, result.Metrics, "control_effort")
	assert.Contains(t, result.Metrics, "peak_energy")
	assert.Less(t, result.Metrics["joint_tracking_error"], 1e-3)
}

func TestTaskExperiment(t *testing.T) {
	e, err := New(NewRegistry(), config.GetPreset("planar2", "task"))
	require.NoError(t, err)

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Metrics, "task_tracking_error")

	q, err := state.JointPositionsFrom(e.Model().Name(), e.Model().JointNames(), result.Final()[:2])
	require.NoError(t, err)
	reached, err := e.Model().ForwardGeometry(q, "")
	require.NoError(t, err)
	assert.Less(t, reached.Position().Sub(e.Target().Pose.Position()).Norm(), 1e-2)
}

func TestPIDRejectsTaskMode(t *testing.T) {
	cfg := config.GetPreset("planar2", "task")
	model, err := BuildModel(cfg)
	require.NoError(t, err)
	_, err = NewRegistry().GetController("pid", model, cfg, Target{})
	assert.ErrorContains(t, err, "not supported")
}

func TestFactory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Perturbation = 0.05
	cfg.Duration = 1
	factory := Factory(NewRegistry(), cfg)

	_, a, err := factory(0, 7)
	require.NoError(t, err)
	_, b, err := factory(1, 7)
	require.NoError(t, err)
	_, c, err := factory(2, 8)
	require.NoError(t, err)
	assert.Equal(t, b, a)
	assert.NotEqual(t, c, a)
	assert.Equal(t, sim.State{0, 0}, a[2:])

	simCfg := sim.DefaultConfig()
	simCfg.Duration = cfg.Duration
	results, err := sim.NewEnsemble(factory, 3, 1).Run(context.Background(), simCfg)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, 100, r.StepsTaken)
	}
	assert.NotEqual(t, results[1].States[0], results[0].States[0])
}
