package control

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ctrlib/internal/impedance"
	"github.com/san-kum/ctrlib/internal/integrators"
	"github.com/san-kum/ctrlib/internal/robot"
	"github.com/san-kum/ctrlib/internal/sim"
	"github.com/san-kum/ctrlib/internal/state"
)

func newArm(t *testing.T) *robot.Model {
	m, err := robot.NewPlanar("arm", []string{"shoulder", "elbow"}, []float64{1, 1}, "", "tool")
	require.NoError(t, err)
	return m
}

func positions(t *testing.T, m *robot.Model, q ...float64) state.JointPositions {
	p, err := state.JointPositionsFrom(m.Name(), m.JointNames(), q)
	require.NoError(t, err)
	return p
}

func TestJointPlant(t *testing.T) {
	plant := NewJointPlant(newArm(t), 0.5)

	assert.Equal(t, 4, plant.StateDim())
	assert.Equal(t, 2, plant.ControlDim())

	dx := plant.Derive(sim.State{1, 2, 3, 4}, sim.Control{1, -1}, 0)
	assert.Equal(t, sim.State{3, 4, -0.5, -3}, dx)
	assert.InDelta(t, 12.5, plant.Energy(sim.State{1, 2, 3, 4}), 1e-12)
}

func TestJointStateConversion(t *testing.T) {
	m := newArm(t)

	x := InitialState(positions(t, m, 0.1, 0.2))
	assert.Equal(t, sim.State{0.1, 0.2, 0, 0}, x)

	x[3] = 5
	js, err := JointState(m, x)
	require.NoError(t, err)
	assert.Equal(t, "arm", js.Name())
	assert.Equal(t, []string{"shoulder", "elbow"}, js.Names())
	assert.Equal(t, []float64{0.1, 0.2}, js.GetPositions())
	assert.Equal(t, []float64{0, 5}, js.GetVelocities())

	_, err = JointState(m, sim.State{1, 2, 3})
	assert.ErrorIs(t, err, sim.ErrDimensionMismatch)
}

func TestNone(t *testing.T) {
	u, err := NewNone(2).Compute(sim.State{1.0, 2.0, 3.0, 4.0}, 0.0)
	require.NoError(t, err)
	assert.Equal(t, sim.Control{0, 0}, u)

	_, err = NewNone(2).Compute(sim.State{1, 2}, 0)
	assert.ErrorIs(t, err, sim.ErrDimensionMismatch)
}

func TestPID(t *testing.T) {
	m := newArm(t)
	ctrl := NewPID(m, 10.0, 1.0, 5.0, positions(t, m, 0, 0))

	u, err := ctrl.Compute(sim.State{1.0, -1.0, 0, 0}, 0.0)
	require.NoError(t, err)
	assert.Less(t, u[0], 0.0)
	assert.Greater(t, u[1], 0.0)

	u, err = ctrl.Compute(sim.State{1, 0, 1, 0}, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, -15.1, u[0], 1e-12)

	ctrl.Reset()
	u, err = ctrl.Compute(sim.State{0, 0, 0, 0}, 0.2)
	require.NoError(t, err)
	assert.Equal(t, sim.Control{0, 0}, u)
}

func run(t *testing.T, m *robot.Model, ctrl sim.Controller, x0 sim.State) *sim.Result {
	s := sim.New(NewJointPlant(m, 0.1), integrators.NewRK4(), ctrl)
	cfg := sim.DefaultConfig()
	cfg.Duration = 10
	result, err := s.Run(context.Background(), x0, cfg)
	require.NoError(t, err)
	return result
}

func TestJointImpedanceConverges(t *testing.T) {
	m := newArm(t)
	attractor := positions(t, m, 0.5, -0.3)

	ctrl, err := NewJointImpedance(m, attractor, []float64{2, 2}, []float64{4, 4})
	require.NoError(t, err)
	ctrl.MaxVelocity = 1

	result := run(t, m, ctrl, InitialState(positions(t, m, 0, 0)))
	final := result.Final()
	assert.InDelta(t, 0.5, final[0], 1e-3)
	assert.InDelta(t, -0.3, final[1], 1e-3)
	assert.InDelta(t, 0, final[2], 1e-3)
	assert.Equal(t, []float64{4, 4}, ctrl.Impedance().DampingEigenvalues())
}

func TestJointImpedanceErrors(t *testing.T) {
	m := newArm(t)

	_, err := NewJointImpedance(m, state.NewJointPositionsWithNames("arm", m.JointNames()), []float64{1, 1}, []float64{1, 1})
	assert.ErrorIs(t, err, state.ErrEmptyState)

	_, err = NewJointImpedance(m, positions(t, m, 0, 0), []float64{1, 1}, []float64{1})
	assert.ErrorIs(t, err, state.ErrIncompatibleSize)

	ctrl, err := NewJointImpedance(m, positions(t, m, 0, 0), []float64{1, 1}, []float64{1, 1})
	require.NoError(t, err)
	_, err = ctrl.Compute(sim.State{0, 0}, 0)
	assert.ErrorIs(t, err, sim.ErrDimensionMismatch)
}

func TestTaskImpedanceConverges(t *testing.T) {
	m := newArm(t)
	target, err := m.ForwardGeometry(positions(t, m, 0.8, 0.6), "")
	require.NoError(t, err)
	target.SetName("goal")

	ctrl, err := NewTaskImpedance(m, target, impedance.Linear,
		[]float64{3, 3, 3, 0, 0, 0}, []float64{6, 6, 6, 1, 1, 1})
	require.NoError(t, err)
	ctrl.JointDamping = 0.5
	ctrl.MaxLinear = 1
	assert.Equal(t, "tool", ctrl.DynamicalSystem().Attractor().Name())

	result := run(t, m, ctrl, InitialState(positions(t, m, 0.3, 1.2)))
	reached, err := m.ForwardGeometry(positions(t, m, result.Final()[:2]...), "")
	require.NoError(t, err)
	assert.Less(t, reached.Position().Sub(target.Position()).Norm(), 1e-3)
}

func TestTaskImpedanceRejectsJointSpace(t *testing.T) {
	m := newArm(t)
	_, err := NewTaskImpedance(m, state.IdentityCartesianPose("tool", ""), impedance.Joint,
		[]float64{1, 1, 1, 1, 1, 1}, []float64{1, 1, 1, 1, 1, 1})
	assert.ErrorIs(t, err, impedance.ErrInvalidSpace)
}
