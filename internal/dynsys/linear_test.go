package dynsys

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/san-kum/ctrlib/internal/state"
)

func TestJointLinearEmptyAttractor(t *testing.T) {
	ds := NewJoint("robot", 3)
	current := state.ZeroJointPositions("robot", state.JointNames(3))
	_, err := ds.ComputeDynamics(current)
	assert.ErrorIs(t, err, ErrEmptyAttractor)

	_, err = New[state.JointPositions, state.JointVelocities](state.NewJointPositions("robot", 3), 1)
	assert.ErrorIs(t, err, state.ErrEmptyState)
}

func TestJointLinearComputeDynamics(t *testing.T) {
	target, err := state.JointPositionsFrom("robot", nil, []float64{1, 2, 3})
	require.NoError(t, err)
	current, err := state.JointPositionsFrom("robot", nil, []float64{0, 0, 1})
	require.NoError(t, err)

	tests := []struct {
		name string
		ds   func() (*JointLinear, error)
		want []float64
	}{
		{"isotropic", func() (*JointLinear, error) {
			return New[state.JointPositions, state.JointVelocities](target, 2)
		}, []float64{2, 4, 4}},
		{"diagonal", func() (*JointLinear, error) {
			return NewWithDiagonal[state.JointPositions, state.JointVelocities](target, []float64{1, 0, 10})
		}, []float64{1, 0, 20}},
		{"matrix", func() (*JointLinear, error) {
			return NewWithMatrix[state.JointPositions, state.JointVelocities](target,
				mat.NewDense(3, 3, []float64{0, 1, 0, 1, 0, 0, 0, 0, 1}))
		}, []float64{2, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := tt.ds()
			require.NoError(t, err)
			v, err := ds.ComputeDynamics(current)
			require.NoError(t, err)
			assert.Equal(t, state.JointVelocitiesType, v.Type())
			for i, want := range tt.want {
				assert.InDelta(t, want, v.Data()[i], 1e-12)
			}
		})
	}
}

func TestJointLinearGainValidation(t *testing.T) {
	target := state.ZeroJointPositions("robot", state.JointNames(3))
	_, err := NewWithDiagonal[state.JointPositions, state.JointVelocities](target, []float64{1, 2})
	assert.ErrorIs(t, err, state.ErrIncompatibleSize)

	// one matching dimension is not enough
	_, err = NewWithMatrix[state.JointPositions, state.JointVelocities](target, mat.NewDense(3, 2, nil))
	assert.ErrorIs(t, err, state.ErrIncompatibleSize)

	ds, err := New[state.JointPositions, state.JointVelocities](target, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, ds.SetAttractor(state.ZeroJointPositions("robot", state.JointNames(4))), state.ErrIncompatibleSize)

	ds.SetGain(3)
	assert.Equal(t, 3.0, ds.Gain().At(2, 2))
	assert.Equal(t, 0.0, ds.Gain().At(0, 1))
}

func TestJointLinearIncompatibleState(t *testing.T) {
	target := state.ZeroJointPositions("robot", []string{"a", "b"})
	ds, err := New[state.JointPositions, state.JointVelocities](target, 1)
	require.NoError(t, err)

	_, err = ds.ComputeDynamics(state.ZeroJointPositions("robot", []string{"b", "a"}))
	assert.ErrorIs(t, err, state.ErrIncompatibleStates)

	_, err = ds.ComputeDynamics(state.NewJointPositionsWithNames("robot", []string{"a", "b"}))
	assert.ErrorIs(t, err, state.ErrEmptyState)
}

func TestJointLinearConverges(t *testing.T) {
	target, err := state.JointPositionsFrom("robot", nil, []float64{1, -1})
	require.NoError(t, err)
	ds, err := New[state.JointPositions, state.JointVelocities](target, 5)
	require.NoError(t, err)

	current := state.ZeroJointPositions("robot", state.JointNames(2))
	for i := 0; i < 500; i++ {
		v, err := ds.ComputeDynamics(current)
		require.NoError(t, err)
		current, err = current.Add(state.PositionsFromVelocities(mustScale(t, v, 0.01)))
		require.NoError(t, err)
	}
	d, err := current.Dist(target)
	require.NoError(t, err)
	assert.Less(t, d, 1e-6)
}

func mustScale(t *testing.T, v state.JointVelocities, f float64) state.JointVelocities {
	out, err := v.Scale(f)
	require.NoError(t, err)
	return out
}

func TestCartesianLinear(t *testing.T) {
	ds := NewCartesian()
	assert.Equal(t, 1.0, ds.Gain().At(5, 5))

	current := state.IdentityCartesianPose("ee", state.WorldFrame)
	_, err := ds.ComputeDynamics(current)
	assert.ErrorIs(t, err, ErrEmptyAttractor)

	orientation := quat.Number{Real: math.Cos(math.Pi / 8), Imag: math.Sin(math.Pi / 8)}
	target, err := state.CartesianPoseFrom("target", r3.Vector{X: 1, Z: -1}, orientation, state.WorldFrame)
	require.NoError(t, err)
	require.NoError(t, ds.SetAttractor(target))
	require.NoError(t, ds.SetDiagonalGain([]float64{1, 1, 2, 4, 4, 4}))

	twist, err := ds.ComputeDynamics(current)
	require.NoError(t, err)
	require.Len(t, twist.Data(), 6)
	want := []float64{1, 0, -2, math.Pi, 0, 0}
	for i, w := range want {
		assert.InDelta(t, w, twist.Data()[i], 1e-9)
	}

	_, err = ds.ComputeDynamics(state.IdentityCartesianPose("ee", "base"))
	assert.ErrorIs(t, err, state.ErrIncompatibleStates)
}

func TestLinearCopyAndParameters(t *testing.T) {
	target, err := state.JointPositionsFrom("robot", nil, []float64{1, 2})
	require.NoError(t, err)
	ds, err := New[state.JointPositions, state.JointVelocities](target, 2)
	require.NoError(t, err)

	cp := ds.Copy()
	cp.SetGain(7)
	assert.Equal(t, 2.0, ds.Gain().At(0, 0))

	attractor := ds.AttractorParameter()
	assert.Equal(t, "attractor", attractor.Name())
	assert.Equal(t, []float64{1, 2}, attractor.Value().Data())
	assert.Equal(t, "gain", ds.GainParameter().Name())

	a := ds.Attractor()
	require.NoError(t, a.Clamp(0.5, 0))
	assert.Equal(t, []float64{1, 2}, ds.Attractor().Data())
}
