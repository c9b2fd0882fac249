package impedance

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/ctrlib/internal/state"
)

const tolerance = 1e-4

func randomMatrix(r, c int) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = 2*rand.Float64() - 1
	}
	return mat.NewDense(r, c, data)
}

// randomDirection never returns a near-zero vector.
func randomDirection(n int) []float64 {
	for {
		v := mat.Col(nil, 0, randomMatrix(n, 1))
		if floats.Norm(v, 2) > 1e-4 {
			return v
		}
	}
}

func columnNorms(m mat.Matrix) []float64 {
	_, c := m.Dims()
	norms := make([]float64, c)
	for j := range norms {
		norms[j] = floats.Norm(mat.Col(nil, j, m), 2)
	}
	return norms
}

func blockSum(m *mat.Dense, r, c int) float64 {
	return mat.Sum(m.Slice(r, r+3, c, c+3))
}

func newCartesian(t *testing.T, space ComputationalSpace) *Dissipative {
	t.Helper()
	d, err := NewCartesian(space)
	require.NoError(t, err, "NewCartesian(%s)", space)
	return d
}

func TestCopy(t *testing.T) {
	d := newCartesian(t, Linear)
	require.NoError(t, d.SetDampingEigenvalue(50, 2))
	cp := d.Copy()

	assert.Equal(t, columnNorms(d.Damping()), columnNorms(cp.Damping()))
	assert.Equal(t, columnNorms(d.Stiffness()), columnNorms(cp.Stiffness()))
	assert.Equal(t, columnNorms(d.Inertia()), columnNorms(cp.Inertia()))
	assert.Equal(t, []float64{1, 1, 50, 1, 1, 1}, cp.DampingEigenvalues())

	require.NoError(t, cp.SetDampingEigenvalue(3, 0))
	assert.Equal(t, 1.0, d.DampingEigenvalues()[0])
}

func TestOrthonormalBasis(t *testing.T) {
	for _, n := range []int{3, 6} {
		seed := randomMatrix(n, n)
		direction := randomDirection(n)

		basis, err := ComputeOrthonormalBasis(seed, direction)
		require.NoError(t, err)

		normalized := append([]float64(nil), direction...)
		floats.Scale(1/floats.Norm(direction, 2), normalized)
		for i, x := range mat.Col(nil, 0, basis) {
			assert.InDelta(t, normalized[i], x, tolerance)
		}
		for i := 0; i < n; i++ {
			ci := mat.Col(nil, i, basis)
			assert.InDelta(t, 1, floats.Norm(ci, 2), tolerance)
			for j := i + 1; j < n; j++ {
				assert.InDelta(t, 0, floats.Dot(ci, mat.Col(nil, j, basis)), tolerance)
			}
		}
	}
}

func TestOrthonormalBasisAlignedWithSeed(t *testing.T) {
	basis, err := ComputeOrthonormalBasis(identity(3), []float64{0, 2, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, mat.Col(nil, 0, basis))
	assert.Equal(t, []float64{1, 0, 0}, mat.Col(nil, 1, basis))
	assert.Equal(t, []float64{0, 0, 1}, mat.Col(nil, 2, basis))
}

func TestOrthonormalBasisErrors(t *testing.T) {
	_, err := ComputeOrthonormalBasis(identity(3), []float64{0, 0, 0})
	assert.ErrorIs(t, err, ErrDegenerateDirection)

	_, err = ComputeOrthonormalBasis(identity(3), []float64{1, 0})
	assert.ErrorIs(t, err, state.ErrIncompatibleSize)
}

func TestComputeDampingLinear(t *testing.T) {
	d := newCartesian(t, Linear)
	require.NoError(t, d.ComputeDamping(randomDirection(6)))
	damping := d.Damping()

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, damping.At(i, j), tolerance)
		}
	}
	assert.InDelta(t, 0, blockSum(damping, 3, 3), tolerance)
	assert.InDelta(t, 0, blockSum(damping, 3, 0), tolerance)
	assert.InDelta(t, 0, blockSum(damping, 0, 3), tolerance)
}

func TestComputeDampingAngular(t *testing.T) {
	d := newCartesian(t, Angular)
	require.NoError(t, d.ComputeDamping(randomDirection(6)))
	damping := d.Damping()

	assert.InDelta(t, 0, blockSum(damping, 0, 0), tolerance)
	for i := 3; i < 6; i++ {
		for j := 3; j < 6; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, damping.At(i, j), tolerance)
		}
	}
	assert.InDelta(t, 0, blockSum(damping, 3, 0), tolerance)
	assert.InDelta(t, 0, blockSum(damping, 0, 3), tolerance)
}

func TestComputeDampingIdentity(t *testing.T) {
	for _, space := range []ComputationalSpace{DecoupledTwist, Full} {
		t.Run(space.String(), func(t *testing.T) {
			d := newCartesian(t, space)
			require.NoError(t, d.SetDamping(randomMatrix(6, 6)))
			require.NoError(t, d.ComputeDamping(randomDirection(6)))
			assert.True(t, mat.EqualApprox(d.Damping(), identity(6), tolerance))
		})
	}
}

func TestComputeDampingNullVelocity(t *testing.T) {
	for _, space := range []ComputationalSpace{Linear, Angular, DecoupledTwist, Full} {
		t.Run(space.String(), func(t *testing.T) {
			d := newCartesian(t, space)
			preset := randomMatrix(6, 6)
			require.NoError(t, d.SetDamping(preset))
			require.NoError(t, d.ComputeDamping(make([]float64, 6)))

			want := columnNorms(preset)
			for i, got := range columnNorms(d.Damping()) {
				assert.InDelta(t, want[i], got, tolerance)
			}
		})
	}
}

func TestComputeDampingBelowThreshold(t *testing.T) {
	d := newCartesian(t, Full)
	require.NoError(t, d.SetVelocityThreshold(0.5))
	preset := randomMatrix(6, 6)
	require.NoError(t, d.SetDamping(preset))
	require.NoError(t, d.ComputeDamping([]float64{0.1, 0.1, 0, 0, 0, 0}))
	assert.True(t, mat.Equal(d.Damping(), preset))

	assert.Error(t, d.SetVelocityThreshold(-1))
	assert.Equal(t, 0.5, d.VelocityThreshold())
}

func TestComputeDampingPartialDecoupledTwist(t *testing.T) {
	velocities := map[string][]float64{
		"linear":  {1, 1, 1, 0, 0, 0},
		"angular": {0, 0, 0, 1, 1, 1},
	}
	for name, velocity := range velocities {
		t.Run(name, func(t *testing.T) {
			d := newCartesian(t, DecoupledTwist)
			preset := randomMatrix(6, 6)
			require.NoError(t, d.SetDamping(preset))
			require.NoError(t, d.ComputeDamping(velocity))

			before := columnNorms(preset)
			for i, after := range columnNorms(d.Damping()) {
				assert.NotEqual(t, before[i], after, "column %d", i)
			}
		})
	}
}

func TestComputeDampingSizeMismatch(t *testing.T) {
	d := newCartesian(t, Full)
	assert.ErrorIs(t, d.ComputeDamping([]float64{1, 2}), state.ErrIncompatibleSize)
	assert.ErrorIs(t, d.SetDamping(identity(3)), state.ErrIncompatibleSize)
	assert.ErrorIs(t, d.SetDampingEigenvalue(1, 6), state.ErrIncompatibleSize)
	assert.ErrorIs(t, d.SetDampingEigenvalues([]float64{1}), state.ErrIncompatibleSize)
}

func TestComputeCommandWithColinearVelocity(t *testing.T) {
	d := newCartesian(t, Linear)
	require.NoError(t, d.SetDampingEigenvalue(10, 0))

	desired := state.CartesianTwistFrom("test", r3.Vector{X: 1}, r3.Vector{}, "")
	feedback := state.CartesianTwistFrom("test", r3.Vector{X: 1, Y: 1}, r3.Vector{}, "")

	command, err := d.ComputeCommand(desired, state.ZeroCartesianTwist("test", ""))
	require.NoError(t, err)
	assert.Equal(t, state.CartesianWrenchType, command.Type())
	assert.Equal(t, "test", command.Name())
	force := command.Linear()
	assert.InDelta(t, 10, force.X, tolerance)
	assert.InDelta(t, 0, force.Y, tolerance)
	assert.InDelta(t, 0, force.Z, tolerance)

	command, err = d.ComputeCommand(desired, feedback)
	require.NoError(t, err)
	force = command.Linear()
	assert.InDelta(t, 0, force.X, tolerance)
	assert.InDelta(t, -1, force.Y, tolerance)
	assert.InDelta(t, 0, force.Z, tolerance)
}

func TestComputeCommandChecksOperands(t *testing.T) {
	d := newCartesian(t, Full)
	preset := randomMatrix(6, 6)
	require.NoError(t, d.SetDamping(preset))

	desired := state.CartesianTwistFrom("test", r3.Vector{X: 1}, r3.Vector{}, "world")
	_, err := d.ComputeCommand(desired, state.ZeroCartesianTwist("test", "base"))
	assert.ErrorIs(t, err, state.ErrIncompatibleStates)
	_, err = d.ComputeCommand(desired, state.NewCartesianTwist("test", "world"))
	assert.ErrorIs(t, err, state.ErrEmptyState)
	assert.True(t, mat.Equal(d.Damping(), preset))

	feedback, err := state.JointVelocitiesFrom("test", nil, []float64{0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	_, err = d.ComputeJointCommand(feedback, feedback)
	assert.ErrorIs(t, err, ErrInvalidSpace)
}

func TestComputeTaskToJointCommand(t *testing.T) {
	d := newCartesian(t, Linear)
	desired := state.CartesianTwistFrom("test", r3.Vector{X: 1}, r3.Vector{}, "")
	feedback := state.CartesianTwistFrom("test", r3.Vector{X: 1, Y: 1}, r3.Vector{}, "")

	jacobian := state.NewJacobian("test_robot", 3, "", "")
	require.NoError(t, jacobian.SetData(randomMatrix(6, 3)))

	command, err := d.ComputeTaskToJointCommand(desired, feedback, jacobian)
	require.NoError(t, err)
	assert.Greater(t, command.Norm(), 0.0)
	assert.Equal(t, state.JointNames(3), command.Names())

	other := state.NewJacobian("test_robot", 3, "elbow", "")
	require.NoError(t, other.SetData(randomMatrix(6, 3)))
	_, err = d.ComputeTaskToJointCommand(desired, feedback, other)
	assert.ErrorIs(t, err, state.ErrIncompatibleStates)

	elsewhere := state.NewJacobian("test_robot", 3, "test", "base")
	require.NoError(t, elsewhere.SetData(randomMatrix(6, 3)))
	_, err = d.ComputeTaskToJointCommand(desired, feedback, elsewhere)
	assert.ErrorIs(t, err, state.ErrIncompatibleStates)
}

func TestComputeJointCommand(t *testing.T) {
	d, err := NewJoint(4)
	require.NoError(t, err)
	desired, err := state.JointVelocitiesFrom("test", nil, []float64{1, 0, 0, 0})
	require.NoError(t, err)
	feedback, err := state.JointVelocitiesFrom("test", nil, []float64{1, 1, 0, 0})
	require.NoError(t, err)

	command, err := d.ComputeJointCommand(desired, feedback)
	require.NoError(t, err)
	assert.Equal(t, state.JointTorquesType, command.Type())
	assert.Greater(t, command.Norm(), 0.0)
	assert.InDelta(t, -1, command.Data()[1], tolerance)

	_, err = d.ComputeCommand(state.ZeroCartesianTwist("test", ""), state.ZeroCartesianTwist("test", ""))
	assert.ErrorIs(t, err, ErrInvalidSpace)
}

func TestConstructors(t *testing.T) {
	_, err := NewCartesian(Joint)
	assert.ErrorIs(t, err, ErrInvalidSpace)
	_, err = NewJoint(0)
	assert.ErrorIs(t, err, state.ErrIncompatibleSize)

	d := newCartesian(t, DecoupledTwist)
	assert.Equal(t, DecoupledTwist, d.Space())
	assert.Equal(t, 6, d.Dimension())
	assert.Equal(t, DefaultVelocityThreshold, d.VelocityThreshold())
}

func TestParseComputationalSpace(t *testing.T) {
	for _, space := range Spaces() {
		parsed, err := ParseComputationalSpace(space.String())
		require.NoError(t, err)
		assert.Equal(t, space, parsed)
	}
	parsed, err := ParseComputationalSpace("Decoupled-Twist")
	require.NoError(t, err)
	assert.Equal(t, DecoupledTwist, parsed)

	_, err = ParseComputationalSpace("cylindrical")
	assert.ErrorIs(t, err, ErrInvalidSpace)
}
