package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestJacobianCreate(t *testing.T) {
	jac := NewJacobian("robot", 7, "test", "")
	assert.Equal(t, 6, jac.Rows())
	assert.Equal(t, 7, jac.Cols())
	assert.True(t, jac.IsEmpty())
	assert.Equal(t, "test", jac.Frame())
	assert.Equal(t, "world", jac.ReferenceFrame())
	for i, name := range jac.JointNames() {
		assert.Equal(t, JointNames(7)[i], name)
		assert.Zero(t, floats.Norm(jac.Col(i), 2))
	}

	named := NewJacobianWithNames("robot", []string{"j1", "j2"}, "test", "test_ref")
	assert.Equal(t, []string{"j1", "j2"}, named.JointNames())
	assert.Equal(t, "test_ref", named.ReferenceFrame())
}

func TestJacobianSetData(t *testing.T) {
	jac := NewJacobian("robot", 3, "test", "")
	require.NoError(t, jac.SetData(mat.NewDense(6, 3, randomVector(18))))
	assert.False(t, jac.IsEmpty())
	for i := 0; i < jac.Cols(); i++ {
		assert.Greater(t, floats.Norm(jac.Col(i), 2), 0.0)
	}
	assert.ErrorIs(t, jac.SetData(mat.NewDense(7, 6, nil)), ErrIncompatibleSize)
}

func TestJacobianTranspose(t *testing.T) {
	jac := RandomJacobian("robot", 7, "test", "")
	jt := jac.Transpose()
	assert.Equal(t, 7, jt.Rows())
	assert.Equal(t, 6, jt.Cols())
	assert.True(t, jt.IsTransposed())
	for i := 0; i < jac.Cols(); i++ {
		assert.InDeltaSlice(t, jac.Col(i), jt.Row(i), 1e-12)
	}
}

func TestJacobianMulMatrix(t *testing.T) {
	jac := RandomJacobian("robot", 7, "test", "")
	m := mat.NewDense(7, 2, randomVector(14))
	got, err := jac.MulMatrix(m)
	require.NoError(t, err)
	var want mat.Dense
	want.Mul(jac.Data(), m)
	assert.True(t, mat.EqualApprox(got, &want, 1e-12))

	_, err = jac.MulMatrix(mat.NewDense(6, 1, nil))
	assert.ErrorIs(t, err, ErrIncompatibleSize)

	_, err = NewJacobian("robot", 7, "test", "").MulMatrix(m)
	assert.ErrorIs(t, err, ErrEmptyState)
}

func TestJacobianSolve(t *testing.T) {
	jac := RandomJacobian("robot", 7, "test", "")
	_, err := jac.Solve(mat.NewDense(7, 1, randomVector(7)))
	assert.ErrorIs(t, err, ErrIncompatibleSize)

	b := mat.NewDense(6, 1, randomVector(6))
	x, err := jac.Solve(b)
	require.NoError(t, err)
	r, c := x.Dims()
	assert.Equal(t, 7, r)
	assert.Equal(t, 1, c)

	// a redundant robot reaches any twist exactly
	back, err := jac.MulMatrix(x)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(back, b, 1e-8))
}

func TestJacobianSolveRoundTrip(t *testing.T) {
	jac := NewJacobian("robot", 6, "ee", "")
	data := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		data.Set(i, i, float64(i+1))
		if i+1 < 6 {
			data.Set(i, i+1, 0.5)
		}
	}
	require.NoError(t, jac.SetData(data))

	x := mat.NewDense(6, 1, []float64{1, -2, 0.5, 3, 0, -1})
	b, err := jac.MulMatrix(x)
	require.NoError(t, err)
	got, err := jac.Solve(b)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(got, x, 1e-9))
}

func TestJacobianJointToCartesian(t *testing.T) {
	jac := RandomJacobian("robot", 7, "test", "test_ref")
	jvel := RandomJointVelocities("robot", JointNames(7))

	twist, err := jac.MulJointVelocities(jvel)
	require.NoError(t, err)
	assert.Equal(t, jac.Frame(), twist.Name())
	assert.Equal(t, jac.ReferenceFrame(), twist.ReferenceFrame())

	var want mat.VecDense
	want.MulVec(jac.Data(), mat.NewVecDense(7, jvel.Data()))
	assert.InDeltaSlice(t, want.RawVector().Data, twist.Data(), 1e-12)

	_, err = jac.MulJointVelocities(RandomJointVelocities("other", JointNames(7)))
	assert.ErrorIs(t, err, ErrIncompatibleStates)
}

func TestJacobianCartesianToJoint(t *testing.T) {
	jac := RandomJacobian("robot", 7, "test", "test_ref")
	twist := RandomCartesianTwist("test", "")

	_, err := jac.SolveTwist(twist)
	assert.ErrorIs(t, err, ErrIncompatibleStates)

	twist.SetReferenceFrame("test_ref")
	pinv, err := jac.Pseudoinverse()
	require.NoError(t, err)
	assert.Equal(t, 7, pinv.Rows())
	assert.Equal(t, 6, pinv.Cols())

	jvel, err := pinv.MulTwist(twist)
	require.NoError(t, err)
	assert.Greater(t, jvel.Norm(), 0.0)
	assert.Equal(t, jac.JointNames(), jvel.Names())

	solved, err := jac.SolveTwist(twist)
	require.NoError(t, err)
	assert.InDeltaSlice(t, solved.Data(), jvel.Data(), 1e-9)

	_, err = jac.MulTwist(twist)
	assert.ErrorIs(t, err, ErrIncompatibleSize)
}

func TestJacobianMulWrench(t *testing.T) {
	jac := RandomJacobian("robot", 3, "ee", "")
	wrench := RandomCartesianWrench("ee", "")

	torques, err := jac.MulWrench(wrench)
	require.NoError(t, err)
	assert.Equal(t, JointTorquesType, torques.Type())

	var want mat.VecDense
	want.MulVec(jac.Data().T(), mat.NewVecDense(6, wrench.Data()))
	assert.InDeltaSlice(t, want.RawVector().Data, torques.Data(), 1e-12)
}

func TestJacobianChangeReferenceFrame(t *testing.T) {
	jacInRef := RandomJacobian("robot", 7, "test", "test_ref")
	worldToRef := RandomCartesianPose("test_ref", "world")

	jacInWorld, err := jacInRef.ChangeReferenceFrame(worldToRef)
	require.NoError(t, err)
	assert.Equal(t, worldToRef.ReferenceFrame(), jacInWorld.ReferenceFrame())

	velInWorld := RandomCartesianTwist("test", "world")
	refToWorld, err := worldToRef.Inverse()
	require.NoError(t, err)
	velInRef, err := refToWorld.TransformTwist(velInWorld)
	require.NoError(t, err)

	jt1, err := jacInWorld.SolveTwist(velInWorld)
	require.NoError(t, err)
	jt2, err := jacInRef.SolveTwist(velInRef)
	require.NoError(t, err)
	assert.InDeltaSlice(t, jt1.Data(), jt2.Data(), 1e-6)

	_, err = jacInRef.ChangeReferenceFrame(RandomCartesianPose("elsewhere", "world"))
	assert.ErrorIs(t, err, ErrIncompatibleStates)
}

func TestParameter(t *testing.T) {
	p := NewParameter("gain", 2.0)
	assert.Equal(t, "gain", p.Name())
	p.SetValue(3)
	assert.Equal(t, 3.0, p.Value())
	assert.Equal(t, "gain: 3", p.String())
}
