package state

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDecomposition indicates the singular value decomposition did not converge.
var ErrDecomposition = errors.New("state: singular value decomposition failed")

// pinvEpsilon scales the largest singular value into the cut-off under which
// singular values are treated as zero.
const pinvEpsilon = 1e-12

// Jacobian maps the joint velocities of a robot to the twist of a frame
// expressed in a reference frame. The matrix is 6xN, or Nx6 once transposed.
type Jacobian struct {
	robotName      string
	jointNames     []string
	frame          string
	referenceFrame string
	rows, cols     int
	data           *mat.Dense
	empty          bool
	transposed     bool
}

// NewJacobian returns an empty Jacobian over nbJoints default-named joints.
func NewJacobian(robot string, nbJoints int, frame, referenceFrame string) Jacobian {
	return NewJacobianWithNames(robot, JointNames(nbJoints), frame, referenceFrame)
}

func NewJacobianWithNames(robot string, jointNames []string, frame, referenceFrame string) Jacobian {
	if referenceFrame == "" {
		referenceFrame = WorldFrame
	}
	j := Jacobian{
		robotName:      robot,
		jointNames:     cloneSlice(jointNames),
		frame:          frame,
		referenceFrame: referenceFrame,
		rows:           6,
		cols:           len(jointNames),
		empty:          true,
	}
	if j.cols > 0 {
		j.data = mat.NewDense(j.rows, j.cols, nil)
	}
	return j
}

// RandomJacobian returns a Jacobian with entries sampled in [-1, 1].
func RandomJacobian(robot string, nbJoints int, frame, referenceFrame string) Jacobian {
	j := NewJacobian(robot, nbJoints, frame, referenceFrame)
	if j.data != nil {
		j.data = mat.NewDense(j.rows, j.cols, randomVector(j.rows*j.cols))
	}
	j.empty = false
	return j
}

func (j Jacobian) RobotName() string      { return j.robotName }
func (j Jacobian) JointNames() []string   { return cloneSlice(j.jointNames) }
func (j Jacobian) Frame() string          { return j.frame }
func (j Jacobian) ReferenceFrame() string { return j.referenceFrame }
func (j Jacobian) Rows() int              { return j.rows }
func (j Jacobian) Cols() int              { return j.cols }
func (j Jacobian) IsEmpty() bool          { return j.empty }
func (j Jacobian) IsTransposed() bool     { return j.transposed }

func (j *Jacobian) SetReferenceFrame(frame string) { j.referenceFrame = frame }

func (j Jacobian) Col(c int) []float64 {
	if j.data == nil {
		return make([]float64, j.rows)
	}
	return mat.Col(nil, c, j.data)
}

func (j Jacobian) Row(r int) []float64 {
	if j.data == nil {
		return nil
	}
	return mat.Row(nil, r, j.data)
}

// Data returns a copy of the matrix, or nil when it has no columns.
func (j Jacobian) Data() *mat.Dense {
	if j.data == nil {
		return nil
	}
	return mat.DenseCopyOf(j.data)
}

// SetData replaces the matrix. Its shape must match Rows x Cols.
func (j *Jacobian) SetData(m mat.Matrix) error {
	r, c := m.Dims()
	if r != j.rows || c != j.cols {
		return sizeError("jacobian is %dx%d, got %dx%d", j.rows, j.cols, r, c)
	}
	j.data = mat.DenseCopyOf(m)
	j.empty = false
	return nil
}

func (j Jacobian) requireData() error {
	if j.empty || j.data == nil {
		return emptyStateError(j.robotName + " jacobian")
	}
	return nil
}

func (j Jacobian) clone() Jacobian {
	c := j
	c.jointNames = cloneSlice(j.jointNames)
	if j.data != nil {
		c.data = mat.DenseCopyOf(j.data)
	}
	return c
}

func (j Jacobian) Copy() Jacobian { return j.clone() }

// Transpose swaps the rows and columns.
func (j Jacobian) Transpose() Jacobian {
	t := j.clone()
	t.rows, t.cols = j.cols, j.rows
	t.transposed = !j.transposed
	if j.data != nil {
		t.data = mat.DenseCopyOf(j.data.T())
	}
	return t
}

// Pseudoinverse returns the Moore-Penrose pseudo-inverse computed from the
// singular value decomposition. Singular values under a relative cut-off are
// dropped.
func (j Jacobian) Pseudoinverse() (Jacobian, error) {
	if err := j.requireData(); err != nil {
		return Jacobian{}, err
	}
	pinv, err := pseudoinverse(j.data)
	if err != nil {
		return Jacobian{}, err
	}
	out := j.clone()
	out.rows, out.cols = j.cols, j.rows
	out.transposed = !j.transposed
	out.data = pinv
	return out, nil
}

func pseudoinverse(a *mat.Dense) (*mat.Dense, error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, ErrDecomposition
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	r, c := a.Dims()
	cutoff := 0.0
	if len(values) > 0 {
		cutoff = float64(max(r, c)) * pinvEpsilon * values[0]
	}
	inv := mat.NewDiagDense(len(values), nil)
	for i, s := range values {
		if s > cutoff && !math.IsInf(1/s, 0) {
			inv.SetDiag(i, 1/s)
		}
	}
	var vs, out mat.Dense
	vs.Mul(&v, inv)
	out.Mul(&vs, u.T())
	return &out, nil
}

// Solve returns the minimum-norm least-squares solution x of J*x = m. The
// Jacobian must be in its 6xN form.
func (j Jacobian) Solve(m mat.Matrix) (*mat.Dense, error) {
	if err := j.requireData(); err != nil {
		return nil, err
	}
	r, _ := m.Dims()
	if j.rows != 6 || r != j.rows {
		return nil, sizeError("cannot solve a %dx%d jacobian against %d rows", j.rows, j.cols, r)
	}
	pinv, err := pseudoinverse(j.data)
	if err != nil {
		return nil, err
	}
	var x mat.Dense
	x.Mul(pinv, m)
	return &x, nil
}

// SolveTwist returns the joint velocities producing the twist. The twist must
// be expressed in the reference frame of the Jacobian.
func (j Jacobian) SolveTwist(t CartesianTwist) (JointVelocities, error) {
	if err := t.requireData(); err != nil {
		return JointVelocities{}, err
	}
	if t.referenceFrame != j.referenceFrame {
		return JointVelocities{}, incompatibleError("twist in %s, jacobian in %s", t.referenceFrame, j.referenceFrame)
	}
	x, err := j.Solve(mat.NewVecDense(6, t.Data()))
	if err != nil {
		return JointVelocities{}, err
	}
	return JointVelocitiesFrom(j.robotName, j.jointNames, mat.Col(nil, 0, x))
}

// MulMatrix returns J*m.
func (j Jacobian) MulMatrix(m mat.Matrix) (*mat.Dense, error) {
	if err := j.requireData(); err != nil {
		return nil, err
	}
	r, _ := m.Dims()
	if r != j.cols {
		return nil, sizeError("cannot multiply a %dx%d jacobian by %d rows", j.rows, j.cols, r)
	}
	var out mat.Dense
	out.Mul(j.data, m)
	return &out, nil
}

func (j Jacobian) checkJoints(robot string, names []string) error {
	if robot != j.robotName || !sameNames(names, j.jointNames) {
		return incompatibleError("joints %s%v do not match jacobian %s%v", robot, names, j.robotName, j.jointNames)
	}
	return nil
}

// MulJointVelocities returns the twist of the Jacobian frame produced by v.
func (j Jacobian) MulJointVelocities(v JointVelocities) (CartesianTwist, error) {
	if j.transposed {
		return CartesianTwist{}, sizeError("transposed jacobian cannot map joint velocities")
	}
	if err := j.requireData(); err != nil {
		return CartesianTwist{}, err
	}
	if err := v.requireData(); err != nil {
		return CartesianTwist{}, err
	}
	if err := j.checkJoints(v.name, v.names); err != nil {
		return CartesianTwist{}, err
	}
	out, err := j.MulMatrix(mat.NewVecDense(v.Size(), v.Data()))
	if err != nil {
		return CartesianTwist{}, err
	}
	twist := NewCartesianTwist(j.frame, j.referenceFrame)
	if err := twist.SetData(mat.Col(nil, 0, out)); err != nil {
		return CartesianTwist{}, err
	}
	return twist, nil
}

// MulTwist maps a twist to joint velocities through a transposed or
// pseudo-inverted Jacobian.
func (j Jacobian) MulTwist(t CartesianTwist) (JointVelocities, error) {
	if !j.transposed {
		return JointVelocities{}, sizeError("a %dx%d jacobian cannot map a twist, use its pseudo-inverse", j.rows, j.cols)
	}
	if err := t.requireData(); err != nil {
		return JointVelocities{}, err
	}
	if t.referenceFrame != j.referenceFrame {
		return JointVelocities{}, incompatibleError("twist in %s, jacobian in %s", t.referenceFrame, j.referenceFrame)
	}
	out, err := j.MulMatrix(mat.NewVecDense(6, t.Data()))
	if err != nil {
		return JointVelocities{}, err
	}
	return JointVelocitiesFrom(j.robotName, j.jointNames, mat.Col(nil, 0, out))
}

// MulWrench returns the joint torques J^T*w balancing the wrench.
func (j Jacobian) MulWrench(w CartesianWrench) (JointTorques, error) {
	if err := j.requireData(); err != nil {
		return JointTorques{}, err
	}
	if err := w.requireData(); err != nil {
		return JointTorques{}, err
	}
	if w.referenceFrame != j.referenceFrame {
		return JointTorques{}, incompatibleError("wrench in %s, jacobian in %s", w.referenceFrame, j.referenceFrame)
	}
	if j.transposed {
		return JointTorques{}, sizeError("transposed jacobian cannot map a wrench")
	}
	out, err := j.Transpose().MulMatrix(mat.NewVecDense(6, w.Data()))
	if err != nil {
		return JointTorques{}, err
	}
	return JointTorquesFrom(j.robotName, j.jointNames, mat.Col(nil, 0, out))
}

// ChangeReferenceFrame re-expresses the Jacobian through pose, whose name
// must be the current reference frame. Only the rotation of pose applies.
func (j Jacobian) ChangeReferenceFrame(pose CartesianPose) (Jacobian, error) {
	if err := j.requireData(); err != nil {
		return Jacobian{}, err
	}
	if err := pose.requireData(); err != nil {
		return Jacobian{}, err
	}
	if j.transposed {
		return Jacobian{}, sizeError("transposed jacobian has no reference frame to change")
	}
	if pose.name != j.referenceFrame {
		return Jacobian{}, incompatibleError("pose %s does not match reference frame %s", pose.name, j.referenceFrame)
	}
	rot := pose.RotationMatrix()
	block := mat.NewDense(6, 6, nil)
	block.Slice(0, 3, 0, 3).(*mat.Dense).Copy(rot)
	block.Slice(3, 6, 3, 6).(*mat.Dense).Copy(rot)
	out := j.clone()
	out.referenceFrame = pose.referenceFrame
	out.data.Mul(block, j.data)
	return out, nil
}

func (j Jacobian) String() string {
	header := fmt.Sprintf("Jacobian: %s %v, frame %q in %q", j.robotName, j.jointNames, j.frame, j.referenceFrame)
	if j.transposed {
		header += " (transposed)"
	}
	if j.empty || j.data == nil {
		return header + " (empty)"
	}
	return fmt.Sprintf("%s\n%v", header, mat.Formatted(j.data, mat.Squeeze()))
}
