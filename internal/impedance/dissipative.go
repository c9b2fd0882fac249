package impedance

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/ctrlib/internal/state"
)

// DefaultVelocityThreshold is the norm under which a velocity is too small to
// define a damping direction.
const DefaultVelocityThreshold = 1e-6

// Dissipative is an impedance controller whose damping is aligned with the
// desired velocity.
type Dissipative struct {
	space       ComputationalSpace
	damping     *mat.Dense
	stiffness   *mat.Dense
	inertia     *mat.Dense
	eigenvalues []float64
	threshold   float64
}

func newDissipative(space ComputationalSpace, n int) *Dissipative {
	eigenvalues := make([]float64, n)
	for i := range eigenvalues {
		eigenvalues[i] = 1
	}
	return &Dissipative{
		space:       space,
		damping:     identity(n),
		stiffness:   identity(n),
		inertia:     identity(n),
		eigenvalues: eigenvalues,
		threshold:   DefaultVelocityThreshold,
	}
}

// NewCartesian returns a 6-dimensional controller working on twists.
func NewCartesian(space ComputationalSpace) (*Dissipative, error) {
	if space < Linear || space > Full {
		return nil, fmt.Errorf("%w: %s is not a Cartesian space", ErrInvalidSpace, space)
	}
	return newDissipative(space, 6), nil
}

// NewJoint returns a controller working on nbJoints joint velocities.
func NewJoint(nbJoints int) (*Dissipative, error) {
	if nbJoints <= 0 {
		return nil, fmt.Errorf("%w: %d joints", state.ErrIncompatibleSize, nbJoints)
	}
	return newDissipative(Joint, nbJoints), nil
}

func (d *Dissipative) Space() ComputationalSpace { return d.space }
func (d *Dissipative) Dimension() int            { return len(d.eigenvalues) }

// Copy returns a deep copy of the controller.
func (d *Dissipative) Copy() *Dissipative {
	return &Dissipative{
		space:       d.space,
		damping:     mat.DenseCopyOf(d.damping),
		stiffness:   mat.DenseCopyOf(d.stiffness),
		inertia:     mat.DenseCopyOf(d.inertia),
		eigenvalues: append([]float64(nil), d.eigenvalues...),
		threshold:   d.threshold,
	}
}

func (d *Dissipative) checkSquare(name string, m mat.Matrix) error {
	n := d.Dimension()
	if r, c := m.Dims(); r != n || c != n {
		return fmt.Errorf("%w: %s is %dx%d, expected %dx%d", state.ErrIncompatibleSize, name, r, c, n, n)
	}
	return nil
}

func (d *Dissipative) Damping() *mat.Dense   { return mat.DenseCopyOf(d.damping) }
func (d *Dissipative) Stiffness() *mat.Dense { return mat.DenseCopyOf(d.stiffness) }
func (d *Dissipative) Inertia() *mat.Dense   { return mat.DenseCopyOf(d.inertia) }

// SetDamping overrides the damping matrix until the next computation.
func (d *Dissipative) SetDamping(m mat.Matrix) error {
	if err := d.checkSquare("damping", m); err != nil {
		return err
	}
	d.damping = mat.DenseCopyOf(m)
	return nil
}

func (d *Dissipative) SetStiffness(m mat.Matrix) error {
	if err := d.checkSquare("stiffness", m); err != nil {
		return err
	}
	d.stiffness = mat.DenseCopyOf(m)
	return nil
}

func (d *Dissipative) SetInertia(m mat.Matrix) error {
	if err := d.checkSquare("inertia", m); err != nil {
		return err
	}
	d.inertia = mat.DenseCopyOf(m)
	return nil
}

func (d *Dissipative) DampingEigenvalues() []float64 {
	return append([]float64(nil), d.eigenvalues...)
}

// SetDampingEigenvalue sets the damping gain of one axis of the aligned
// basis. Index 0 is the direction of motion.
func (d *Dissipative) SetDampingEigenvalue(value float64, index int) error {
	if index < 0 || index >= len(d.eigenvalues) {
		return fmt.Errorf("%w: eigenvalue index %d out of %d", state.ErrIncompatibleSize, index, len(d.eigenvalues))
	}
	d.eigenvalues[index] = value
	return nil
}

func (d *Dissipative) SetDampingEigenvalues(values []float64) error {
	if len(values) != len(d.eigenvalues) {
		return fmt.Errorf("%w: %d eigenvalues, expected %d", state.ErrIncompatibleSize, len(values), len(d.eigenvalues))
	}
	copy(d.eigenvalues, values)
	return nil
}

func (d *Dissipative) VelocityThreshold() float64 { return d.threshold }

func (d *Dissipative) SetVelocityThreshold(threshold float64) error {
	if threshold < 0 {
		return fmt.Errorf("impedance: negative velocity threshold %g", threshold)
	}
	d.threshold = threshold
	return nil
}

// ComputeDamping realigns the damping matrix with velocity. Parts of the
// velocity under the threshold leave their block of the matrix unchanged.
func (d *Dissipative) ComputeDamping(velocity []float64) error {
	n := d.Dimension()
	if len(velocity) != n {
		return fmt.Errorf("%w: velocity has %d entries, expected %d", state.ErrIncompatibleSize, len(velocity), n)
	}
	switch d.space {
	case Linear, Angular:
		lo := 0
		if d.space == Angular {
			lo = 3
		}
		part := velocity[lo : lo+3]
		if !d.significant(part) {
			return nil
		}
		block, err := alignedDamping(part, d.eigenvalues[lo:lo+3])
		if err != nil {
			return err
		}
		damping := mat.NewDense(6, 6, nil)
		setBlock(damping, lo, lo, block)
		d.damping = damping
	case DecoupledTwist:
		updated := false
		damping := mat.DenseCopyOf(d.damping)
		for _, lo := range []int{0, 3} {
			part := velocity[lo : lo+3]
			if !d.significant(part) {
				continue
			}
			block, err := alignedDamping(part, d.eigenvalues[lo:lo+3])
			if err != nil {
				return err
			}
			setBlock(damping, lo, lo, block)
			updated = true
		}
		if !updated {
			return nil
		}
		zeroBlock(damping, 0, 3)
		zeroBlock(damping, 3, 0)
		d.damping = damping
	case Full, Joint:
		if !d.significant(velocity) {
			return nil
		}
		damping, err := alignedDamping(velocity, d.eigenvalues)
		if err != nil {
			return err
		}
		d.damping = damping
	default:
		return fmt.Errorf("%w: %s", ErrInvalidSpace, d.space)
	}
	return nil
}

func (d *Dissipative) significant(v []float64) bool {
	norm := floats.Norm(v, 2)
	return norm > d.threshold && norm > 0
}

func setBlock(dst *mat.Dense, r, c int, src mat.Matrix) {
	dst.Slice(r, r+3, c, c+3).(*mat.Dense).Copy(src)
}

func zeroBlock(dst *mat.Dense, r, c int) {
	dst.Slice(r, r+3, c, c+3).(*mat.Dense).Zero()
}

// ComputeCommand realigns the damping with desired and returns the wrench
// D * (desired - feedback).
func (d *Dissipative) ComputeCommand(desired, feedback state.CartesianTwist) (state.CartesianWrench, error) {
	if d.space == Joint {
		return state.CartesianWrench{}, fmt.Errorf("%w: joint controller cannot take twists", ErrInvalidSpace)
	}
	errorTwist, err := desired.Sub(feedback)
	if err != nil {
		return state.CartesianWrench{}, err
	}
	if err := d.ComputeDamping(desired.Data()); err != nil {
		return state.CartesianWrench{}, err
	}
	command, err := dampedCommand(d.damping, errorTwist.Data())
	if err != nil {
		return state.CartesianWrench{}, err
	}
	wrench := state.NewCartesianWrench(desired.Name(), desired.ReferenceFrame())
	if err := wrench.SetData(command); err != nil {
		return state.CartesianWrench{}, err
	}
	return wrench, nil
}

// ComputeJointCommand realigns the damping with desired and returns the
// torques D * (desired - feedback).
func (d *Dissipative) ComputeJointCommand(desired, feedback state.JointVelocities) (state.JointTorques, error) {
	if d.space != Joint {
		return state.JointTorques{}, fmt.Errorf("%w: %s controller cannot take joint velocities", ErrInvalidSpace, d.space)
	}
	errorVelocity, err := desired.Sub(feedback)
	if err != nil {
		return state.JointTorques{}, err
	}
	if err := d.ComputeDamping(desired.Data()); err != nil {
		return state.JointTorques{}, err
	}
	command, err := dampedCommand(d.damping, errorVelocity.Data())
	if err != nil {
		return state.JointTorques{}, err
	}
	return state.JointTorquesFrom(desired.Name(), desired.Names(), command)
}

// ComputeTaskToJointCommand computes the Cartesian command and maps it to
// joint torques with the transposed Jacobian. The Jacobian must be expressed
// in the reference frame of the twists and, when its frame is set, describe
// the frame named by the desired twist.
func (d *Dissipative) ComputeTaskToJointCommand(desired, feedback state.CartesianTwist, jacobian state.Jacobian) (state.JointTorques, error) {
	if jacobian.ReferenceFrame() != desired.ReferenceFrame() {
		return state.JointTorques{}, fmt.Errorf("%w: jacobian in %s, twist in %s",
			state.ErrIncompatibleStates, jacobian.ReferenceFrame(), desired.ReferenceFrame())
	}
	if f := jacobian.Frame(); f != "" && f != desired.Name() {
		return state.JointTorques{}, fmt.Errorf("%w: jacobian of %s, twist of %s",
			state.ErrIncompatibleStates, f, desired.Name())
	}
	wrench, err := d.ComputeCommand(desired, feedback)
	if err != nil {
		return state.JointTorques{}, err
	}
	return jacobian.MulWrench(wrench)
}

func dampedCommand(damping *mat.Dense, errorVector []float64) ([]float64, error) {
	n, _ := damping.Dims()
	if len(errorVector) != n {
		return nil, fmt.Errorf("%w: error has %d entries, damping is %dx%d", state.ErrIncompatibleSize, len(errorVector), n, n)
	}
	out := mat.NewVecDense(n, nil)
	out.MulVec(damping, mat.NewVecDense(n, errorVector))
	return out.RawVector().Data, nil
}
