package dynsys

import (
	"fmt"

	"github.com/san-kum/ctrlib/internal/state"
	"gonum.org/v1/gonum/mat"
)

// Attractor is a position-like state whose difference with another state of
// the same space is a velocity.
type Attractor[S any, V any] interface {
	IsEmpty() bool
	Dimension() int
	Difference(other S) (V, error)
	Copy() S
}

// Velocity is the output of a dynamical system.
type Velocity[V any] interface {
	MulMatrix(m mat.Matrix) (V, error)
}

// Linear is the dynamical system gain * (attractor - state). The gain is
// always stored as a full square matrix.
type Linear[S Attractor[S, V], V Velocity[V]] struct {
	attractor state.Parameter[S]
	gain      state.Parameter[*mat.Dense]
}

type (
	JointLinear     = Linear[state.JointPositions, state.JointVelocities]
	CartesianLinear = Linear[state.CartesianPose, state.CartesianTwist]
)

func newLinear[S Attractor[S, V], V Velocity[V]](attractor S, gain *mat.Dense) *Linear[S, V] {
	return &Linear[S, V]{
		attractor: state.NewParameter("attractor", attractor.Copy()),
		gain:      state.NewParameter("gain", gain),
	}
}

func requireAttractor[S Attractor[S, V], V Velocity[V]](attractor S) error {
	if attractor.IsEmpty() {
		return fmt.Errorf("%w: attractor", state.ErrEmptyState)
	}
	return nil
}

// New returns a system with an isotropic gain.
func New[S Attractor[S, V], V Velocity[V]](attractor S, gain float64) (*Linear[S, V], error) {
	if err := requireAttractor[S, V](attractor); err != nil {
		return nil, err
	}
	return newLinear[S, V](attractor, scaledIdentity(attractor.Dimension(), gain)), nil
}

// NewWithDiagonal returns a system with one gain per dimension.
func NewWithDiagonal[S Attractor[S, V], V Velocity[V]](attractor S, gains []float64) (*Linear[S, V], error) {
	if err := requireAttractor[S, V](attractor); err != nil {
		return nil, err
	}
	l := newLinear[S, V](attractor, nil)
	if err := l.SetDiagonalGain(gains); err != nil {
		return nil, err
	}
	return l, nil
}

// NewWithMatrix returns a system with a full gain matrix.
func NewWithMatrix[S Attractor[S, V], V Velocity[V]](attractor S, gain mat.Matrix) (*Linear[S, V], error) {
	if err := requireAttractor[S, V](attractor); err != nil {
		return nil, err
	}
	l := newLinear[S, V](attractor, nil)
	if err := l.SetGainMatrix(gain); err != nil {
		return nil, err
	}
	return l, nil
}

// NewCartesian returns a Cartesian system without attractor and with an
// identity gain.
func NewCartesian() *CartesianLinear {
	return newLinear[state.CartesianPose, state.CartesianTwist](
		state.NewCartesianPose("attractor", state.WorldFrame), scaledIdentity(6, 1))
}

// NewJoint returns a joint system without attractor and with an identity
// gain over nbJoints joints.
func NewJoint(robot string, nbJoints int) *JointLinear {
	return newLinear[state.JointPositions, state.JointVelocities](
		state.NewJointPositions(robot, nbJoints), scaledIdentity(nbJoints, 1))
}

func scaledIdentity(n int, gain float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, gain)
	}
	return m
}

func (l *Linear[S, V]) dimension() int {
	if g := l.gain.Value(); g != nil {
		r, _ := g.Dims()
		return r
	}
	return l.attractor.Value().Dimension()
}

// Attractor returns a copy of the attractor.
func (l *Linear[S, V]) Attractor() S { return l.attractor.Value().Copy() }

// SetAttractor replaces the attractor. Its dimension must match the gain.
func (l *Linear[S, V]) SetAttractor(attractor S) error {
	if n := l.dimension(); attractor.Dimension() != n {
		return fmt.Errorf("%w: attractor has dimension %d, gain is %dx%d",
			state.ErrIncompatibleSize, attractor.Dimension(), n, n)
	}
	l.attractor.SetValue(attractor.Copy())
	return nil
}

// Gain returns a copy of the gain matrix.
func (l *Linear[S, V]) Gain() *mat.Dense { return mat.DenseCopyOf(l.gain.Value()) }

func (l *Linear[S, V]) SetGain(gain float64) {
	l.gain.SetValue(scaledIdentity(l.attractor.Value().Dimension(), gain))
}

func (l *Linear[S, V]) SetDiagonalGain(gains []float64) error {
	n := l.attractor.Value().Dimension()
	if len(gains) != n {
		return fmt.Errorf("%w: %d diagonal gains for dimension %d", state.ErrIncompatibleSize, len(gains), n)
	}
	m := mat.NewDense(n, n, nil)
	for i, g := range gains {
		m.Set(i, i, g)
	}
	l.gain.SetValue(m)
	return nil
}

func (l *Linear[S, V]) SetGainMatrix(gain mat.Matrix) error {
	n := l.attractor.Value().Dimension()
	if r, c := gain.Dims(); r != n || c != n {
		return fmt.Errorf("%w: gain is %dx%d, expected %dx%d", state.ErrIncompatibleSize, r, c, n, n)
	}
	l.gain.SetValue(mat.DenseCopyOf(gain))
	return nil
}

// AttractorParameter returns the attractor with its parameter name.
func (l *Linear[S, V]) AttractorParameter() state.Parameter[S] {
	return state.NewParameter(l.attractor.Name(), l.Attractor())
}

// GainParameter returns the gain with its parameter name.
func (l *Linear[S, V]) GainParameter() state.Parameter[*mat.Dense] {
	return state.NewParameter(l.gain.Name(), l.Gain())
}

// Copy returns an independent system.
func (l *Linear[S, V]) Copy() *Linear[S, V] {
	return newLinear[S, V](l.attractor.Value(), l.Gain())
}

// ComputeDynamics returns gain * (attractor - s).
func (l *Linear[S, V]) ComputeDynamics(s S) (V, error) {
	var zero V
	if l.attractor.Value().IsEmpty() {
		return zero, ErrEmptyAttractor
	}
	if s.IsEmpty() {
		return zero, fmt.Errorf("%w: input state", state.ErrEmptyState)
	}
	diff, err := l.attractor.Value().Difference(s)
	if err != nil {
		return zero, err
	}
	return diff.MulMatrix(l.gain.Value())
}
