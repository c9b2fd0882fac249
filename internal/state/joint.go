package state

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// JointStateVariable selects one of the vectors of a joint state.
type JointStateVariable int

const (
	Positions JointStateVariable = iota
	Velocities
	Accelerations
	Torques
	AllJointVariables
)

var jointVariableNames = []string{"positions", "velocities", "accelerations", "torques", "all"}

func (v JointStateVariable) String() string {
	if v < 0 || int(v) >= len(jointVariableNames) {
		return fmt.Sprintf("JointStateVariable(%d)", int(v))
	}
	return jointVariableNames[v]
}

// ParseJointStateVariable maps a lowercase name to its variable.
func ParseJointStateVariable(name string) (JointStateVariable, error) {
	for i, n := range jointVariableNames {
		if n == strings.ToLower(name) {
			return JointStateVariable(i), nil
		}
	}
	return 0, fmt.Errorf("state: unknown joint state variable %q", name)
}

var jointVariables = []JointStateVariable{Positions, Velocities, Accelerations, Torques}

// JointState is the full state of a robot in joint space. All four vectors
// have one entry per joint, in the order of the joint names.
type JointState struct {
	State
	names []string
	data  [4][]float64
}

func newJointState(t StateType, robot string, names []string, empty bool) JointState {
	js := JointState{State: newState(t, robot, empty), names: cloneSlice(names)}
	for i := range js.data {
		js.data[i] = make([]float64, len(names))
	}
	return js
}

// NewJointState returns an empty state with default joint names.
func NewJointState(robot string, nbJoints int) JointState {
	return newJointState(JointStateType, robot, JointNames(nbJoints), true)
}

// NewJointStateWithNames returns an empty state over the given joints.
func NewJointStateWithNames(robot string, names []string) JointState {
	return newJointState(JointStateType, robot, names, true)
}

// ZeroJointState returns a state with every variable set to zero.
func ZeroJointState(robot string, names []string) JointState {
	return newJointState(JointStateType, robot, names, false)
}

// RandomJointState returns a state with every variable sampled in [-1, 1].
func RandomJointState(robot string, names []string) JointState {
	js := newJointState(JointStateType, robot, names, false)
	for i := range js.data {
		js.data[i] = randomVector(len(names))
	}
	return js
}

func (s JointState) Size() int        { return len(s.names) }
func (s JointState) Names() []string  { return cloneSlice(s.names) }
func (s JointState) Dimension() int   { return len(s.names) }
func (s JointState) Copy() JointState { return s.clone() }

// SetNames renames the joints. The number of names must not change.
func (s *JointState) SetNames(names []string) error {
	if len(names) != len(s.names) {
		return sizeError("got %d names for %d joints", len(names), len(s.names))
	}
	s.names = cloneSlice(names)
	return nil
}

func (s JointState) clone() JointState {
	c := s
	c.names = cloneSlice(s.names)
	for i := range s.data {
		c.data[i] = cloneSlice(s.data[i])
	}
	return c
}

// Variable returns a copy of the selected vector.
func (s JointState) Variable(v JointStateVariable) ([]float64, error) {
	if v == AllJointVariables {
		return s.Data(), nil
	}
	if v < Positions || v > Torques {
		return nil, fmt.Errorf("state: invalid joint state variable %d", int(v))
	}
	return cloneSlice(s.data[v]), nil
}

// SetVariable overwrites the selected vector and marks the state as filled.
func (s *JointState) SetVariable(v JointStateVariable, values []float64) error {
	if v == AllJointVariables {
		return s.FromSlice(values)
	}
	if v < Positions || v > Torques {
		return fmt.Errorf("state: invalid joint state variable %d", int(v))
	}
	if len(values) != len(s.names) {
		return sizeError("%s has %d entries, expected %d", v, len(values), len(s.names))
	}
	s.data[v] = cloneSlice(values)
	s.setFilled()
	return nil
}

func (s JointState) GetPositions() []float64     { return cloneSlice(s.data[Positions]) }
func (s JointState) GetVelocities() []float64    { return cloneSlice(s.data[Velocities]) }
func (s JointState) GetAccelerations() []float64 { return cloneSlice(s.data[Accelerations]) }
func (s JointState) GetTorques() []float64       { return cloneSlice(s.data[Torques]) }

func (s *JointState) SetPositions(v []float64) error     { return s.SetVariable(Positions, v) }
func (s *JointState) SetVelocities(v []float64) error    { return s.SetVariable(Velocities, v) }
func (s *JointState) SetAccelerations(v []float64) error { return s.SetVariable(Accelerations, v) }
func (s *JointState) SetTorques(v []float64) error       { return s.SetVariable(Torques, v) }

// SetZero sets every variable to zero and marks the state as filled.
func (s *JointState) SetZero() {
	for i := range s.data {
		s.data[i] = make([]float64, len(s.names))
	}
	s.setFilled()
}

// Data concatenates positions, velocities, accelerations and torques.
func (s JointState) Data() []float64 {
	out := make([]float64, 0, 4*len(s.names))
	for _, v := range s.data {
		out = append(out, v...)
	}
	return out
}

// ToSlice is an alias of Data kept for symmetry with FromSlice.
func (s JointState) ToSlice() []float64 { return s.Data() }

// FromSlice sets all variables from the concatenation returned by Data.
func (s *JointState) FromSlice(values []float64) error {
	n := len(s.names)
	if len(values) != 4*n {
		return sizeError("got %d values, expected %d", len(values), 4*n)
	}
	for i := range s.data {
		s.data[i] = cloneSlice(values[i*n : (i+1)*n])
	}
	s.setFilled()
	return nil
}

// IsCompatible reports whether both states describe the same joints of the
// same robot.
func (s JointState) IsCompatible(other JointState) bool {
	return s.name == other.name && sameNames(s.names, other.names)
}

func (s JointState) checkOperand(other JointState) error {
	if err := s.requireData(); err != nil {
		return err
	}
	if err := other.requireData(); err != nil {
		return err
	}
	if !s.IsCompatible(other) {
		return incompatibleError("%s%v and %s%v", s.name, s.names, other.name, other.names)
	}
	return nil
}

func (s JointState) Add(other JointState) (JointState, error) {
	if err := s.checkOperand(other); err != nil {
		return JointState{}, err
	}
	out := s.clone()
	for i := range out.data {
		out.data[i] = addVectors(s.data[i], other.data[i])
	}
	return out, nil
}

func (s JointState) Sub(other JointState) (JointState, error) {
	if err := s.checkOperand(other); err != nil {
		return JointState{}, err
	}
	out := s.clone()
	for i := range out.data {
		out.data[i] = subVectors(s.data[i], other.data[i])
	}
	return out, nil
}

func (s JointState) Scale(lambda float64) (JointState, error) {
	if err := s.requireData(); err != nil {
		return JointState{}, err
	}
	out := s.clone()
	for i := range out.data {
		out.data[i] = scaleVector(lambda, s.data[i])
	}
	return out, nil
}

func (s JointState) Div(lambda float64) (JointState, error) {
	return s.Scale(1 / lambda)
}

// ScaleArray multiplies elementwise. A gain array of one entry per joint is
// applied to every variable; an array of 4N entries is applied to Data.
func (s JointState) ScaleArray(lambda []float64) (JointState, error) {
	if err := s.requireData(); err != nil {
		return JointState{}, err
	}
	n := len(s.names)
	out := s.clone()
	switch len(lambda) {
	case n:
		for i := range out.data {
			out.data[i] = mulVectors(s.data[i], lambda)
		}
	case 4 * n:
		if err := out.FromSlice(mulVectors(s.Data(), lambda)); err != nil {
			return JointState{}, err
		}
	default:
		return JointState{}, sizeError("gain array has %d entries, expected %d or %d", len(lambda), n, 4*n)
	}
	return out, nil
}

// MulMatrix applies an NxN matrix to every variable or a 4Nx4N matrix to Data.
func (s JointState) MulMatrix(m mat.Matrix) (JointState, error) {
	if err := s.requireData(); err != nil {
		return JointState{}, err
	}
	n := len(s.names)
	out := s.clone()
	if r, _ := m.Dims(); r == 4*n && n > 0 {
		values, err := mulSquare(m, s.Data())
		if err != nil {
			return JointState{}, err
		}
		if err := out.FromSlice(values); err != nil {
			return JointState{}, err
		}
		return out, nil
	}
	for i := range out.data {
		v, err := mulSquare(m, s.data[i])
		if err != nil {
			return JointState{}, err
		}
		out.data[i] = v
	}
	return out, nil
}

// Dist returns the Euclidean distance of the selected variable, or the sum of
// the four distances for AllJointVariables.
func (s JointState) Dist(other JointState, v JointStateVariable) (float64, error) {
	if err := s.checkOperand(other); err != nil {
		return 0, err
	}
	if v == AllJointVariables {
		total := 0.0
		for _, jv := range jointVariables {
			total += floats.Distance(s.data[jv], other.data[jv], 2)
		}
		return total, nil
	}
	if v < Positions || v > Torques {
		return 0, fmt.Errorf("state: invalid joint state variable %d", int(v))
	}
	return floats.Distance(s.data[v], other.data[v], 2), nil
}

// Dist is the free-function form of JointState.Dist.
func Dist(a, b JointState, v JointStateVariable) (float64, error) {
	return a.Dist(b, v)
}

// ClampStateVariable limits the magnitude of the selected variable in place.
// Entries under noiseRatio*maxAbs are zeroed.
func (s *JointState) ClampStateVariable(maxAbs float64, v JointStateVariable, noiseRatio float64) error {
	n := len(s.names)
	return s.ClampStateVariableArray(filled(n, maxAbs), v, filled(n, noiseRatio))
}

// ClampStateVariableArray is ClampStateVariable with per-joint bounds and
// dead-zone ratios.
func (s *JointState) ClampStateVariableArray(maxAbs []float64, v JointStateVariable, noiseRatios []float64) error {
	if err := s.requireData(); err != nil {
		return err
	}
	n := len(s.names)
	if len(maxAbs) != n || len(noiseRatios) != n {
		return sizeError("clamp arrays have %d and %d entries, expected %d", len(maxAbs), len(noiseRatios), n)
	}
	targets := []JointStateVariable{v}
	if v == AllJointVariables {
		targets = jointVariables
	} else if v < Positions || v > Torques {
		return fmt.Errorf("state: invalid joint state variable %d", int(v))
	}
	for _, t := range targets {
		s.data[t] = cloneSlice(s.data[t])
		clampVector(s.data[t], maxAbs, noiseRatios)
	}
	return nil
}

func (s JointState) Positions() JointPositions {
	return jointVectorFrom[positionsKind](s)
}

func (s JointState) Velocities() JointVelocities {
	return jointVectorFrom[velocitiesKind](s)
}

func (s JointState) Accelerations() JointAccelerations {
	return jointVectorFrom[accelerationsKind](s)
}

func (s JointState) Torques() JointTorques {
	return jointVectorFrom[torquesKind](s)
}

func (s JointState) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", s.stateType, s.name)
	if s.empty {
		b.WriteString(" (empty)")
		return b.String()
	}
	fmt.Fprintf(&b, "\nnames: %v", s.names)
	for _, v := range jointVariables {
		fmt.Fprintf(&b, "\n%s: %s", v, formatVector(s.data[v]))
	}
	return b.String()
}
