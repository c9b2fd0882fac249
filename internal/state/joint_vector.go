package state

import (
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// jointVariable is the set of kind markers a JointVector can carry. The kind
// fixes at compile time which of the four joint quantities a vector holds.
type jointVariable interface {
	positionsKind | velocitiesKind | accelerationsKind | torquesKind
	variable() JointStateVariable
	stateType() StateType
}

type (
	positionsKind     struct{}
	velocitiesKind    struct{}
	accelerationsKind struct{}
	torquesKind       struct{}
)

func (positionsKind) variable() JointStateVariable     { return Positions }
func (velocitiesKind) variable() JointStateVariable    { return Velocities }
func (accelerationsKind) variable() JointStateVariable { return Accelerations }
func (torquesKind) variable() JointStateVariable       { return Torques }

func (positionsKind) stateType() StateType     { return JointPositionsType }
func (velocitiesKind) stateType() StateType    { return JointVelocitiesType }
func (accelerationsKind) stateType() StateType { return JointAccelerationsType }
func (torquesKind) stateType() StateType       { return JointTorquesType }

// JointVector holds a single joint quantity over named joints. Use the
// JointPositions, JointVelocities, JointAccelerations and JointTorques
// aliases; vectors of different kinds cannot be mixed.
type JointVector[K jointVariable] struct {
	State
	names []string
	data  []float64
}

type (
	JointPositions     = JointVector[positionsKind]
	JointVelocities    = JointVector[velocitiesKind]
	JointAccelerations = JointVector[accelerationsKind]
	JointTorques       = JointVector[torquesKind]
)

func kindOf[K jointVariable]() K {
	var k K
	return k
}

func newJointVector[K jointVariable](robot string, names []string, data []float64, empty bool) JointVector[K] {
	if data == nil {
		data = make([]float64, len(names))
	}
	return JointVector[K]{
		State: newState(kindOf[K]().stateType(), robot, empty),
		names: cloneSlice(names),
		data:  cloneSlice(data),
	}
}

func jointVectorWithData[K jointVariable](robot string, names []string, data []float64) (JointVector[K], error) {
	if names == nil {
		names = JointNames(len(data))
	}
	if len(names) != len(data) {
		return JointVector[K]{}, sizeError("%d names for %d values", len(names), len(data))
	}
	return newJointVector[K](robot, names, data, false), nil
}

func randomJointVector[K jointVariable](robot string, names []string) JointVector[K] {
	return newJointVector[K](robot, names, randomVector(len(names)), false)
}

func jointVectorFrom[K jointVariable](s JointState) JointVector[K] {
	return newJointVector[K](s.name, s.names, s.data[kindOf[K]().variable()], s.empty)
}

// NewJointPositions returns empty positions with default joint names.
func NewJointPositions(robot string, nbJoints int) JointPositions {
	return newJointVector[positionsKind](robot, JointNames(nbJoints), nil, true)
}

func NewJointPositionsWithNames(robot string, names []string) JointPositions {
	return newJointVector[positionsKind](robot, names, nil, true)
}

// JointPositionsFrom builds filled positions. Nil names default to
// joint0..joint{n-1}.
func JointPositionsFrom(robot string, names []string, positions []float64) (JointPositions, error) {
	return jointVectorWithData[positionsKind](robot, names, positions)
}

func ZeroJointPositions(robot string, names []string) JointPositions {
	return newJointVector[positionsKind](robot, names, nil, false)
}

func RandomJointPositions(robot string, names []string) JointPositions {
	return randomJointVector[positionsKind](robot, names)
}

// NewJointVelocities returns empty velocities with default joint names.
func NewJointVelocities(robot string, nbJoints int) JointVelocities {
	return newJointVector[velocitiesKind](robot, JointNames(nbJoints), nil, true)
}

func NewJointVelocitiesWithNames(robot string, names []string) JointVelocities {
	return newJointVector[velocitiesKind](robot, names, nil, true)
}

func JointVelocitiesFrom(robot string, names []string, velocities []float64) (JointVelocities, error) {
	return jointVectorWithData[velocitiesKind](robot, names, velocities)
}

func ZeroJointVelocities(robot string, names []string) JointVelocities {
	return newJointVector[velocitiesKind](robot, names, nil, false)
}

func RandomJointVelocities(robot string, names []string) JointVelocities {
	return randomJointVector[velocitiesKind](robot, names)
}

func NewJointAccelerations(robot string, nbJoints int) JointAccelerations {
	return newJointVector[accelerationsKind](robot, JointNames(nbJoints), nil, true)
}

func NewJointAccelerationsWithNames(robot string, names []string) JointAccelerations {
	return newJointVector[accelerationsKind](robot, names, nil, true)
}

func JointAccelerationsFrom(robot string, names []string, accelerations []float64) (JointAccelerations, error) {
	return jointVectorWithData[accelerationsKind](robot, names, accelerations)
}

func ZeroJointAccelerations(robot string, names []string) JointAccelerations {
	return newJointVector[accelerationsKind](robot, names, nil, false)
}

func RandomJointAccelerations(robot string, names []string) JointAccelerations {
	return randomJointVector[accelerationsKind](robot, names)
}

func NewJointTorques(robot string, nbJoints int) JointTorques {
	return newJointVector[torquesKind](robot, JointNames(nbJoints), nil, true)
}

func NewJointTorquesWithNames(robot string, names []string) JointTorques {
	return newJointVector[torquesKind](robot, names, nil, true)
}

func JointTorquesFrom(robot string, names []string, torques []float64) (JointTorques, error) {
	return jointVectorWithData[torquesKind](robot, names, torques)
}

func ZeroJointTorques(robot string, names []string) JointTorques {
	return newJointVector[torquesKind](robot, names, nil, false)
}

func RandomJointTorques(robot string, names []string) JointTorques {
	return randomJointVector[torquesKind](robot, names)
}

func (v JointVector[K]) Size() int       { return len(v.names) }
func (v JointVector[K]) Dimension() int  { return len(v.names) }
func (v JointVector[K]) Names() []string { return cloneSlice(v.names) }
func (v JointVector[K]) Data() []float64 { return cloneSlice(v.data) }

// Variable reports which joint quantity the vector holds.
func (v JointVector[K]) Variable() JointStateVariable { return kindOf[K]().variable() }

func (v JointVector[K]) Copy() JointVector[K] {
	c := v
	c.names = cloneSlice(v.names)
	c.data = cloneSlice(v.data)
	return c
}

// SetData overwrites the values and marks the vector as filled.
func (v *JointVector[K]) SetData(values []float64) error {
	if len(values) != len(v.names) {
		return sizeError("got %d values for %d joints", len(values), len(v.names))
	}
	v.data = cloneSlice(values)
	v.setFilled()
	return nil
}

func (v JointVector[K]) IsCompatible(other JointVector[K]) bool {
	return v.name == other.name && sameNames(v.names, other.names)
}

func (v JointVector[K]) checkOperand(other JointVector[K]) error {
	if err := v.requireData(); err != nil {
		return err
	}
	if err := other.requireData(); err != nil {
		return err
	}
	if !v.IsCompatible(other) {
		return incompatibleError("%s%v and %s%v", v.name, v.names, other.name, other.names)
	}
	return nil
}

// withData returns a filled copy of v carrying values.
func (v JointVector[K]) withData(values []float64) JointVector[K] {
	out := v.Copy()
	out.data = values
	out.setFilled()
	return out
}

func (v JointVector[K]) Add(other JointVector[K]) (JointVector[K], error) {
	if err := v.checkOperand(other); err != nil {
		return JointVector[K]{}, err
	}
	return v.withData(addVectors(v.data, other.data)), nil
}

func (v JointVector[K]) Sub(other JointVector[K]) (JointVector[K], error) {
	if err := v.checkOperand(other); err != nil {
		return JointVector[K]{}, err
	}
	return v.withData(subVectors(v.data, other.data)), nil
}

func (v JointVector[K]) Scale(lambda float64) (JointVector[K], error) {
	if err := v.requireData(); err != nil {
		return JointVector[K]{}, err
	}
	return v.withData(scaleVector(lambda, v.data)), nil
}

func (v JointVector[K]) Div(lambda float64) (JointVector[K], error) {
	return v.Scale(1 / lambda)
}

// ScaleArray multiplies every joint by its own gain.
func (v JointVector[K]) ScaleArray(lambda []float64) (JointVector[K], error) {
	if err := v.requireData(); err != nil {
		return JointVector[K]{}, err
	}
	if len(lambda) != len(v.data) {
		return JointVector[K]{}, sizeError("gain array has %d entries, expected %d", len(lambda), len(v.data))
	}
	return v.withData(mulVectors(v.data, lambda)), nil
}

// MulMatrix returns m*v for an NxN matrix.
func (v JointVector[K]) MulMatrix(m mat.Matrix) (JointVector[K], error) {
	if err := v.requireData(); err != nil {
		return JointVector[K]{}, err
	}
	values, err := mulSquare(m, v.data)
	if err != nil {
		return JointVector[K]{}, err
	}
	return v.withData(values), nil
}

// Dist is the Euclidean distance between two compatible vectors.
func (v JointVector[K]) Dist(other JointVector[K]) (float64, error) {
	if err := v.checkOperand(other); err != nil {
		return 0, err
	}
	return floats.Distance(v.data, other.data, 2), nil
}

func (v JointVector[K]) Norm() float64 {
	if len(v.data) == 0 {
		return 0
	}
	return floats.Norm(v.data, 2)
}

// Clamp limits every entry to maxAbs in magnitude and zeroes the entries
// under noiseRatio*maxAbs.
func (v *JointVector[K]) Clamp(maxAbs, noiseRatio float64) error {
	n := len(v.names)
	return v.ClampArray(filled(n, maxAbs), filled(n, noiseRatio))
}

func (v *JointVector[K]) ClampArray(maxAbs, noiseRatios []float64) error {
	if err := v.requireData(); err != nil {
		return err
	}
	n := len(v.names)
	if len(maxAbs) != n || len(noiseRatios) != n {
		return sizeError("clamp arrays have %d and %d entries, expected %d", len(maxAbs), len(noiseRatios), n)
	}
	v.data = cloneSlice(v.data)
	clampVector(v.data, maxAbs, noiseRatios)
	return nil
}

// Clamped is the non-mutating form of Clamp.
func (v JointVector[K]) Clamped(maxAbs, noiseRatio float64) (JointVector[K], error) {
	out := v.Copy()
	if err := out.Clamp(maxAbs, noiseRatio); err != nil {
		return JointVector[K]{}, err
	}
	return out, nil
}

func (v JointVector[K]) ClampedArray(maxAbs, noiseRatios []float64) (JointVector[K], error) {
	out := v.Copy()
	if err := out.ClampArray(maxAbs, noiseRatios); err != nil {
		return JointVector[K]{}, err
	}
	return out, nil
}

// ToJointState returns a joint state holding this quantity and zeros for the
// other three.
func (v JointVector[K]) ToJointState() JointState {
	js := newJointState(JointStateType, v.name, v.names, v.empty)
	js.data[v.Variable()] = cloneSlice(v.data)
	return js
}

// Difference returns the velocity that moves other onto v in one second. It
// is meant for positions.
func (v JointVector[K]) Difference(other JointVector[K]) (JointVelocities, error) {
	d, err := v.Sub(other)
	if err != nil {
		return JointVelocities{}, err
	}
	return retype[velocitiesKind](d), nil
}

func (v JointVector[K]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", v.stateType, v.name)
	if v.empty {
		b.WriteString(" (empty)")
		return b.String()
	}
	fmt.Fprintf(&b, "\nnames: %v\n%s: %s", v.names, v.Variable(), formatVector(v.data))
	return b.String()
}

// retype reinterprets the values of one kind as another kind.
func retype[To, From jointVariable](v JointVector[From]) JointVector[To] {
	return JointVector[To]{
		State: newState(kindOf[To]().stateType(), v.name, v.empty),
		names: cloneSlice(v.names),
		data:  cloneSlice(v.data),
	}
}

func retimed[To, From jointVariable](v JointVector[From], factor float64) JointVector[To] {
	out := retype[To](v)
	floats.Scale(factor, out.data)
	return out
}

// VelocitiesFromPositions reinterprets positions as the velocities reaching
// them in one second.
func VelocitiesFromPositions(p JointPositions) JointVelocities {
	return retype[velocitiesKind](p)
}

// PositionsFromVelocities reinterprets velocities as the displacement covered
// in one second.
func PositionsFromVelocities(v JointVelocities) JointPositions {
	return retype[positionsKind](v)
}

func AccelerationsFromVelocities(v JointVelocities) JointAccelerations {
	return retype[accelerationsKind](v)
}

func VelocitiesFromAccelerations(a JointAccelerations) JointVelocities {
	return retype[velocitiesKind](a)
}

// IntegrateVelocities returns the displacement covered at v during dt.
func IntegrateVelocities(v JointVelocities, dt time.Duration) JointPositions {
	return retimed[positionsKind](v, dt.Seconds())
}

// IntegrateAccelerations returns the velocity change produced by a during dt.
func IntegrateAccelerations(a JointAccelerations, dt time.Duration) JointVelocities {
	return retimed[velocitiesKind](a, dt.Seconds())
}

// DifferentiatePositions returns the velocity that covers p in dt.
func DifferentiatePositions(p JointPositions, dt time.Duration) (JointVelocities, error) {
	if dt <= 0 {
		return JointVelocities{}, fmt.Errorf("state: non-positive duration %s", dt)
	}
	return retimed[velocitiesKind](p, 1/dt.Seconds()), nil
}

// DifferentiateVelocities returns the acceleration that produces v in dt.
func DifferentiateVelocities(v JointVelocities, dt time.Duration) (JointAccelerations, error) {
	if dt <= 0 {
		return JointAccelerations{}, fmt.Errorf("state: non-positive duration %s", dt)
	}
	return retimed[accelerationsKind](v, 1/dt.Seconds()), nil
}
