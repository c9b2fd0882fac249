package robot

import (
	"fmt"
	"math"
	"slices"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/san-kum/ctrlib/internal/state"
)

// Model is a planar serial chain. Joint i rotates about z and is followed by
// a link of length linkLengths[i] ending in frame frames[i].
type Model struct {
	name        string
	jointNames  []string
	linkLengths []float64
	frames      []string
	baseFrame   string
}

// NewPlanar builds a chain with one link per joint. The frame at the end of
// the last link is named endEffector, the others link_1, link_2 and so on.
// An empty baseFrame defaults to the world frame.
func NewPlanar(name string, jointNames []string, linkLengths []float64, baseFrame, endEffector string) (*Model, error) {
	if len(jointNames) == 0 {
		return nil, fmt.Errorf("%w: no joints", ErrInvalidModel)
	}
	if len(jointNames) != len(linkLengths) {
		return nil, fmt.Errorf("%w: %d joints for %d links", ErrInvalidModel, len(jointNames), len(linkLengths))
	}
	for i, l := range linkLengths {
		if l <= 0 || math.IsNaN(l) || math.IsInf(l, 0) {
			return nil, fmt.Errorf("%w: link %d has length %g", ErrInvalidModel, i+1, l)
		}
	}
	if baseFrame == "" {
		baseFrame = state.WorldFrame
	}
	if endEffector == "" {
		endEffector = "ee"
	}
	frames := make([]string, len(jointNames))
	for i := range frames {
		frames[i] = fmt.Sprintf("link_%d", i+1)
	}
	frames[len(frames)-1] = endEffector
	if slices.Contains(frames[:len(frames)-1], endEffector) || endEffector == baseFrame {
		return nil, fmt.Errorf("%w: end effector name %q is already used", ErrInvalidModel, endEffector)
	}
	return &Model{
		name:        name,
		jointNames:  slices.Clone(jointNames),
		linkLengths: slices.Clone(linkLengths),
		frames:      frames,
		baseFrame:   baseFrame,
	}, nil
}

func (m *Model) Name() string           { return m.name }
func (m *Model) JointNames() []string   { return slices.Clone(m.jointNames) }
func (m *Model) NbJoints() int          { return len(m.jointNames) }
func (m *Model) LinkLengths() []float64 { return slices.Clone(m.linkLengths) }
func (m *Model) Frames() []string       { return slices.Clone(m.frames) }
func (m *Model) BaseFrame() string      { return m.baseFrame }
func (m *Model) EndEffector() string    { return m.frames[len(m.frames)-1] }

// Reach is the distance from the base to the end effector when the chain is
// fully stretched.
func (m *Model) Reach() float64 {
	sum := 0.0
	for _, l := range m.linkLengths {
		sum += l
	}
	return sum
}

func (m *Model) frameIndex(frame string) (int, error) {
	if frame == "" {
		return len(m.frames) - 1, nil
	}
	if i := slices.Index(m.frames, frame); i >= 0 {
		return i, nil
	}
	return 0, &FrameNotFoundError{Frame: frame}
}

func (m *Model) checkJoints(robot string, names []string) error {
	if robot != m.name || !slices.Equal(names, m.jointNames) {
		return fmt.Errorf("%w: joints %s%v do not belong to %s%v",
			state.ErrIncompatibleStates, robot, names, m.name, m.jointNames)
	}
	return nil
}

func (m *Model) checkPositions(q state.JointPositions) error {
	if q.IsEmpty() {
		return fmt.Errorf("%w: %s positions", state.ErrEmptyState, q.Name())
	}
	return m.checkJoints(q.Name(), q.Names())
}

// chain returns the origin of every joint followed by the end of the last
// link, and the absolute angle of every link.
func (m *Model) chain(q []float64) ([]r3.Vector, []float64) {
	points := make([]r3.Vector, len(q)+1)
	angles := make([]float64, len(q))
	theta := 0.0
	for i, qi := range q {
		theta += qi
		angles[i] = theta
		points[i+1] = points[i].Add(r3.Vector{X: math.Cos(theta), Y: math.Sin(theta)}.Mul(m.linkLengths[i]))
	}
	return points, angles
}

func yaw(theta float64) quat.Number {
	return quat.Number{Real: math.Cos(theta / 2), Kmag: math.Sin(theta / 2)}
}

// ForwardGeometry returns the pose of frame in the base frame. An empty frame
// selects the end effector.
func (m *Model) ForwardGeometry(q state.JointPositions, frame string) (state.CartesianPose, error) {
	k, err := m.frameIndex(frame)
	if err != nil {
		return state.CartesianPose{}, err
	}
	if err := m.checkPositions(q); err != nil {
		return state.CartesianPose{}, err
	}
	points, angles := m.chain(q.Data())
	return state.CartesianPoseFrom(m.frames[k], points[k+1], yaw(angles[k]), m.baseFrame)
}

// ComputeJacobian returns the geometric Jacobian of frame in the base frame.
// Joints after the frame have zero columns.
func (m *Model) ComputeJacobian(q state.JointPositions, frame string) (state.Jacobian, error) {
	k, err := m.frameIndex(frame)
	if err != nil {
		return state.Jacobian{}, err
	}
	if err := m.checkPositions(q); err != nil {
		return state.Jacobian{}, err
	}
	points, _ := m.chain(q.Data())
	data := mat.NewDense(6, len(m.jointNames), nil)
	for i := 0; i <= k; i++ {
		d := points[k+1].Sub(points[i])
		// z x d
		data.Set(0, i, -d.Y)
		data.Set(1, i, d.X)
		data.Set(5, i, 1)
	}
	jac := state.NewJacobianWithNames(m.name, m.jointNames, m.frames[k], m.baseFrame)
	if err := jac.SetData(data); err != nil {
		return state.Jacobian{}, err
	}
	return jac, nil
}

// ForwardVelocity returns the twist of frame produced by the joint state.
func (m *Model) ForwardVelocity(js state.JointState, frame string) (state.CartesianTwist, error) {
	jac, err := m.ComputeJacobian(js.Positions(), frame)
	if err != nil {
		return state.CartesianTwist{}, err
	}
	return jac.MulJointVelocities(js.Velocities())
}

// ForwardKinematics returns the pose and twist of frame as a Cartesian state.
func (m *Model) ForwardKinematics(js state.JointState, frame string) (state.CartesianState, error) {
	pose, err := m.ForwardGeometry(js.Positions(), frame)
	if err != nil {
		return state.CartesianState{}, err
	}
	twist, err := m.ForwardVelocity(js, frame)
	if err != nil {
		return state.CartesianState{}, err
	}
	cs := pose.ToCartesianState()
	cs.SetTwist(twist)
	return cs, nil
}
