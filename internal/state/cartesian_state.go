package state

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// CartesianState is the full state of a frame: pose, twist, acceleration and
// wrench, all expressed in the same reference frame.
type CartesianState struct {
	cartesianBase
	position            r3.Vector
	orientation         quat.Number
	linearVelocity      r3.Vector
	angularVelocity     r3.Vector
	linearAcceleration  r3.Vector
	angularAcceleration r3.Vector
	force               r3.Vector
	torque              r3.Vector
}

// NewCartesianState returns an empty state with identity orientation.
func NewCartesianState(name, referenceFrame string) CartesianState {
	return CartesianState{
		cartesianBase: newCartesianBase(CartesianStateType, name, referenceFrame, true),
		orientation:   identityQuat,
	}
}

// IdentityCartesianState returns a filled state at the origin, at rest and
// without load.
func IdentityCartesianState(name, referenceFrame string) CartesianState {
	s := NewCartesianState(name, referenceFrame)
	s.setFilled()
	return s
}

func RandomCartesianState(name, referenceFrame string) CartesianState {
	s := IdentityCartesianState(name, referenceFrame)
	s.position, s.orientation = randomR3(), randomQuat()
	s.linearVelocity, s.angularVelocity = randomR3(), randomR3()
	s.linearAcceleration, s.angularAcceleration = randomR3(), randomR3()
	s.force, s.torque = randomR3(), randomR3()
	return s
}

func (s CartesianState) Position() r3.Vector            { return s.position }
func (s CartesianState) Orientation() quat.Number       { return s.orientation }
func (s CartesianState) LinearVelocity() r3.Vector      { return s.linearVelocity }
func (s CartesianState) AngularVelocity() r3.Vector     { return s.angularVelocity }
func (s CartesianState) LinearAcceleration() r3.Vector  { return s.linearAcceleration }
func (s CartesianState) AngularAcceleration() r3.Vector { return s.angularAcceleration }
func (s CartesianState) Force() r3.Vector               { return s.force }
func (s CartesianState) Torque() r3.Vector              { return s.torque }

func (s CartesianState) Copy() CartesianState { return s }

func (s CartesianState) IsCompatible(other CartesianState) bool {
	return s.compatible(other.cartesianBase)
}

func (s CartesianState) Pose() CartesianPose {
	p := NewCartesianPose(s.name, s.referenceFrame)
	p.position, p.orientation, p.empty = s.position, s.orientation, s.empty
	return p
}

func (s CartesianState) Twist() CartesianTwist {
	t := newSpatial[twistKind](s.name, s.referenceFrame, s.empty)
	t.linear, t.angular = s.linearVelocity, s.angularVelocity
	return t
}

func (s CartesianState) Acceleration() CartesianAcceleration {
	a := newSpatial[accelerationKind](s.name, s.referenceFrame, s.empty)
	a.linear, a.angular = s.linearAcceleration, s.angularAcceleration
	return a
}

func (s CartesianState) Wrench() CartesianWrench {
	w := newSpatial[wrenchKind](s.name, s.referenceFrame, s.empty)
	w.linear, w.angular = s.force, s.torque
	return w
}

// SetPose copies the position and orientation of p. The frames of p are
// ignored.
func (s *CartesianState) SetPose(p CartesianPose) {
	s.position, s.orientation = p.position, p.orientation
	s.setFilled()
}

func (s *CartesianState) SetTwist(t CartesianTwist) {
	s.linearVelocity, s.angularVelocity = t.linear, t.angular
	s.setFilled()
}

func (s *CartesianState) SetAcceleration(a CartesianAcceleration) {
	s.linearAcceleration, s.angularAcceleration = a.linear, a.angular
	s.setFilled()
}

func (s *CartesianState) SetWrench(w CartesianWrench) {
	s.force, s.torque = w.linear, w.angular
	s.setFilled()
}

// Data concatenates the pose (7), twist (6), acceleration (6) and wrench (6).
func (s CartesianState) Data() []float64 {
	out := s.Pose().Data()
	for _, v := range []r3.Vector{
		s.linearVelocity, s.angularVelocity,
		s.linearAcceleration, s.angularAcceleration,
		s.force, s.torque,
	} {
		out = append(out, r3Slice(v)...)
	}
	return out
}

// Dist returns the distance between two states on the selected variable.
// Orientations are compared by rotation angle. Grouped variables sum their
// components.
func (s CartesianState) Dist(other CartesianState, v CartesianStateVariable) (float64, error) {
	if err := s.checkOperand(other.cartesianBase); err != nil {
		return 0, err
	}
	switch v {
	case CartesianPosition:
		return s.position.Distance(other.position), nil
	case CartesianOrientation:
		return orientationDistance(s.orientation, other.orientation), nil
	case CartesianLinearVelocity:
		return s.linearVelocity.Distance(other.linearVelocity), nil
	case CartesianAngularVelocity:
		return s.angularVelocity.Distance(other.angularVelocity), nil
	case CartesianLinearAcceleration:
		return s.linearAcceleration.Distance(other.linearAcceleration), nil
	case CartesianAngularAcceleration:
		return s.angularAcceleration.Distance(other.angularAcceleration), nil
	case CartesianForce:
		return s.force.Distance(other.force), nil
	case CartesianTorque:
		return s.torque.Distance(other.torque), nil
	}
	parts, ok := cartesianGroups[v]
	if !ok {
		return 0, fmt.Errorf("state: invalid cartesian state variable %d", int(v))
	}
	total := 0.0
	for _, part := range parts {
		d, err := s.Dist(other, part)
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

var cartesianGroups = map[CartesianStateVariable][]CartesianStateVariable{
	CartesianPoseVariables:         {CartesianPosition, CartesianOrientation},
	CartesianTwistVariables:        {CartesianLinearVelocity, CartesianAngularVelocity},
	CartesianAccelerationVariables: {CartesianLinearAcceleration, CartesianAngularAcceleration},
	CartesianWrenchVariables:       {CartesianForce, CartesianTorque},
	AllCartesianVariables: {
		CartesianPosition, CartesianOrientation,
		CartesianLinearVelocity, CartesianAngularVelocity,
		CartesianLinearAcceleration, CartesianAngularAcceleration,
		CartesianForce, CartesianTorque,
	},
}

func (s CartesianState) String() string {
	if s.empty {
		return s.header() + " (empty)"
	}
	var b strings.Builder
	b.WriteString(s.header())
	q := s.orientation
	fmt.Fprintf(&b, "\nposition: %s\norientation: [%.4f, %.4f, %.4f, %.4f]",
		formatR3(s.position), q.Real, q.Imag, q.Jmag, q.Kmag)
	for _, row := range []struct {
		label string
		v     r3.Vector
	}{
		{"linear velocity", s.linearVelocity},
		{"angular velocity", s.angularVelocity},
		{"linear acceleration", s.linearAcceleration},
		{"angular acceleration", s.angularAcceleration},
		{"force", s.force},
		{"torque", s.torque},
	} {
		fmt.Fprintf(&b, "\n%s: %s", row.label, formatR3(row.v))
	}
	return b.String()
}
