package state

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// WorldFrame is the reference frame used when none is given.
const WorldFrame = "world"

// CartesianStateVariable selects one component of a Cartesian state.
type CartesianStateVariable int

const (
	CartesianPosition CartesianStateVariable = iota
	CartesianOrientation
	CartesianPoseVariables
	CartesianLinearVelocity
	CartesianAngularVelocity
	CartesianTwistVariables
	CartesianLinearAcceleration
	CartesianAngularAcceleration
	CartesianAccelerationVariables
	CartesianForce
	CartesianTorque
	CartesianWrenchVariables
	AllCartesianVariables
)

var cartesianVariableNames = []string{
	"position", "orientation", "pose",
	"linear_velocity", "angular_velocity", "twist",
	"linear_acceleration", "angular_acceleration", "acceleration",
	"force", "torque", "wrench",
	"all",
}

func (v CartesianStateVariable) String() string {
	if v < 0 || int(v) >= len(cartesianVariableNames) {
		return fmt.Sprintf("CartesianStateVariable(%d)", int(v))
	}
	return cartesianVariableNames[v]
}

// ParseCartesianStateVariable maps a lowercase name to its variable.
func ParseCartesianStateVariable(name string) (CartesianStateVariable, error) {
	for i, n := range cartesianVariableNames {
		if n == strings.ToLower(name) {
			return CartesianStateVariable(i), nil
		}
	}
	return 0, fmt.Errorf("state: unknown cartesian state variable %q", name)
}

// cartesianBase carries the frame metadata shared by every Cartesian state.
type cartesianBase struct {
	State
	referenceFrame string
}

func newCartesianBase(t StateType, name, referenceFrame string, empty bool) cartesianBase {
	if referenceFrame == "" {
		referenceFrame = WorldFrame
	}
	return cartesianBase{State: newState(t, name, empty), referenceFrame: referenceFrame}
}

func (c cartesianBase) ReferenceFrame() string { return c.referenceFrame }

func (c *cartesianBase) SetReferenceFrame(frame string) { c.referenceFrame = frame }

// compatible reports whether both states are expressed in the same frame.
func (c cartesianBase) compatible(other cartesianBase) bool {
	return c.referenceFrame == other.referenceFrame
}

func (c cartesianBase) checkOperand(other cartesianBase) error {
	if err := c.requireData(); err != nil {
		return err
	}
	if err := other.requireData(); err != nil {
		return err
	}
	if !c.compatible(other) {
		return incompatibleError("%s in %s and %s in %s", c.name, c.referenceFrame, other.name, other.referenceFrame)
	}
	return nil
}

func (c cartesianBase) header() string {
	return fmt.Sprintf("%s: %s expressed in %s", c.stateType, c.name, c.referenceFrame)
}

var identityQuat = quat.Number{Real: 1}

func normalizeQuat(q quat.Number) (quat.Number, error) {
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) {
		return quat.Number{}, fmt.Errorf("state: orientation %v has no valid norm", q)
	}
	return quat.Scale(1/n, q), nil
}

// rotate applies the unit quaternion q to v.
func rotate(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// rotationMatrix returns the 3x3 rotation matrix of the unit quaternion q.
func rotationMatrix(q quat.Number) *mat.Dense {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	})
}

// orientationDistance is the rotation angle between two unit quaternions.
func orientationDistance(a, b quat.Number) float64 {
	inner := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	return math.Acos(math.Max(-1, math.Min(1, 2*inner*inner-1)))
}

// rotationVector returns the axis-angle vector of the rotation from b to a,
// taking the shortest path.
func rotationVector(a, b quat.Number) r3.Vector {
	q := quat.Mul(a, quat.Conj(b))
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	l := quat.Log(q)
	return r3.Vector{X: 2 * l.Imag, Y: 2 * l.Jmag, Z: 2 * l.Kmag}
}

func randomR3() r3.Vector {
	return r3.Vector{X: 2*rand.Float64() - 1, Y: 2*rand.Float64() - 1, Z: 2*rand.Float64() - 1}
}

func randomQuat() quat.Number {
	for {
		q := quat.Number{Real: rand.NormFloat64(), Imag: rand.NormFloat64(), Jmag: rand.NormFloat64(), Kmag: rand.NormFloat64()}
		if n, err := normalizeQuat(q); err == nil {
			return n
		}
	}
}

func r3Slice(v r3.Vector) []float64 { return []float64{v.X, v.Y, v.Z} }

func r3From(v []float64) r3.Vector { return r3.Vector{X: v[0], Y: v[1], Z: v[2]} }

func formatR3(v r3.Vector) string { return formatVector(r3Slice(v)) }

// CartesianPose is the position and orientation of a frame in its reference
// frame.
type CartesianPose struct {
	cartesianBase
	position    r3.Vector
	orientation quat.Number
}

// NewCartesianPose returns an empty pose with identity orientation.
func NewCartesianPose(name, referenceFrame string) CartesianPose {
	return CartesianPose{
		cartesianBase: newCartesianBase(CartesianPoseType, name, referenceFrame, true),
		orientation:   identityQuat,
	}
}

// CartesianPoseFrom builds a filled pose. The orientation is normalized.
func CartesianPoseFrom(name string, position r3.Vector, orientation quat.Number, referenceFrame string) (CartesianPose, error) {
	q, err := normalizeQuat(orientation)
	if err != nil {
		return CartesianPose{}, err
	}
	p := NewCartesianPose(name, referenceFrame)
	p.position, p.orientation = position, q
	p.setFilled()
	return p, nil
}

// IdentityCartesianPose returns the filled pose at the origin with no rotation.
func IdentityCartesianPose(name, referenceFrame string) CartesianPose {
	p := NewCartesianPose(name, referenceFrame)
	p.setFilled()
	return p
}

func RandomCartesianPose(name, referenceFrame string) CartesianPose {
	p := IdentityCartesianPose(name, referenceFrame)
	p.position, p.orientation = randomR3(), randomQuat()
	return p
}

func (p CartesianPose) Position() r3.Vector      { return p.position }
func (p CartesianPose) Orientation() quat.Number { return p.orientation }

// RotationMatrix returns the orientation as a 3x3 rotation matrix.
func (p CartesianPose) RotationMatrix() *mat.Dense { return rotationMatrix(p.orientation) }

func (p *CartesianPose) SetPosition(v r3.Vector) {
	p.position = v
	p.setFilled()
}

func (p *CartesianPose) SetOrientation(q quat.Number) error {
	n, err := normalizeQuat(q)
	if err != nil {
		return err
	}
	p.orientation = n
	p.setFilled()
	return nil
}

func (p CartesianPose) Dimension() int      { return 6 }
func (p CartesianPose) Copy() CartesianPose { return p }

func (p CartesianPose) IsCompatible(other CartesianPose) bool {
	return p.compatible(other.cartesianBase)
}

// Data returns x, y, z followed by the quaternion w, x, y, z.
func (p CartesianPose) Data() []float64 {
	q := p.orientation
	return []float64{p.position.X, p.position.Y, p.position.Z, q.Real, q.Imag, q.Jmag, q.Kmag}
}

// SetData is the inverse of Data.
func (p *CartesianPose) SetData(values []float64) error {
	if len(values) != 7 {
		return sizeError("pose data has %d entries, expected 7", len(values))
	}
	q, err := normalizeQuat(quat.Number{Real: values[3], Imag: values[4], Jmag: values[5], Kmag: values[6]})
	if err != nil {
		return err
	}
	p.position, p.orientation = r3From(values[:3]), q
	p.setFilled()
	return nil
}

// Mul composes two transforms: p maps other's reference frame into its own.
// The name of p must be the reference frame of other.
func (p CartesianPose) Mul(other CartesianPose) (CartesianPose, error) {
	if err := p.requireData(); err != nil {
		return CartesianPose{}, err
	}
	if err := other.requireData(); err != nil {
		return CartesianPose{}, err
	}
	if p.name != other.referenceFrame {
		return CartesianPose{}, incompatibleError("cannot express %s in %s through %s", other.name, p.referenceFrame, p.name)
	}
	out := IdentityCartesianPose(other.name, p.referenceFrame)
	out.position = p.position.Add(rotate(p.orientation, other.position))
	out.orientation = quat.Mul(p.orientation, other.orientation)
	return out, nil
}

// Inverse returns the transform from the reference frame back to the frame.
func (p CartesianPose) Inverse() (CartesianPose, error) {
	if err := p.requireData(); err != nil {
		return CartesianPose{}, err
	}
	inv := quat.Conj(p.orientation)
	out := IdentityCartesianPose(p.referenceFrame, p.name)
	out.orientation = inv
	out.position = rotate(inv, p.position).Mul(-1)
	return out, nil
}

// Sub returns the twist that moves other onto p in one second. The angular
// part is the axis-angle vector of the shortest rotation.
func (p CartesianPose) Sub(other CartesianPose) (CartesianTwist, error) {
	if err := p.checkOperand(other.cartesianBase); err != nil {
		return CartesianTwist{}, err
	}
	out := ZeroCartesianTwist(p.name, p.referenceFrame)
	out.linear = p.position.Sub(other.position)
	out.angular = rotationVector(p.orientation, other.orientation)
	return out, nil
}

// Difference is Sub under the name used by dynamical systems.
func (p CartesianPose) Difference(other CartesianPose) (CartesianTwist, error) {
	return p.Sub(other)
}

// Dist sums the position distance and the rotation angle between the poses.
func (p CartesianPose) Dist(other CartesianPose) (float64, error) {
	if err := p.checkOperand(other.cartesianBase); err != nil {
		return 0, err
	}
	return p.position.Distance(other.position) + orientationDistance(p.orientation, other.orientation), nil
}

// TransformTwist re-expresses a twist given in the frame of p into the
// reference frame of p. Only the rotation applies.
func (p CartesianPose) TransformTwist(t CartesianTwist) (CartesianTwist, error) {
	return transformSpatial(p, t)
}

// TransformWrench re-expresses a wrench given in the frame of p into the
// reference frame of p. Only the rotation applies.
func (p CartesianPose) TransformWrench(w CartesianWrench) (CartesianWrench, error) {
	return transformSpatial(p, w)
}

func transformSpatial[K spatialKind](p CartesianPose, v SpatialVector[K]) (SpatialVector[K], error) {
	if err := p.requireData(); err != nil {
		return SpatialVector[K]{}, err
	}
	if err := v.requireData(); err != nil {
		return SpatialVector[K]{}, err
	}
	if p.name != v.referenceFrame {
		return SpatialVector[K]{}, incompatibleError("%s is expressed in %s, not %s", v.name, v.referenceFrame, p.name)
	}
	out := v
	out.referenceFrame = p.referenceFrame
	out.linear = rotate(p.orientation, v.linear)
	out.angular = rotate(p.orientation, v.angular)
	return out, nil
}

func (p CartesianPose) String() string {
	if p.empty {
		return p.header() + " (empty)"
	}
	q := p.orientation
	return fmt.Sprintf("%s\nposition: %s\norientation: [%.4f, %.4f, %.4f, %.4f]",
		p.header(), formatR3(p.position), q.Real, q.Imag, q.Jmag, q.Kmag)
}

// ToCartesianState returns a Cartesian state holding this pose.
func (p CartesianPose) ToCartesianState() CartesianState {
	s := NewCartesianState(p.name, p.referenceFrame)
	s.empty = p.empty
	s.position, s.orientation = p.position, p.orientation
	return s
}
