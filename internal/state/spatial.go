package state

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

type spatialKind interface {
	twistKind | accelerationKind | wrenchKind
	stateType() StateType
	parts() (linear, angular string)
}

type (
	twistKind        struct{}
	accelerationKind struct{}
	wrenchKind       struct{}
)

func (twistKind) stateType() StateType        { return CartesianTwistType }
func (accelerationKind) stateType() StateType { return CartesianAccelerationType }
func (wrenchKind) stateType() StateType       { return CartesianWrenchType }

func (twistKind) parts() (string, string) { return "linear velocity", "angular velocity" }
func (accelerationKind) parts() (string, string) {
	return "linear acceleration", "angular acceleration"
}
func (wrenchKind) parts() (string, string) { return "force", "torque" }

// SpatialVector is a 6-vector made of a linear and an angular 3-vector,
// expressed in a reference frame. Use the CartesianTwist,
// CartesianAcceleration and CartesianWrench aliases. For a wrench the linear
// part is the force and the angular part the torque.
type SpatialVector[K spatialKind] struct {
	cartesianBase
	linear  r3.Vector
	angular r3.Vector
}

type (
	CartesianTwist        = SpatialVector[twistKind]
	CartesianAcceleration = SpatialVector[accelerationKind]
	CartesianWrench       = SpatialVector[wrenchKind]
)

func newSpatial[K spatialKind](name, referenceFrame string, empty bool) SpatialVector[K] {
	var k K
	return SpatialVector[K]{cartesianBase: newCartesianBase(k.stateType(), name, referenceFrame, empty)}
}

func spatialFrom[K spatialKind](name string, linear, angular r3.Vector, referenceFrame string) SpatialVector[K] {
	v := newSpatial[K](name, referenceFrame, false)
	v.linear, v.angular = linear, angular
	return v
}

func randomSpatial[K spatialKind](name, referenceFrame string) SpatialVector[K] {
	return spatialFrom[K](name, randomR3(), randomR3(), referenceFrame)
}

// NewCartesianTwist returns an empty twist.
func NewCartesianTwist(name, referenceFrame string) CartesianTwist {
	return newSpatial[twistKind](name, referenceFrame, true)
}

func CartesianTwistFrom(name string, linear, angular r3.Vector, referenceFrame string) CartesianTwist {
	return spatialFrom[twistKind](name, linear, angular, referenceFrame)
}

func ZeroCartesianTwist(name, referenceFrame string) CartesianTwist {
	return newSpatial[twistKind](name, referenceFrame, false)
}

func RandomCartesianTwist(name, referenceFrame string) CartesianTwist {
	return randomSpatial[twistKind](name, referenceFrame)
}

func NewCartesianAcceleration(name, referenceFrame string) CartesianAcceleration {
	return newSpatial[accelerationKind](name, referenceFrame, true)
}

func CartesianAccelerationFrom(name string, linear, angular r3.Vector, referenceFrame string) CartesianAcceleration {
	return spatialFrom[accelerationKind](name, linear, angular, referenceFrame)
}

func ZeroCartesianAcceleration(name, referenceFrame string) CartesianAcceleration {
	return newSpatial[accelerationKind](name, referenceFrame, false)
}

func RandomCartesianAcceleration(name, referenceFrame string) CartesianAcceleration {
	return randomSpatial[accelerationKind](name, referenceFrame)
}

// NewCartesianWrench returns an empty wrench.
func NewCartesianWrench(name, referenceFrame string) CartesianWrench {
	return newSpatial[wrenchKind](name, referenceFrame, true)
}

func CartesianWrenchFrom(name string, force, torque r3.Vector, referenceFrame string) CartesianWrench {
	return spatialFrom[wrenchKind](name, force, torque, referenceFrame)
}

func ZeroCartesianWrench(name, referenceFrame string) CartesianWrench {
	return newSpatial[wrenchKind](name, referenceFrame, false)
}

func RandomCartesianWrench(name, referenceFrame string) CartesianWrench {
	return randomSpatial[wrenchKind](name, referenceFrame)
}

func (v SpatialVector[K]) Linear() r3.Vector      { return v.linear }
func (v SpatialVector[K]) Angular() r3.Vector     { return v.angular }
func (v SpatialVector[K]) Dimension() int         { return 6 }
func (v SpatialVector[K]) Copy() SpatialVector[K] { return v }

func (v *SpatialVector[K]) SetLinear(linear r3.Vector) {
	v.linear = linear
	v.setFilled()
}

func (v *SpatialVector[K]) SetAngular(angular r3.Vector) {
	v.angular = angular
	v.setFilled()
}

func (v SpatialVector[K]) IsCompatible(other SpatialVector[K]) bool {
	return v.compatible(other.cartesianBase)
}

// Data returns the linear part followed by the angular part.
func (v SpatialVector[K]) Data() []float64 {
	return append(r3Slice(v.linear), r3Slice(v.angular)...)
}

func (v *SpatialVector[K]) SetData(values []float64) error {
	if len(values) != 6 {
		return sizeError("got %d values, expected 6", len(values))
	}
	v.linear, v.angular = r3From(values[:3]), r3From(values[3:])
	v.setFilled()
	return nil
}

func (v SpatialVector[K]) with(linear, angular r3.Vector) SpatialVector[K] {
	v.linear, v.angular = linear, angular
	v.setFilled()
	return v
}

func (v SpatialVector[K]) Add(other SpatialVector[K]) (SpatialVector[K], error) {
	if err := v.checkOperand(other.cartesianBase); err != nil {
		return SpatialVector[K]{}, err
	}
	return v.with(v.linear.Add(other.linear), v.angular.Add(other.angular)), nil
}

func (v SpatialVector[K]) Sub(other SpatialVector[K]) (SpatialVector[K], error) {
	if err := v.checkOperand(other.cartesianBase); err != nil {
		return SpatialVector[K]{}, err
	}
	return v.with(v.linear.Sub(other.linear), v.angular.Sub(other.angular)), nil
}

func (v SpatialVector[K]) Scale(lambda float64) (SpatialVector[K], error) {
	if err := v.requireData(); err != nil {
		return SpatialVector[K]{}, err
	}
	return v.with(v.linear.Mul(lambda), v.angular.Mul(lambda)), nil
}

func (v SpatialVector[K]) Div(lambda float64) (SpatialVector[K], error) {
	return v.Scale(1 / lambda)
}

// MulMatrix returns m*v for a 6x6 matrix.
func (v SpatialVector[K]) MulMatrix(m mat.Matrix) (SpatialVector[K], error) {
	if err := v.requireData(); err != nil {
		return SpatialVector[K]{}, err
	}
	values, err := mulSquare(m, v.Data())
	if err != nil {
		return SpatialVector[K]{}, err
	}
	return v.with(r3From(values[:3]), r3From(values[3:])), nil
}

// Dist sums the distances of the linear and angular parts.
func (v SpatialVector[K]) Dist(other SpatialVector[K]) (float64, error) {
	if err := v.checkOperand(other.cartesianBase); err != nil {
		return 0, err
	}
	return v.linear.Distance(other.linear) + v.angular.Distance(other.angular), nil
}

func (v SpatialVector[K]) Norm() float64 {
	return math.Sqrt(v.linear.Norm2() + v.angular.Norm2())
}

// Clamp limits the norm of the linear and angular parts. A part whose norm
// is under its noise ratio times its bound is set to zero.
func (v *SpatialVector[K]) Clamp(maxLinear, maxAngular, linearNoiseRatio, angularNoiseRatio float64) error {
	if err := v.requireData(); err != nil {
		return err
	}
	v.linear = clampNorm(v.linear, maxLinear, linearNoiseRatio)
	v.angular = clampNorm(v.angular, maxAngular, angularNoiseRatio)
	return nil
}

func (v SpatialVector[K]) Clamped(maxLinear, maxAngular, linearNoiseRatio, angularNoiseRatio float64) (SpatialVector[K], error) {
	if err := v.Clamp(maxLinear, maxAngular, linearNoiseRatio, angularNoiseRatio); err != nil {
		return SpatialVector[K]{}, err
	}
	return v, nil
}

func clampNorm(v r3.Vector, bound, noise float64) r3.Vector {
	n := v.Norm()
	switch {
	case noise != 0 && n < noise*bound:
		return r3.Vector{}
	case n > bound:
		return v.Mul(bound / n)
	}
	return v
}

func (v SpatialVector[K]) String() string {
	if v.empty {
		return v.header() + " (empty)"
	}
	var k K
	lin, ang := k.parts()
	return fmt.Sprintf("%s\n%s: %s\n%s: %s", v.header(), lin, formatR3(v.linear), ang, formatR3(v.angular))
}
