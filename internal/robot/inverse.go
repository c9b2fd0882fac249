package robot

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/ctrlib/internal/state"
)

// InverseGeometryParameters tunes the damped least-squares solver.
type InverseGeometryParameters struct {
	// Damping regularizes J*J^T near singular configurations.
	Damping       float64
	StepSize      float64
	Tolerance     float64
	MaxIterations int
	// Weights scales each of the 6 twist components of the residual. A zero
	// weight ignores the component, which is how unreachable out-of-plane
	// directions are left out for a planar chain.
	Weights [6]float64
}

// DefaultInverseGeometryParameters solves for the planar components only:
// x, y and the rotation about z.
func DefaultInverseGeometryParameters() InverseGeometryParameters {
	return InverseGeometryParameters{
		Damping:       1e-2,
		StepSize:      0.5,
		Tolerance:     1e-6,
		MaxIterations: 1000,
		Weights:       [6]float64{1, 1, 0, 0, 0, 1},
	}
}

func (p InverseGeometryParameters) validate() error {
	if p.Damping < 0 || p.StepSize <= 0 || p.Tolerance <= 0 || p.MaxIterations <= 0 {
		return fmt.Errorf("robot: invalid inverse geometry parameters %+v", p)
	}
	return nil
}

// InverseGeometry returns joint positions placing the frame named by target
// at target. The search starts from seed, or from the zero configuration when
// seed is empty.
func (m *Model) InverseGeometry(target state.CartesianPose, seed state.JointPositions, params InverseGeometryParameters) (state.JointPositions, error) {
	if err := params.validate(); err != nil {
		return state.JointPositions{}, err
	}
	if target.IsEmpty() {
		return state.JointPositions{}, fmt.Errorf("%w: target %s", state.ErrEmptyState, target.Name())
	}
	if target.ReferenceFrame() != m.baseFrame {
		return state.JointPositions{}, fmt.Errorf("%w: target in %s, robot base is %s",
			state.ErrIncompatibleStates, target.ReferenceFrame(), m.baseFrame)
	}
	if _, err := m.frameIndex(target.Name()); err != nil {
		return state.JointPositions{}, err
	}

	q := state.ZeroJointPositions(m.name, m.jointNames)
	if !seed.IsEmpty() {
		if err := m.checkPositions(seed); err != nil {
			return state.JointPositions{}, err
		}
		q = seed.Copy()
	}

	n := len(m.jointNames)
	lambda2 := params.Damping * params.Damping
	residual := 0.0
	for it := 0; it < params.MaxIterations; it++ {
		current, err := m.ForwardGeometry(q, target.Name())
		if err != nil {
			return state.JointPositions{}, err
		}
		twist, err := target.Sub(current)
		if err != nil {
			return state.JointPositions{}, err
		}
		e := twist.Data()
		for i := range e {
			e[i] *= params.Weights[i]
		}
		residual = floats.Norm(e, 2)
		if residual < params.Tolerance {
			return q, nil
		}

		jac, err := m.ComputeJacobian(q, target.Name())
		if err != nil {
			return state.JointPositions{}, err
		}
		j := jac.Data()
		for r := 0; r < 6; r++ {
			for c := 0; c < n; c++ {
				j.Set(r, c, j.At(r, c)*params.Weights[r])
			}
		}
		var a mat.Dense
		a.Mul(j, j.T())
		for i := 0; i < 6; i++ {
			a.Set(i, i, a.At(i, i)+lambda2)
		}
		var x, dq mat.VecDense
		if err := x.SolveVec(&a, mat.NewVecDense(6, e)); err != nil {
			return state.JointPositions{}, fmt.Errorf("robot: inverse geometry step: %w", err)
		}
		dq.MulVec(j.T(), &x)
		dq.ScaleVec(params.StepSize, &dq)

		step, err := state.JointPositionsFrom(m.name, m.jointNames, dq.RawVector().Data)
		if err != nil {
			return state.JointPositions{}, err
		}
		if q, err = q.Add(step); err != nil {
			return state.JointPositions{}, err
		}
	}
	return state.JointPositions{}, &InverseGeometryNotConvergingError{
		Iterations: params.MaxIterations,
		Residual:   residual,
	}
}
