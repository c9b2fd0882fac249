package impedance

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/ctrlib/internal/state"
)

// residualTolerance is the norm under which a Gram-Schmidt residual is
// considered linearly dependent on the basis built so far.
const residualTolerance = 1e-9

// ComputeOrthonormalBasis returns an NxN orthonormal basis whose first column
// is the normalized direction. The other columns come from Gram-Schmidt
// orthogonalization of the seed columns, in order. Seed columns that are
// dependent on the basis are skipped and the canonical axes fill any gap.
func ComputeOrthonormalBasis(seed mat.Matrix, direction []float64) (*mat.Dense, error) {
	n := len(direction)
	if r, c := seed.Dims(); r != n || c != n {
		return nil, fmt.Errorf("%w: seed basis is %dx%d for a direction of size %d",
			state.ErrIncompatibleSize, r, c, n)
	}
	norm := floats.Norm(direction, 2)
	if norm == 0 {
		return nil, ErrDegenerateDirection
	}

	columns := make([][]float64, 0, n)
	first := make([]float64, n)
	floats.ScaleTo(first, 1/norm, direction)
	columns = append(columns, first)

	candidates := make([][]float64, 0, 2*n)
	for j := 0; j < n; j++ {
		candidates = append(candidates, mat.Col(nil, j, seed))
	}
	for j := 0; j < n; j++ {
		axis := make([]float64, n)
		axis[j] = 1
		candidates = append(candidates, axis)
	}
	for _, c := range candidates {
		if len(columns) == n {
			break
		}
		residual := append([]float64(nil), c...)
		for _, b := range columns {
			floats.AddScaled(residual, -floats.Dot(residual, b), b)
		}
		rn := floats.Norm(residual, 2)
		if rn <= residualTolerance*max(1, floats.Norm(c, 2)) {
			continue
		}
		floats.Scale(1/rn, residual)
		columns = append(columns, residual)
	}

	basis := mat.NewDense(n, n, nil)
	for j, col := range columns {
		basis.SetCol(j, col)
	}
	return basis, nil
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// alignedDamping returns B * diag(eigenvalues) * B^T where B is the
// orthonormal basis aligned with direction.
func alignedDamping(direction, eigenvalues []float64) (*mat.Dense, error) {
	n := len(direction)
	basis, err := ComputeOrthonormalBasis(identity(n), direction)
	if err != nil {
		return nil, err
	}
	var scaled, out mat.Dense
	scaled.Mul(basis, mat.NewDiagDense(n, append([]float64(nil), eigenvalues...)))
	out.Mul(&scaled, basis.T())
	return &out, nil
}
