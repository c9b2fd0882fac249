package state

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// JointNames returns the default joint names joint0..joint{n-1}.
func JointNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("joint%d", i)
	}
	return names
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	c := make([]T, len(s))
	copy(c, s)
	return c
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// randomVector samples each entry uniformly in [-1, 1].
func randomVector(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 2*rand.Float64() - 1
	}
	return v
}

func addVectors(a, b []float64) []float64 {
	out := cloneSlice(a)
	floats.Add(out, b)
	return out
}

func subVectors(a, b []float64) []float64 {
	out := cloneSlice(a)
	floats.Sub(out, b)
	return out
}

func scaleVector(f float64, v []float64) []float64 {
	out := cloneSlice(v)
	floats.Scale(f, out)
	return out
}

func mulVectors(a, b []float64) []float64 {
	out := cloneSlice(a)
	floats.Mul(out, b)
	return out
}

// mulSquare returns m*v for a square matrix matching the vector length.
func mulSquare(m mat.Matrix, v []float64) ([]float64, error) {
	r, c := m.Dims()
	if r != len(v) || c != len(v) {
		return nil, sizeError("matrix is %dx%d, expected %dx%d", r, c, len(v), len(v))
	}
	if len(v) == 0 {
		return []float64{}, nil
	}
	out := mat.NewVecDense(len(v), nil)
	out.MulVec(m, mat.NewVecDense(len(v), cloneSlice(v)))
	return out.RawVector().Data, nil
}

// clampVector limits every entry to bound[i] in magnitude and zeroes entries
// whose magnitude is under noise[i]*bound[i].
func clampVector(v, bound, noise []float64) {
	for i, x := range v {
		switch {
		case noise[i] != 0 && math.Abs(x) < noise[i]*bound[i]:
			v[i] = 0
		case math.Abs(x) > bound[i]:
			v[i] = math.Copysign(bound[i], x)
		}
	}
}

func filled(n int, value float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = value
	}
	return v
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.4f", x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
