// Package matrixops provides the dense linear-algebra primitives the rest
// of the engine's numerical core builds on: matrix-vector products,
// quadratic forms, inverse, symmetrisation, slicing and column reductions
// over gonum's dense matrix type.
package matrixops

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
)

// FromRows builds a T×N dense matrix from a row-major [][]float64 panel.
// Every row must have the same length N; a ragged panel fails with a
// ShapeError.
func FromRows(op string, rows [][]float64) (*mat.Dense, error) {
	t := len(rows)
	if t == 0 {
		return nil, &errs.ShapeError{Op: op, Detail: "empty row set"}
	}
	n := len(rows[0])
	data := make([]float64, 0, t*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, &errs.ShapeError{Op: op, Detail: fmt.Sprintf("ragged rows: row 0 has length %d, row %d has length %d", n, i, len(row))}
		}
		data = append(data, row...)
	}
	return mat.NewDense(t, n, data), nil
}

// Slice returns the rows [from, to) of m as a new dense matrix, sharing no
// memory with the source.
func Slice(op string, m *mat.Dense, from, to int) (*mat.Dense, error) {
	r, c := m.Dims()
	if from < 0 || to > r || from >= to {
		return nil, &errs.ShapeError{Op: op, Detail: fmt.Sprintf("invalid window [%d,%d) over %d rows", from, to, r)}
	}
	out := mat.NewDense(to-from, c, nil)
	out.Copy(m.Slice(from, to, 0, c))
	return out, nil
}

// ColumnMeans returns the per-column arithmetic mean of m.
func ColumnMeans(m *mat.Dense) []float64 {
	r, c := m.Dims()
	means := make([]float64, c)
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += m.At(i, j)
		}
		means[j] = sum / float64(r)
	}
	return means
}

// Invert returns Σ⁻¹ and det(Σ), failing with a NumericalError if Σ is
// singular or ill-conditioned (|det| < 1e-12).
func Invert(op string, sigma *mat.Dense) (*mat.Dense, float64, error) {
	r, c := sigma.Dims()
	if r != c {
		return nil, 0, &errs.ShapeError{Op: op, Detail: "covariance is not square"}
	}
	det := mat.Det(sigma)
	if math.IsNaN(det) || math.Abs(det) < 1e-12 {
		return nil, 0, &errs.NumericalError{Op: op, Detail: fmt.Sprintf("covariance is singular or ill-conditioned, |det|=%g", math.Abs(det))}
	}
	inv := mat.NewDense(r, r, nil)
	if err := inv.Inverse(sigma); err != nil {
		return nil, 0, &errs.NumericalError{Op: op, Detail: "matrix inversion failed", Err: err}
	}
	return inv, det, nil
}

// QuadForm computes wᵀ M w for a vector w (length N) and matrix M (N×N).
func QuadForm(w []float64, m *mat.Dense) float64 {
	n := len(w)
	wv := mat.NewVecDense(n, w)
	var tmp mat.VecDense
	tmp.MulVec(m, wv)
	return mat.Dot(wv, &tmp)
}

// MatVec computes M·v for matrix M (N×N) and vector v (length N).
func MatVec(m *mat.Dense, v []float64) []float64 {
	n := len(v)
	vv := mat.NewVecDense(n, v)
	var out mat.VecDense
	out.MulVec(m, vv)
	result := make([]float64, n)
	for i := 0; i < n; i++ {
		result[i] = out.AtVec(i)
	}
	return result
}

// Symmetrize averages m with its transpose, absorbing floating-point
// asymmetry introduced by accumulation order.
func Symmetrize(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return out
}

// CorrelationFromCovariance derives the correlation matrix from a
// covariance matrix: corr(i,j) = cov(i,j) / sqrt(cov(i,i)*cov(j,j)),
// clamped to [-1,1] to absorb floating-point drift at the diagonal.
func CorrelationFromCovariance(op string, cov *mat.Dense) (*mat.Dense, error) {
	n, c := cov.Dims()
	if n != c {
		return nil, &errs.ShapeError{Op: op, Detail: "covariance is not square"}
	}

	variances := make([]float64, n)
	for i := 0; i < n; i++ {
		v := cov.At(i, i)
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &errs.NumericalError{Op: op, Detail: fmt.Sprintf("invalid variance on diagonal at %d: %g", i, v)}
		}
		variances[i] = v
	}

	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1.0)
		for j := i + 1; j < n; j++ {
			den := math.Sqrt(variances[i] * variances[j])
			val := math.Max(-1.0, math.Min(1.0, cov.At(i, j)/den))
			out.Set(i, j, val)
			out.Set(j, i, val)
		}
	}
	return out, nil
}
