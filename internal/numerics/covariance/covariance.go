// Package covariance estimates the sample and excess-return covariance
// matrices the solver and risk calculators consume, grounded on the same
// gonum/stat covariance machinery the teacher uses for its own risk model.
package covariance

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/matrixops"
)

// Estimator produces unbiased sample covariance matrices over a trailing
// window of returns.
type Estimator struct{}

// New creates a covariance estimator. It holds no state: every call is a
// pure function of the slice handed to it.
func New() *Estimator {
	return &Estimator{}
}

// Sample computes the unbiased N×N covariance of a T'×N returns window
// (divisor T'-1, per-column mean subtracted), symmetrized to absorb
// floating-point asymmetry.
func (e *Estimator) Sample(window *mat.Dense) (*mat.Dense, error) {
	t, n := window.Dims()
	if t < 2 {
		return nil, &errs.ShapeError{Op: "covariance.Sample", Detail: "window must have at least 2 observations"}
	}
	columns := make([][]float64, n)
	for j := 0; j < n; j++ {
		columns[j] = mat.Col(nil, j, window)
	}

	cov := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := stat.Covariance(columns[i], columns[j], nil)
			cov.Set(i, j, c)
			cov.Set(j, i, c)
		}
	}
	return matrixops.Symmetrize(cov), nil
}

// Excess computes the sample covariance of the returns window minus the
// aligned benchmark slice — i.e. the covariance of excess returns E.
func (e *Estimator) Excess(window *mat.Dense, benchmark []float64) (*mat.Dense, error) {
	t, n := window.Dims()
	if len(benchmark) != t {
		return nil, &errs.ShapeError{Op: "covariance.Excess", Detail: "benchmark length does not match window"}
	}
	excess := mat.NewDense(t, n, nil)
	for i := 0; i < t; i++ {
		for j := 0; j < n; j++ {
			excess.Set(i, j, window.At(i, j)-benchmark[i])
		}
	}
	return e.Sample(excess)
}

// EWMA computes an exponentially-weighted covariance matrix over the
// window, with decay lambda (0<lambda<1; higher weights recent
// observations less, matching the source's halflife convention where
// weight_k ∝ lambda^(age)). Supplements the sample estimator for
// diagnostics; the engine's default estimator remains Sample.
func (e *Estimator) EWMA(window *mat.Dense, lambda float64) (*mat.Dense, error) {
	t, n := window.Dims()
	if t < 2 {
		return nil, &errs.ShapeError{Op: "covariance.EWMA", Detail: "window must have at least 2 observations"}
	}
	if lambda <= 0 || lambda >= 1 {
		return nil, &errs.InvalidInputError{Op: "covariance.EWMA", Detail: "lambda must be in (0,1)"}
	}

	weights := make([]float64, t)
	sum := 0.0
	for k := 0; k < t; k++ {
		age := float64((t - 1) - k) // 0 for the newest observation
		w := (1 - lambda) * math.Pow(lambda, age)
		weights[k] = w
		sum += w
	}
	for k := range weights {
		weights[k] /= sum
	}

	mu := make([]float64, n)
	for j := 0; j < n; j++ {
		s := 0.0
		for k := 0; k < t; k++ {
			s += weights[k] * window.At(k, j)
		}
		mu[j] = s
	}

	cov := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s := 0.0
			for k := 0; k < t; k++ {
				s += weights[k] * (window.At(k, i) - mu[i]) * (window.At(k, j) - mu[j])
			}
			cov.Set(i, j, s)
			cov.Set(j, i, s)
		}
	}
	return matrixops.Symmetrize(cov), nil
}
