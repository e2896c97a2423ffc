// Package attribution implements Brinson-style performance attribution,
// grounded on original_source/PerformanceAttribution.hpp.
package attribution

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/matrixops"
)

// Result decomposes portfolio-vs-benchmark excess return into allocation,
// selection and interaction effects.
type Result struct {
	Allocation  float64
	Selection   float64
	Interaction float64
	Total       float64
}

// Compute runs Brinson attribution of portfolio weights w against
// benchmark weights wb (a uniform 1/n benchmark when wb is nil) over the
// per-asset mean returns of the returns window, against the benchmark
// mean return rb. Fails with errs.ShapeError on a dimension mismatch.
//
//	allocation  = Σ_a (w_a − wb_a) · rb_a
//	selection   = Σ_a wb_a · (r_a − rb)
//	interaction = Σ_a (w_a − wb_a) · (r_a − rb_a)
//	total       = allocation + selection + interaction
//
// rb_a is taken as the single benchmark mean rb for every asset, since the
// source's benchmark input is a single return series rather than a
// per-asset benchmark panel.
func Compute(w []float64, returns *mat.Dense, benchmark []float64, wb []float64) (*Result, error) {
	const op = "attribution.Compute"
	t, n := returns.Dims()
	if len(w) != n {
		return nil, &errs.ShapeError{Op: op, Detail: "weights length does not match returns panel width"}
	}
	if len(benchmark) != t {
		return nil, &errs.ShapeError{Op: op, Detail: "benchmark length does not match returns panel"}
	}
	if wb == nil {
		wb = make([]float64, n)
		for i := range wb {
			wb[i] = 1 / float64(n)
		}
	}
	if len(wb) != n {
		return nil, &errs.ShapeError{Op: op, Detail: "benchmark weights length does not match returns panel width"}
	}

	r := matrixops.ColumnMeans(returns)
	rb := stat.Mean(benchmark, nil)

	var allocation, selection, interaction float64
	for a := 0; a < n; a++ {
		allocation += (w[a] - wb[a]) * rb
		selection += wb[a] * (r[a] - rb)
		interaction += (w[a] - wb[a]) * (r[a] - rb)
	}

	return &Result{
		Allocation:  allocation,
		Selection:   selection,
		Interaction: interaction,
		Total:       allocation + selection + interaction,
	}, nil
}
