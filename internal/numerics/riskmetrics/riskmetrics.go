// Package riskmetrics computes the portfolio risk and performance
// scalars (and their rolling variants) used to validate and report
// optimizer output.
package riskmetrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/matrixops"
)

// Params carries the risk-free rate and trading-day conventions the
// calculator needs; populated from config.RiskParams at construction.
type Params struct {
	RiskFreeRate       float64
	TradingDaysPerYear int
	SortinoThreshold   float64
}

// Calculator computes risk metrics for a fixed weight vector against a
// returns panel, covariance, excess-return panel and excess covariance.
type Calculator struct {
	params Params
}

// New builds a risk-metrics calculator from the given parameters.
func New(params Params) *Calculator {
	return &Calculator{params: params}
}

// Record bundles the scalar metrics computed for one weight vector.
type Record struct {
	DailyVol          float64
	MonthlyVol        float64
	AnnualizedVol     float64
	TrackingError     float64
	PortfolioMean     float64
	Beta              float64
	Alpha             float64
	InformationRatio  float64
	Sharpe            float64
	Sortino           float64
	MaxDrawdown       float64
	Treynor           float64
	RiskContribution  []float64
}

// PortfolioReturns computes p[t] = Σ_a w_a·R[t,a] for a returns panel R.
func PortfolioReturns(w []float64, returns *mat.Dense) []float64 {
	t, _ := returns.Dims()
	p := make([]float64, t)
	for i := 0; i < t; i++ {
		row := mat.Row(nil, i, returns)
		p[i] = dot(w, row)
	}
	return p
}

// Beta computes cov(p, b)/var(b) for weights w directly, without running
// the full Compute battery — used by the constraints projector's beta
// deviation check, which needs only this one scalar.
func Beta(w []float64, returns *mat.Dense, benchmark []float64) (float64, error) {
	p := PortfolioReturns(w, returns)
	bVar := stat.Variance(benchmark, nil)
	if bVar == 0 {
		return 0, &errs.DegenerateMetricError{Op: "riskmetrics.Beta", Detail: "benchmark variance is zero"}
	}
	return stat.Covariance(p, benchmark, nil) / bVar, nil
}

// Compute runs the full scalar battery of §4.3 on weights w over the
// given returns/covariance/excess-returns/excess-covariance/benchmark.
func (c *Calculator) Compute(w []float64, returns *mat.Dense, sigma *mat.Dense, excessSigma *mat.Dense, benchmark []float64) (*Record, error) {
	const op = "riskmetrics.Compute"

	dailyVar := matrixops.QuadForm(w, sigma)
	if dailyVar < 0 {
		dailyVar = 0
	}
	dailyVol := math.Sqrt(dailyVar)
	monthlyVol := dailyVol * math.Sqrt(21)
	annualizedVol := dailyVol * math.Sqrt(float64(c.params.TradingDaysPerYear))

	teVar := matrixops.QuadForm(w, excessSigma)
	if teVar < 0 {
		teVar = 0
	}
	trackingError := math.Sqrt(teVar) * math.Sqrt(float64(c.params.TradingDaysPerYear))

	p := PortfolioReturns(w, returns)
	pMean := stat.Mean(p, nil)

	bVar := stat.Variance(benchmark, nil)
	if bVar == 0 {
		return nil, &errs.DegenerateMetricError{Op: op, Detail: "benchmark variance is zero, beta undefined"}
	}
	beta := stat.Covariance(p, benchmark, nil) / bVar

	bMean := stat.Mean(benchmark, nil)
	alpha := pMean - (c.params.RiskFreeRate + beta*(bMean-c.params.RiskFreeRate))

	var informationRatio float64
	if trackingError <= 0 {
		return nil, &errs.DegenerateMetricError{Op: op, Detail: "tracking error is zero, information ratio undefined"}
	}
	informationRatio = (pMean - c.params.RiskFreeRate) / trackingError

	if dailyVol <= 0 {
		return nil, &errs.DegenerateMetricError{Op: op, Detail: "daily volatility is zero, sharpe undefined"}
	}
	sharpe := (pMean - c.params.RiskFreeRate) / dailyVol

	downside := downsideDeviation(p, c.params.SortinoThreshold)
	if downside <= 0 {
		return nil, &errs.DegenerateMetricError{Op: op, Detail: "downside deviation is zero, sortino undefined"}
	}
	sortino := (pMean - c.params.SortinoThreshold) / downside

	maxDD := MaxDrawdown(p)

	if math.Abs(beta) < 1e-6 {
		return nil, &errs.DegenerateMetricError{Op: op, Detail: "beta is near zero, treynor undefined"}
	}
	treynor := (pMean - c.params.RiskFreeRate) / beta

	riskContribution := ComponentRiskContribution(w, sigma)

	return &Record{
		DailyVol:         dailyVol,
		MonthlyVol:       monthlyVol,
		AnnualizedVol:    annualizedVol,
		TrackingError:    trackingError,
		PortfolioMean:    pMean,
		Beta:             beta,
		Alpha:            alpha,
		InformationRatio: informationRatio,
		Sharpe:           sharpe,
		Sortino:          sortino,
		MaxDrawdown:      maxDD,
		Treynor:          treynor,
		RiskContribution: riskContribution,
	}, nil
}

// ComponentRiskContribution returns the per-asset risk-contribution
// vector (Σw)∘w / √(wᵀΣw) — the scalar-normalised form the source uses.
func ComponentRiskContribution(w []float64, sigma *mat.Dense) []float64 {
	sigmaW := matrixops.MatVec(sigma, w)
	vol := math.Sqrt(math.Max(matrixops.QuadForm(w, sigma), 0))
	contrib := make([]float64, len(w))
	if vol <= 0 {
		return contrib
	}
	for i := range w {
		contrib[i] = sigmaW[i] * w[i] / vol
	}
	return contrib
}

func downsideDeviation(p []float64, threshold float64) float64 {
	var sumSq float64
	var count int
	for _, r := range p {
		if r < threshold {
			d := threshold - r
			sumSq += d * d
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(count))
}

// MaxDrawdown walks the cumulative value series value(t)=value(t-1)*(1+p[t])
// from value(0)=1 and returns the largest peak-to-trough fractional loss.
func MaxDrawdown(p []float64) float64 {
	value := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, r := range p {
		value *= (1 + r)
		if value > peak {
			peak = value
		}
		dd := (peak - value) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// AnnualizedReturn compounds a periodic return series into a compound
// annual growth rate: ((1+r1)*...*(1+rN))^(tradingDaysPerYear/N) - 1.
// Series shorter than 3 periods return the simple cumulative return
// instead, since annualizing a thin sample produces extreme values.
func AnnualizedReturn(p []float64, tradingDaysPerYear int) float64 {
	if len(p) == 0 {
		return 0
	}

	cumulative := 1.0
	for _, r := range p {
		cumulative *= 1 + r
	}

	n := float64(len(p))
	if n < 3 {
		return cumulative - 1
	}

	years := n / float64(tradingDaysPerYear)
	return math.Pow(cumulative, 1/years) - 1
}

// ValueAtRisk sorts p ascending and returns -p at index floor((1-alpha)*T).
func ValueAtRisk(p []float64, alpha float64) float64 {
	sorted := append([]float64(nil), p...)
	sort.Float64s(sorted)
	idx := int(math.Floor((1 - alpha) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return -sorted[idx]
}

// ExpectedShortfall returns the negated mean of the alpha-tail of p.
func ExpectedShortfall(p []float64, alpha float64) float64 {
	sorted := append([]float64(nil), p...)
	sort.Float64s(sorted)
	idx := int(math.Floor((1 - alpha) * float64(len(sorted))))
	if idx < 1 {
		idx = 1
	}
	if idx > len(sorted) {
		idx = len(sorted)
	}
	tail := sorted[:idx]
	return -stat.Mean(tail, nil)
}

// ParametricVaR returns the normal-distribution (variance-covariance) VaR
// given a mean/stddev pair, grounded on the source's use of the inverse
// cumulative normal for its parametric VaR path.
func ParametricVaR(mean, stddev, confidence float64) float64 {
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - confidence)
	return -(mean + z*stddev)
}

// RollingBeta computes beta of the portfolio return series (recomputed
// from the fixed weight vector w for every window) against the benchmark
// over overlapping windows of size W. The window's portfolio return is
// always recomputed from w and the window's returns slice — it is never
// captured implicitly, which is the bug the source exhibits in one path.
func RollingBeta(w []float64, returns *mat.Dense, benchmark []float64, window int) ([]float64, error) {
	t, _ := returns.Dims()
	if window < 2 || window > t {
		return nil, &errs.ShapeError{Op: "riskmetrics.RollingBeta", Detail: "invalid window size"}
	}
	if len(benchmark) != t {
		return nil, &errs.ShapeError{Op: "riskmetrics.RollingBeta", Detail: "benchmark length does not match returns"}
	}

	out := make([]float64, t-window+1)
	for start := 0; start <= t-window; start++ {
		p := make([]float64, window)
		for k := 0; k < window; k++ {
			row := mat.Row(nil, start+k, returns)
			p[k] = dot(w, row)
		}
		b := benchmark[start : start+window]
		bVar := stat.Variance(b, nil)
		if bVar == 0 {
			out[start] = 0
			continue
		}
		out[start] = stat.Covariance(p, b, nil) / bVar
	}
	return out, nil
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
