// Package engine is the facade tying the numerical core into a single
// optimise/export/rebalance pipeline: it owns the returns/excess/
// benchmark panels, re-estimates covariances on each call, runs both the
// tracking-error and mean-variance objectives, sweeps the efficient
// frontier, projects onto the feasible set and publishes read-only views
// for the rebalancer and the reporters.
package engine

import (
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/houyuting2000/Markowitz-2.0/internal/config"
	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/constraints"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/costmodel"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/covariance"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/markowitz"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/attribution"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/matrixops"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/riskmetrics"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/stresstest"
	"github.com/houyuting2000/Markowitz-2.0/pkg/logger"
)

// Config bundles every tunable the facade needs, in the spirit of the
// plain struct-based configuration carried by the ambient stack.
type Config struct {
	Cost        config.CostParams
	Constraints config.ConstraintLimits
	Risk        config.RiskParams
	Engine      config.EngineDefaults
	Notional    float64
}

// PeriodResult is the published, read-only output of one optimise(period)
// call: both objectives' weights, the frontier sweep and the risk record.
type PeriodResult struct {
	Period                int
	WindowStart, WindowEnd int
	Sigma, ExcessSigma    *mat.Dense
	TEWeights             []float64
	TEWeightsRaw          []float64
	MPTWeights            []float64
	MPTWeightsRaw         []float64
	TEFrontier            []markowitz.FrontierPoint
	TEFrontierOmitted     []float64
	MPTFrontier           []markowitz.FrontierPoint
	MPTFrontierOmitted    []float64
	Risk                  *riskmetrics.Record
	ExpectedExcessReturn  float64
	PortfolioReturns      []float64
}

// Engine owns the returns/excess/benchmark panels and window size for one
// run of the optimizer.
type Engine struct {
	returns   *mat.Dense
	benchmark []float64
	excess    *mat.Dense
	dates     []string
	sectors   map[int]string
	adv       []float64

	cfg Config
	log zerolog.Logger

	covEstimator *covariance.Estimator
	riskCalc     *riskmetrics.Calculator
	costModel    *costmodel.Model
	projector    *constraints.Projector

	currentWeights []float64
	cache          map[int]*PeriodResult
}

// New constructs the engine from a returns panel, benchmark series, date
// column, sector map and ADV vector. The sector map and ADV vector may be
// nil when those constraints are not in use.
func New(rows [][]float64, benchmark []float64, dates []string, sectors map[int]string, adv []float64, cfg Config, log zerolog.Logger) (*Engine, error) {
	const op = "engine.New"

	returns, err := matrixops.FromRows(op, rows)
	if err != nil {
		return nil, err
	}
	t, n := returns.Dims()
	if len(benchmark) != t {
		return nil, &errs.ShapeError{Op: op, Detail: "benchmark length does not match returns panel"}
	}
	if len(dates) != t {
		return nil, &errs.ShapeError{Op: op, Detail: "date column length does not match returns panel"}
	}

	excess := mat.NewDense(t, n, nil)
	for i := 0; i < t; i++ {
		for j := 0; j < n; j++ {
			excess.Set(i, j, returns.At(i, j)-benchmark[i])
		}
	}

	elog := logger.Component(log, "engine")

	return &Engine{
		returns:   returns,
		benchmark: benchmark,
		excess:    excess,
		dates:     dates,
		sectors:   sectors,
		adv:       adv,

		cfg: cfg,
		log: elog,

		covEstimator: covariance.New(),
		riskCalc: riskmetrics.New(riskmetrics.Params{
			RiskFreeRate:       cfg.Risk.RiskFreeRate,
			TradingDaysPerYear: cfg.Risk.TradingDaysPerYear,
			SortinoThreshold:   cfg.Risk.SortinoThreshold,
		}),
		costModel: costmodel.New(cfg.Cost),
		projector: constraints.New(cfg.Constraints, elog),

		currentWeights: equalWeights(n),
		cache:          make(map[int]*PeriodResult),
	}, nil
}

func equalWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

// Dates returns the engine's date column, for the rebalancer's calendar
// construction.
func (e *Engine) Dates() []string {
	return e.dates
}

// CurrentWeights returns the engine's last-accepted weight vector.
func (e *Engine) CurrentWeights() []float64 {
	return append([]float64(nil), e.currentWeights...)
}

// AcceptWeights records w as the engine's current weight vector, called by
// the rebalance driver once a proposed vector has been accepted.
func (e *Engine) AcceptWeights(w []float64) {
	e.currentWeights = append([]float64(nil), w...)
}

// window returns the trailing window [start,end) ending at
// (period+1)·TradingDaysPerMonth, so period 0 ends after the first month;
// the end is capped to the available history and kept at least 2.
func (e *Engine) window(period int) (start, end int) {
	t, _ := e.returns.Dims()
	end = (period + 1) * e.cfg.Risk.TradingDaysPerMonth
	if end > t {
		end = t
	}
	if end < 2 {
		end = 2
	}
	start = end - e.cfg.Engine.WindowSize
	if start < 0 {
		start = 0
	}
	return start, end
}

// OptimizePeriod runs the full pipeline for one rebalance period: slice
// the trailing window, refit covariances, solve both objectives, sweep
// both frontiers, project onto the feasible set and compute the risk
// record. The result is cached so ExpectedExcessReturn(period) can read
// it back without re-solving.
func (e *Engine) OptimizePeriod(period int) (*PeriodResult, error) {
	const op = "engine.OptimizePeriod"

	start, end := e.window(period)
	window, err := matrixops.Slice(op, e.returns, start, end)
	if err != nil {
		return nil, err
	}
	windowBenchmark := e.benchmark[start:end]

	sigma, err := e.covEstimator.Sample(window)
	if err != nil {
		return nil, err
	}
	excessSigma, err := e.covEstimator.Excess(window, windowBenchmark)
	if err != nil {
		return nil, err
	}

	mu := matrixops.ColumnMeans(window)
	excessWindow, err := matrixops.Slice(op, e.excess, start, end)
	if err != nil {
		return nil, err
	}
	excessMu := matrixops.ColumnMeans(excessWindow)

	n := len(mu)
	u := onesVector(n)

	teTarget := e.cfg.Engine.TargetDailyReturn
	teSolution, err := markowitz.TrackingErrorMode(excessMu, excessSigma, u, teTarget)
	if err != nil {
		return nil, err
	}

	// The MPT objective solves on the plain mean-variance frontier
	// (μ=mean(R), Σ=Σ) rather than the excess-return frontier the
	// tracking-error objective uses, so its target is the same daily
	// target shifted back onto the raw-return scale by adding the
	// benchmark's mean return over the window.
	mptTarget := e.cfg.Engine.TargetDailyReturn + stat.Mean(windowBenchmark, nil)
	mptSolution, err := markowitz.MeanVarianceMode(mu, sigma, u, mptTarget)
	if err != nil {
		return nil, err
	}

	teFrontier, teOmitted := markowitz.Frontier(
		excessMu, excessSigma, sigma, excessSigma, u,
		e.cfg.Engine.FrontierPoints, e.cfg.Engine.FrontierStart, e.cfg.Engine.FrontierStep,
	)

	mptMin, mptMax := minMax(mu)
	mptStep := 0.0
	if e.cfg.Engine.FrontierPoints > 1 {
		mptStep = (mptMax - mptMin) / float64(e.cfg.Engine.FrontierPoints-1)
	}
	mptFrontier, mptOmitted := markowitz.Frontier(
		mu, sigma, sigma, excessSigma, u,
		e.cfg.Engine.FrontierPoints, mptMin, mptStep,
	)

	teProjected, err := e.projector.Project(teSolution.Weights, constraints.Inputs{
		Current:     e.currentWeights,
		Returns:     window,
		Sigma:       sigma,
		ExcessSigma: excessSigma,
		Benchmark:   windowBenchmark,
		Sectors:     e.sectors,
		ADV:         e.adv,
	})
	if err != nil {
		return nil, err
	}
	mptProjected, err := e.projector.Project(mptSolution.Weights, constraints.Inputs{
		Current:     e.currentWeights,
		Returns:     window,
		Sigma:       sigma,
		ExcessSigma: excessSigma,
		Benchmark:   windowBenchmark,
		Sectors:     e.sectors,
		ADV:         e.adv,
	})
	if err != nil {
		return nil, err
	}

	risk, err := e.riskCalc.Compute(teProjected, window, sigma, excessSigma, windowBenchmark)
	if err != nil {
		return nil, err
	}
	portfolioReturns := riskmetrics.PortfolioReturns(teProjected, window)

	result := &PeriodResult{
		Period:               period,
		WindowStart:          start,
		WindowEnd:            end,
		Sigma:                sigma,
		ExcessSigma:          excessSigma,
		TEWeights:            teProjected,
		TEWeightsRaw:         teSolution.Weights,
		MPTWeights:           mptProjected,
		MPTWeightsRaw:        mptSolution.Weights,
		TEFrontier:           teFrontier,
		TEFrontierOmitted:    teOmitted,
		MPTFrontier:          mptFrontier,
		MPTFrontierOmitted:   mptOmitted,
		Risk:                 risk,
		ExpectedExcessReturn: dotProduct(excessMu, teProjected),
		PortfolioReturns:     portfolioReturns,
	}
	e.cache[period] = result
	return result, nil
}

// Optimize implements rebalance.Optimizer: it runs OptimizePeriod and
// returns the tracking-error objective's projected weights, the
// rebalancer's proposed target.
func (e *Engine) Optimize(period int) ([]float64, error) {
	result, err := e.OptimizePeriod(period)
	if err != nil {
		return nil, err
	}
	return result.TEWeights, nil
}

// ExpectedExcessReturn implements rebalance.Optimizer: it reads back the
// expected excess return computed by the most recent OptimizePeriod call
// for this period.
func (e *Engine) ExpectedExcessReturn(period int) (float64, error) {
	result, ok := e.cache[period]
	if !ok {
		return 0, &errs.InvalidInputError{Op: "engine.ExpectedExcessReturn", Detail: "period has not been optimized yet"}
	}
	return result.ExpectedExcessReturn, nil
}

// Period returns the cached result for a previously optimized period, if
// any — used by reporters to read back a period's full diagnostics.
func (e *Engine) Period(period int) (*PeriodResult, bool) {
	result, ok := e.cache[period]
	return result, ok
}

// StressTest replays the engine's current weights through a shock
// scenario applied to the full historical return panel.
func (e *Engine) StressTest(scenario stresstest.Scenario) (*stresstest.Result, error) {
	return stresstest.Run(e.currentWeights, e.returns, scenario)
}

// Attribution runs Brinson attribution of the engine's current weights
// against a benchmark weight vector (uniform when wb is nil) over the
// full historical return panel.
func (e *Engine) Attribution(wb []float64) (*attribution.Result, error) {
	return attribution.Compute(e.currentWeights, e.returns, e.benchmark, wb)
}

func onesVector(n int) []float64 {
	u := make([]float64, n)
	for i := range u {
		u[i] = 1
	}
	return u
}

func minMax(v []float64) (min, max float64) {
	min, max = v[0], v[0]
	for _, x := range v {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return min, max
}

func dotProduct(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
