// Package stresstest replays a named shock scenario through the engine's
// historical return panel and risk calculator, grounded on
// original_source/StressTesting.{hpp,cpp}.
package stresstest

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/riskmetrics"
)

// Scenario names a shock: a per-asset market shock (additive, applied to
// every observation of that asset) and an optional per-asset volatility
// shock (scales the deviation from the asset's own mean). Correlation
// shocks are a documented no-op: the source never wires
// calculateCorrelation/decomposeFatorReturns into its own runStressTest,
// so neither does this port.
type Scenario struct {
	Name             string
	MarketShocks     []float64
	VolatilityShocks []float64
}

// Result is the stress test's published output.
type Result struct {
	PortfolioReturn     float64
	MaxDrawdown         float64
	VaR                 float64
	ExpectedShortfall   float64
	FactorContributions []float64
}

// Run generates a shocked return panel from historical, replays the given
// weights through it and reports the stressed risk battery plus a
// per-asset factor-contribution breakdown w_a·shock_a.
func Run(weights []float64, historical *mat.Dense, scenario Scenario) (*Result, error) {
	const op = "stresstest.Run"
	_, n := historical.Dims()
	if len(weights) != n {
		return nil, &errs.ShapeError{Op: op, Detail: "weights length does not match historical panel width"}
	}
	if len(scenario.MarketShocks) != n {
		return nil, &errs.ShapeError{Op: op, Detail: "market shocks length does not match historical panel width"}
	}

	shocked := generateShockedReturns(historical, scenario)

	p := riskmetrics.PortfolioReturns(weights, shocked)

	totalReturn := 1.0
	for _, r := range p {
		totalReturn *= 1 + r
	}

	contributions := make([]float64, n)
	for a := 0; a < n; a++ {
		contributions[a] = weights[a] * scenario.MarketShocks[a]
	}

	return &Result{
		PortfolioReturn:     totalReturn - 1,
		MaxDrawdown:         riskmetrics.MaxDrawdown(p),
		VaR:                 riskmetrics.ValueAtRisk(p, 0.95),
		ExpectedShortfall:   riskmetrics.ExpectedShortfall(p, 0.95),
		FactorContributions: contributions,
	}, nil
}

// generateShockedReturns applies the market shock to every observation of
// each asset (R'[t,a] = R[t,a] + shock_a) and, when supplied, scales each
// asset's deviation from its own mean by (1+volatilityShock_a).
func generateShockedReturns(historical *mat.Dense, scenario Scenario) *mat.Dense {
	t, n := historical.Dims()
	out := mat.NewDense(t, n, nil)
	out.Copy(historical)

	for a := 0; a < n; a++ {
		shock := scenario.MarketShocks[a]
		for i := 0; i < t; i++ {
			out.Set(i, a, out.At(i, a)+shock)
		}
	}

	if len(scenario.VolatilityShocks) == n {
		for a := 0; a < n; a++ {
			col := mat.Col(nil, a, out)
			mean := stat.Mean(col, nil)
			scale := 1 + scenario.VolatilityShocks[a]
			for i := 0; i < t; i++ {
				out.Set(i, a, mean+(out.At(i, a)-mean)*scale)
			}
		}
	}

	return out
}
