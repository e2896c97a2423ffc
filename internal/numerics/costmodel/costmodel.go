// Package costmodel implements the transaction-cost model: fixed and
// variable commission, power-law market impact with multi-day
// exponential decay, and square-root slippage.
package costmodel

import (
	"math"

	"github.com/houyuting2000/Markowitz-2.0/internal/config"
	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
)

// Model estimates trading costs for a rebalance from w0 to w1.
type Model struct {
	params config.CostParams
}

// New builds a transaction-cost model from the given coefficients.
func New(params config.CostParams) *Model {
	return &Model{params: params}
}

// AssetCost is the per-asset cost breakdown for one rebalance leg.
type AssetCost struct {
	TradeNotional float64
	Commission    float64
	Impact        float64
	Slippage      float64
}

// Estimate computes the total estimated trading cost of moving from w0 to
// w1 over a portfolio of notional value V, given the per-asset average
// daily volume adv. Returns the total cost and the per-asset breakdown.
func (m *Model) Estimate(w0, w1, adv []float64, v float64) (float64, []AssetCost, error) {
	const op = "costmodel.Estimate"
	n := len(w0)
	if len(w1) != n || len(adv) != n {
		return 0, nil, &errs.ShapeError{Op: op, Detail: "w0, w1 and adv must have the same length"}
	}
	if m.params.DaysToExecute <= 0 {
		return 0, nil, &errs.InvalidInputError{Op: op, Detail: "days to execute must be positive"}
	}
	if m.params.FixedCommission < 0 || m.params.VariableCommission < 0 || m.params.ImpactCoefficient < 0 || m.params.SlippageCoefficient < 0 {
		return 0, nil, &errs.InvalidInputError{Op: op, Detail: "cost coefficients must be non-negative"}
	}

	costs := make([]AssetCost, n)
	total := 0.0
	for i := 0; i < n; i++ {
		if adv[i] <= 0 {
			return 0, nil, &errs.InvalidInputError{Op: op, Detail: "average daily volume must be positive"}
		}
		s := math.Abs(w1[i]-w0[i]) * v
		if s == 0 {
			continue
		}

		commission := m.params.FixedCommission + s*m.params.VariableCommission
		impact := m.marketImpact(s, adv[i])
		slippage := m.params.SlippageCoefficient * math.Sqrt(s/adv[i])

		costs[i] = AssetCost{TradeNotional: s, Commission: commission, Impact: impact, Slippage: slippage}
		total += commission + impact + slippage
	}

	return total, costs, nil
}

// marketImpact splits trade notional s evenly across D days and sums
// impactCoeff * (s/D / v)^1.5 * exp(-decayRate*d) over d in [0,D).
func (m *Model) marketImpact(s, v float64) float64 {
	d := m.params.DaysToExecute
	daily := s / float64(d)
	total := 0.0
	for day := 0; day < d; day++ {
		total += m.params.ImpactCoefficient * math.Pow(daily/v, 1.5) * math.Exp(-m.params.DecayRate*float64(day))
	}
	return total
}

// Turnover is the one-way turnover ½·Σ|w1_i - w0_i|.
func Turnover(w0, w1 []float64) float64 {
	sum := 0.0
	for i := range w0 {
		sum += math.Abs(w1[i] - w0[i])
	}
	return 0.5 * sum
}

// RebalanceCost estimates fixed·(1 if turnover>0 else 0) +
// turnover·V·variable + Σimpact + Σslippage, matching the aggregate
// rebalancing-cost formula of §4.4.
func (m *Model) RebalanceCost(w0, w1, adv []float64, v float64) (float64, error) {
	turnover := Turnover(w0, w1)
	if turnover == 0 {
		return 0, nil
	}
	_, costs, err := m.Estimate(w0, w1, adv, v)
	if err != nil {
		return 0, err
	}
	total := m.params.FixedCommission
	total += turnover * v * m.params.VariableCommission
	for _, c := range costs {
		total += c.Impact + c.Slippage
	}
	return total, nil
}
