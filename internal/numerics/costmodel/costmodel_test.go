package costmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houyuting2000/Markowitz-2.0/internal/config"
	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
)

func TestTurnover_HalfSumAbsDiff(t *testing.T) {
	w0 := []float64{0.5, 0.5}
	w1 := []float64{0.7, 0.3}
	assert.InDelta(t, 0.2, Turnover(w0, w1), 1e-12)
}

func TestTurnover_NoChange(t *testing.T) {
	w0 := []float64{0.3, 0.3, 0.4}
	assert.InDelta(t, 0.0, Turnover(w0, w0), 1e-12)
}

func TestEstimate_ZeroTradeNoCost(t *testing.T) {
	m := New(config.DefaultCostParams())
	w := []float64{0.5, 0.5}
	adv := []float64{1_000_000, 1_000_000}
	total, costs, err := m.Estimate(w, w, adv, 1_000_000)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, total, 1e-12)
	for _, c := range costs {
		assert.InDelta(t, 0.0, c.Commission, 1e-12)
	}
}

func TestEstimate_MonotonicInTradeSize(t *testing.T) {
	m := New(config.DefaultCostParams())
	adv := []float64{1_000_000, 1_000_000}

	small, _, err := m.Estimate([]float64{0.5, 0.5}, []float64{0.55, 0.45}, adv, 1_000_000)
	require.NoError(t, err)

	large, _, err := m.Estimate([]float64{0.5, 0.5}, []float64{0.60, 0.40}, adv, 1_000_000)
	require.NoError(t, err)

	assert.Greater(t, large, small, "doubling the trade size should not decrease estimated cost")
}

func TestEstimate_ShapeMismatch(t *testing.T) {
	m := New(config.DefaultCostParams())
	_, _, err := m.Estimate([]float64{0.5, 0.5}, []float64{0.5}, []float64{1, 1}, 1000)
	assert.Error(t, err)
	assert.IsType(t, &errs.ShapeError{}, err)
}

func TestEstimate_InvalidADV(t *testing.T) {
	m := New(config.DefaultCostParams())
	_, _, err := m.Estimate([]float64{0.5, 0.5}, []float64{0.6, 0.4}, []float64{1_000_000, 0}, 1000)
	assert.Error(t, err)
	assert.IsType(t, &errs.InvalidInputError{}, err)
}

func TestEstimate_InvalidDaysToExecute(t *testing.T) {
	params := config.DefaultCostParams()
	params.DaysToExecute = 0
	m := New(params)
	_, _, err := m.Estimate([]float64{0.5, 0.5}, []float64{0.6, 0.4}, []float64{1_000_000, 1_000_000}, 1000)
	assert.Error(t, err)
	assert.IsType(t, &errs.InvalidInputError{}, err)
}

func TestRebalanceCost_ZeroTurnoverIsNoOp(t *testing.T) {
	m := New(config.DefaultCostParams())
	w := []float64{0.4, 0.6}
	cost, err := m.RebalanceCost(w, w, []float64{1_000_000, 1_000_000}, 1_000_000)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, cost, 1e-12)
}

func TestRebalanceCost_MonotonicInTurnover(t *testing.T) {
	m := New(config.DefaultCostParams())
	adv := []float64{1_000_000, 1_000_000}

	small, err := m.RebalanceCost([]float64{0.5, 0.5}, []float64{0.52, 0.48}, adv, 1_000_000)
	require.NoError(t, err)

	large, err := m.RebalanceCost([]float64{0.5, 0.5}, []float64{0.7, 0.3}, adv, 1_000_000)
	require.NoError(t, err)

	assert.Greater(t, large, small)
}

// TestEstimate_PinnedCostBreakdown pins the cost-monotonicity worked
// example: current=(0.5,0.5), target=(0.6,0.4), V=1e6, adv=(1e7,1e7),
// fixed=100, variable=0.0005, impact=0.1, slippage=0.0002, one day,
// decay=0.1. Each leg trades |Δw|*V=1e5 against adv=1e7, so:
//
//	commission = 100 + 1e5*0.0005 = 150 per leg
//	impact     = 0.1*(1e5/1e7)^1.5 = 0.0001 per leg (single day, no decay term needed)
//	slippage   = 0.0002*sqrt(1e5/1e7) = 0.00002 per leg
//
// summing both legs gives total = 300.00024.
func TestEstimate_PinnedCostBreakdown(t *testing.T) {
	params := config.CostParams{
		FixedCommission:     100,
		VariableCommission:  0.0005,
		ImpactCoefficient:   0.1,
		SlippageCoefficient: 0.0002,
		DaysToExecute:       1,
		DecayRate:           0.1,
	}
	m := New(params)
	adv := []float64{1e7, 1e7}

	total, costs, err := m.Estimate([]float64{0.5, 0.5}, []float64{0.6, 0.4}, adv, 1e6)
	require.NoError(t, err)
	require.Len(t, costs, 2)

	for _, c := range costs {
		assert.InDelta(t, 1e5, c.TradeNotional, 1e-6)
		assert.InDelta(t, 150, c.Commission, 1e-9)
		assert.InDelta(t, 0.0001, c.Impact, 1e-12)
		assert.InDelta(t, 0.00002, c.Slippage, 1e-12)
	}
	assert.InDelta(t, 300.00024, total, 1e-6)
}

// TestRebalanceCost_PinnedAggregate pins the same scenario's aggregate
// rebalance cost: a single fixed commission plus turnover*V*variable
// plus the summed impact and slippage legs, giving 150.00024.
func TestRebalanceCost_PinnedAggregate(t *testing.T) {
	params := config.CostParams{
		FixedCommission:     100,
		VariableCommission:  0.0005,
		ImpactCoefficient:   0.1,
		SlippageCoefficient: 0.0002,
		DaysToExecute:       1,
		DecayRate:           0.1,
	}
	m := New(params)
	adv := []float64{1e7, 1e7}

	total, err := m.RebalanceCost([]float64{0.5, 0.5}, []float64{0.6, 0.4}, adv, 1e6)
	require.NoError(t, err)
	assert.InDelta(t, 150.00024, total, 1e-6)
}

func TestMarketImpact_DecaysAcrossDays(t *testing.T) {
	fastDecay := config.DefaultCostParams()
	fastDecay.DaysToExecute = 5
	fastDecay.DecayRate = 2.0

	slowDecay := config.DefaultCostParams()
	slowDecay.DaysToExecute = 5
	slowDecay.DecayRate = 0.0

	mFast := New(fastDecay)
	mSlow := New(slowDecay)
	adv := []float64{1_000_000}

	fastTotal, _, err := mFast.Estimate([]float64{0.0}, []float64{0.2}, adv, 1_000_000)
	require.NoError(t, err)
	slowTotal, _, err := mSlow.Estimate([]float64{0.0}, []float64{0.2}, adv, 1_000_000)
	require.NoError(t, err)

	assert.Less(t, fastTotal, slowTotal, "faster decay should produce lower cumulative impact")
}
