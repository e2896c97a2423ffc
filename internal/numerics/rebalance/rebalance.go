// Package rebalance implements the rebalancing controller: month-end
// detection by date-string prefix, the current-vs-target comparison, the
// cost/benefit acceptance gate, and period-state advance.
package rebalance

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/costmodel"
	"github.com/houyuting2000/Markowitz-2.0/pkg/logger"
)

// Calendar scans a date column and returns the rebalance calendar: the
// date whenever its month substring (everything before the first '/' of
// an M/D/YYYY date) changes, including the first row.
func Calendar(dates []string) []string {
	var calendar []string
	var lastMonth string
	for i, d := range dates {
		month := monthPrefix(d)
		if i == 0 || month != lastMonth {
			calendar = append(calendar, d)
			lastMonth = month
		}
	}
	return calendar
}

func monthPrefix(date string) string {
	idx := strings.Index(date, "/")
	if idx < 0 {
		return date
	}
	return date[:idx]
}

// Optimizer is the subset of the engine the rebalancer calls back into:
// produce proposed weights for a period and read the expected excess
// return over that period. It is a borrow, not ownership — implementors
// must not let a Rebalancer outlive the Optimizer it was built with.
type Optimizer interface {
	Optimize(period int) ([]float64, error)
	ExpectedExcessReturn(period int) (float64, error)
}

// TriggerResult reports the accept/reject decision for one tick.
type TriggerResult struct {
	ShouldRebalance bool
	Reason          string
	Turnover        float64
	EstimatedCost   float64
	ExpectedReturn  float64
}

// Controller holds the rebalancer's state: current weights, the
// rebalance calendar and the current period index.
type Controller struct {
	current  []float64
	calendar []string
	period   int
	cost     *costmodel.Model
	adv      []float64
	notional float64
	log      zerolog.Logger
}

// New creates a rebalancer seeded with initial weights and the
// rebalance calendar computed from the input date column.
func New(initial []float64, calendar []string, cost *costmodel.Model, adv []float64, notional float64, log zerolog.Logger) *Controller {
	return &Controller{
		current:  append([]float64(nil), initial...),
		calendar: calendar,
		cost:     cost,
		adv:      adv,
		notional: notional,
		log:      logger.Component(log, "rebalancer"),
	}
}

// Weights returns the controller's current (accepted) weight vector.
func (c *Controller) Weights() []float64 {
	return append([]float64(nil), c.current...)
}

// Period returns the controller's current period index.
func (c *Controller) Period() int {
	return c.period
}

// Tick processes one observed date, non-op if it is not on the calendar.
// Ticks must be delivered in non-decreasing date order; the controller
// does not sort.
func (c *Controller) Tick(date string, opt Optimizer) (TriggerResult, error) {
	if !c.onCalendar(date) {
		return TriggerResult{ShouldRebalance: false, Reason: "not a rebalance date"}, nil
	}

	proposed, err := opt.Optimize(c.period)
	if err != nil {
		c.log.Warn().Err(err).Int("period", c.period).Msg("optimize failed on rebalance tick, retaining current weights")
		c.period++
		return TriggerResult{ShouldRebalance: false, Reason: "optimize failed"}, nil
	}

	turnover := costmodel.Turnover(c.current, proposed)
	estimatedCost, err := c.cost.RebalanceCost(c.current, proposed, c.adv, c.notional)
	if err != nil {
		c.log.Warn().Err(err).Int("period", c.period).Msg("cost estimate failed on rebalance tick, retaining current weights")
		c.period++
		return TriggerResult{ShouldRebalance: false, Reason: "cost estimate failed", Turnover: turnover}, nil
	}

	expectedReturn, err := opt.ExpectedExcessReturn(c.period)
	if err != nil {
		c.log.Warn().Err(err).Int("period", c.period).Msg("expected-return readout failed on rebalance tick, retaining current weights")
		c.period++
		return TriggerResult{ShouldRebalance: false, Reason: "expected return failed", Turnover: turnover, EstimatedCost: estimatedCost}, nil
	}

	result := TriggerResult{
		Turnover:       turnover,
		EstimatedCost:  estimatedCost,
		ExpectedReturn: expectedReturn,
	}

	if estimatedCost < expectedReturn {
		result.ShouldRebalance = true
		result.Reason = "cost below expected excess return"
		c.current = proposed
	} else {
		result.ShouldRebalance = false
		result.Reason = "cost exceeds expected excess return"
	}

	c.period++
	return result, nil
}

func (c *Controller) onCalendar(date string) bool {
	for _, d := range c.calendar {
		if d == date {
			return true
		}
	}
	return false
}
