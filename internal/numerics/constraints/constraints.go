// Package constraints implements the multi-pass projection of proposed
// weights onto the feasible set: position, sector, volatility, tracking
// error, beta, turnover, liquidity and diversification limits.
package constraints

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/houyuting2000/Markowitz-2.0/internal/config"
	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/matrixops"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/riskmetrics"
	"github.com/houyuting2000/Markowitz-2.0/pkg/logger"
)

// Projector iteratively projects proposed weights onto the feasible set
// defined by its limits.
type Projector struct {
	limits config.ConstraintLimits
	log    zerolog.Logger
}

// New creates a constraints projector scoped to the given limits.
func New(limits config.ConstraintLimits, log zerolog.Logger) *Projector {
	return &Projector{
		limits: limits,
		log:    logger.Component(log, "constraints"),
	}
}

// Inputs bundles the read-only data the predicates and passes consult.
type Inputs struct {
	Current       []float64
	Returns       *mat.Dense
	Sigma         *mat.Dense
	ExcessSigma   *mat.Dense
	Benchmark     []float64
	Sectors       map[int]string
	ADV           []float64
}

// Status reports which named predicates failed on a candidate vector.
type Status struct {
	Feasible   bool
	Violations []string
}

// Project iteratively applies the clip/sector-scale/volatility-scale/
// liquidity-clip passes to proposed, then projects onto the hyperplane
// Σw=1 and re-clips, re-checking every predicate — including turnover,
// beta deviation and Σw=1 itself — after each iteration, until all hold
// or the iteration cap is reached. Turnover and beta deviation are
// check-only: no pass corrects them directly, so a proposal that cannot
// be clipped/scaled into both bounds genuinely fails rather than being
// blended toward the current portfolio. A sum that cannot be
// renormalised (≈0) fails immediately with ConstraintsUnsatisfiable
// rather than looping to exhaustion — the chosen resolution of the
// source's unspecified sum-to-one policy (see design notes).
func (p *Projector) Project(proposed []float64, in Inputs) ([]float64, error) {
	const op = "constraints.Project"
	n := len(proposed)
	if err := p.validateSectorMap(op, n, in.Sectors); err != nil {
		return nil, err
	}

	w := append([]float64(nil), proposed...)

	var status Status
	iter := 0
	for ; iter < p.limits.MaxIterations; iter++ {
		w = p.clip(w)
		w = p.sectorScale(w, in.Sectors)
		w = p.volatilityScale(w, in.Sigma)
		w = p.liquidityClip(w, in.ADV)

		sum := 0.0
		for _, wi := range w {
			sum += wi
		}
		if math.Abs(sum) < 1e-12 {
			return nil, &errs.ConstraintsUnsatisfiable{Op: op, Iterations: iter, Violations: []string{"weights sum to ~0, cannot renormalise onto Σw=1"}}
		}
		w = p.renormalize(w)
		w = p.clip(w)

		status = p.check(w, in)
		if status.Feasible {
			break
		}
	}
	if !status.Feasible {
		return nil, &errs.ConstraintsUnsatisfiable{Op: op, Iterations: iter, Violations: status.Violations}
	}

	return w, nil
}

// --- projection passes (fixed order per iteration) ---

// clip clips every w_i to [minPos, maxPos].
func (p *Projector) clip(w []float64) []float64 {
	out := make([]float64, len(w))
	for i, wi := range w {
		out[i] = math.Max(p.limits.MinPositionSize, math.Min(p.limits.MaxPositionSize, wi))
	}
	return out
}

// sectorScale multiplies every asset in a sector whose absolute sum
// exceeds the cap by cap/|sum|.
func (p *Projector) sectorScale(w []float64, sectors map[int]string) []float64 {
	if len(sectors) == 0 {
		return w
	}
	sums := make(map[string]float64)
	for i, wi := range w {
		sums[sectors[i]] += wi
	}
	out := append([]float64(nil), w...)
	for sector, sum := range sums {
		if math.Abs(sum) > p.limits.MaxSectorExposure {
			scale := p.limits.MaxSectorExposure / math.Abs(sum)
			for i, wi := range w {
				if sectors[i] == sector {
					out[i] = wi * scale
				}
			}
		}
	}
	return out
}

// volatilityScale multiplies w by cap/√(wᵀΣw) if the portfolio volatility
// exceeds the cap.
func (p *Projector) volatilityScale(w []float64, sigma *mat.Dense) []float64 {
	vol := math.Sqrt(math.Max(matrixops.QuadForm(w, sigma), 0))
	if vol <= p.limits.MaxVolatility || vol == 0 {
		return w
	}
	scale := p.limits.MaxVolatility / vol
	out := make([]float64, len(w))
	for i, wi := range w {
		out[i] = wi * scale
	}
	return out
}

// liquidityClip clips |w_i| to v_i*maxADVPercent/minLiquidity when that
// bound is tighter, preserving sign.
func (p *Projector) liquidityClip(w []float64, adv []float64) []float64 {
	if p.limits.MinLiquidity <= 0 || len(adv) != len(w) {
		return w
	}
	out := append([]float64(nil), w...)
	for i, wi := range w {
		maxPos := adv[i] * p.limits.MaxADVPercent / p.limits.MinLiquidity
		if math.Abs(wi) > maxPos {
			sign := 1.0
			if wi < 0 {
				sign = -1.0
			}
			out[i] = sign * maxPos
		}
	}
	return out
}

// renormalize projects w onto the hyperplane Σw_i=1 by dividing every
// weight by the current sum, so each weight keeps its share of the total.
func (p *Projector) renormalize(w []float64) []float64 {
	sum := 0.0
	for _, wi := range w {
		sum += wi
	}
	if math.Abs(sum) < 1e-12 {
		return w
	}
	out := make([]float64, len(w))
	for i, wi := range w {
		out[i] = wi / sum
	}
	return out
}

// --- predicates ---

func (p *Projector) check(w []float64, in Inputs) Status {
	var violations []string

	if v := p.checkPositionLimits(w); v != "" {
		violations = append(violations, v)
	}
	if v := p.checkSectorExposure(w, in.Sectors); v != "" {
		violations = append(violations, v)
	}
	if v := p.checkVolatility(w, in.Sigma); v != "" {
		violations = append(violations, v)
	}
	if in.ExcessSigma != nil {
		if v := p.checkTrackingError(w, in.ExcessSigma); v != "" {
			violations = append(violations, v)
		}
	}
	if in.Returns != nil && in.Benchmark != nil {
		if v := p.checkBetaDeviation(w, in.Returns, in.Benchmark); v != "" {
			violations = append(violations, v)
		}
	}
	if in.Current != nil {
		if v := p.checkTurnover(w, in.Current); v != "" {
			violations = append(violations, v)
		}
	}
	if v := p.checkLiquidity(w, in.ADV); v != "" {
		violations = append(violations, v)
	}
	if v := p.checkDiversification(w); v != "" {
		violations = append(violations, v)
	}
	if v := p.checkSumToOne(w); v != "" {
		violations = append(violations, v)
	}

	return Status{Feasible: len(violations) == 0, Violations: violations}
}

func (p *Projector) checkSumToOne(w []float64) string {
	sum := 0.0
	for _, wi := range w {
		sum += wi
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Sprintf("weights sum to %v, expected 1", sum)
	}
	return ""
}

func (p *Projector) checkPositionLimits(w []float64) string {
	shortExposure := 0.0
	for _, wi := range w {
		if wi < p.limits.MinPositionSize-1e-9 || wi > p.limits.MaxPositionSize+1e-9 {
			return fmt.Sprintf("position %v outside [%v,%v]", wi, p.limits.MinPositionSize, p.limits.MaxPositionSize)
		}
		if wi < 0 {
			shortExposure += -wi
		}
	}
	if shortExposure > p.limits.MaxShortExposure+1e-9 {
		return fmt.Sprintf("short exposure %v exceeds %v", shortExposure, p.limits.MaxShortExposure)
	}
	return ""
}

func (p *Projector) checkSectorExposure(w []float64, sectors map[int]string) string {
	if len(sectors) == 0 {
		return ""
	}
	sums := make(map[string]float64)
	for i, wi := range w {
		sums[sectors[i]] += wi
	}
	for sector, sum := range sums {
		if math.Abs(sum) > p.limits.MaxSectorExposure+1e-9 {
			return fmt.Sprintf("sector %s exposure %v exceeds %v", sector, sum, p.limits.MaxSectorExposure)
		}
	}
	return ""
}

func (p *Projector) checkVolatility(w []float64, sigma *mat.Dense) string {
	vol := math.Sqrt(math.Max(matrixops.QuadForm(w, sigma), 0))
	if vol > p.limits.MaxVolatility+1e-9 {
		return fmt.Sprintf("volatility %v exceeds %v", vol, p.limits.MaxVolatility)
	}
	return ""
}

func (p *Projector) checkTrackingError(w []float64, excessSigma *mat.Dense) string {
	if p.limits.MaxTrackingError <= 0 {
		return ""
	}
	te := math.Sqrt(math.Max(matrixops.QuadForm(w, excessSigma), 0))
	if te > p.limits.MaxTrackingError+1e-9 {
		return fmt.Sprintf("tracking error %v exceeds %v", te, p.limits.MaxTrackingError)
	}
	return ""
}

func (p *Projector) checkBetaDeviation(w []float64, returns *mat.Dense, benchmark []float64) string {
	if p.limits.MaxBetaDeviation <= 0 {
		return ""
	}
	beta, err := riskmetrics.Beta(w, returns, benchmark)
	if err != nil {
		return ""
	}
	if math.Abs(beta-1) > p.limits.MaxBetaDeviation+1e-9 {
		return fmt.Sprintf("beta deviation %v exceeds %v", math.Abs(beta-1), p.limits.MaxBetaDeviation)
	}
	return ""
}

func (p *Projector) checkTurnover(w, current []float64) string {
	if p.limits.MaxTurnover <= 0 {
		return ""
	}
	sum := 0.0
	for i := range w {
		sum += math.Abs(w[i] - current[i])
	}
	turnover := 0.5 * sum
	if turnover > p.limits.MaxTurnover+1e-9 {
		return fmt.Sprintf("turnover %v exceeds %v", turnover, p.limits.MaxTurnover)
	}
	return ""
}

func (p *Projector) checkLiquidity(w []float64, adv []float64) string {
	if p.limits.MinLiquidity <= 0 || len(adv) != len(w) {
		return ""
	}
	for i, wi := range w {
		if math.Abs(wi)*p.limits.MinLiquidity > adv[i]*p.limits.MaxADVPercent+1e-9 {
			return fmt.Sprintf("liquidity check failed for asset %d", i)
		}
	}
	return ""
}

func (p *Projector) checkDiversification(w []float64) string {
	active := 0
	for _, wi := range w {
		if math.Abs(wi) > p.limits.MinTradeSize {
			active++
		}
	}
	if active < p.limits.MinPositions || active > p.limits.MaxPositions {
		return fmt.Sprintf("active position count %d outside [%d,%d]", active, p.limits.MinPositions, p.limits.MaxPositions)
	}
	return ""
}

func (p *Projector) validateSectorMap(op string, n int, sectors map[int]string) error {
	if len(sectors) == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		if _, ok := sectors[i]; !ok {
			return &errs.InvalidSectorMap{Op: op, AssetIx: i}
		}
	}
	return nil
}
