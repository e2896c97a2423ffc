// Package config holds the plain struct-based tunables of the engine.
// There is no environment variable or config-file layer here: every
// parameter set is a literal Go value, constructed by a Default*
// function and overridable by the caller before the engine is built.
package config

// CostParams are the transaction-cost model's coefficients.
type CostParams struct {
	FixedCommission    float64 // currency units, charged once per non-zero leg
	VariableCommission float64 // rate applied to trade notional
	ImpactCoefficient  float64 // power-law market-impact coefficient
	SlippageCoefficient float64
	DaysToExecute      int     // D, number of days the trade notional is split across
	DecayRate          float64 // exponential decay of daily impact contribution
}

// DefaultCostParams reproduces the reference defaults: fixed 1bp-scale
// commission, 5bp variable rate, impact coefficient 0.1, slippage 2bp.
func DefaultCostParams() CostParams {
	return CostParams{
		FixedCommission:     0.0001,
		VariableCommission:  0.0005,
		ImpactCoefficient:   0.1,
		SlippageCoefficient: 0.0002,
		DaysToExecute:       1,
		DecayRate:           0.1,
	}
}

// ConstraintLimits are the feasible-set bounds enforced by the projector.
type ConstraintLimits struct {
	MaxPositionSize   float64
	MinPositionSize   float64
	MaxShortExposure  float64
	MaxSectorExposure float64
	MaxVolatility     float64
	MaxTrackingError  float64
	MaxBetaDeviation  float64
	MaxTurnover       float64
	MinTradeSize      float64
	MinLiquidity      float64
	MaxADVPercent     float64
	MinPositions      int
	MaxPositions      int
	MaxIterations     int
}

// DefaultConstraintLimits reproduces the reference defaults of §4.7:
// maxPos=0.15, minPos=-0.05, maxSector=0.25, maxVol=0.20, maxTE=0.06,
// maxTurnover=0.15.
func DefaultConstraintLimits(numAssets int) ConstraintLimits {
	return ConstraintLimits{
		MaxPositionSize:   0.15,
		MinPositionSize:   -0.05,
		MaxShortExposure:  0.30,
		MaxSectorExposure: 0.25,
		MaxVolatility:     0.20,
		MaxTrackingError:  0.06,
		MaxBetaDeviation:  0.50,
		MaxTurnover:       0.15,
		MinTradeSize:      0.001,
		MinLiquidity:      0,
		MaxADVPercent:     0.10,
		MinPositions:      1,
		MaxPositions:      numAssets,
		MaxIterations:     100,
	}
}

// RiskParams are the parameters consumed by the risk-metric calculators.
type RiskParams struct {
	RiskFreeRate          float64
	TradingDaysPerYear    int
	TradingDaysPerMonth   int
	SortinoThreshold      float64
	RollingWindow         int
	VaRConfidence         float64
	ExpectedShortfallAlpha float64
}

// DefaultRiskParams canonicalises the competing source constants (21 vs
// 22 trading days per month; 252 per year) on a single value per
// parameter, as required by the duplicate-variant design note.
func DefaultRiskParams() RiskParams {
	return RiskParams{
		RiskFreeRate:           0.0,
		TradingDaysPerYear:     252,
		TradingDaysPerMonth:    22,
		SortinoThreshold:       0.0,
		RollingWindow:          22,
		VaRConfidence:          0.95,
		ExpectedShortfallAlpha: 0.95,
	}
}

// EngineDefaults bundles the engine-facade defaults of §4.7: target
// daily return, window size, and frontier sweep point counts.
type EngineDefaults struct {
	TargetDailyReturn float64
	WindowSize        int
	FrontierPoints    int
	FrontierStart     float64
	FrontierStep      float64
}

// DefaultEngineDefaults reproduces: target daily return 0.0013, window
// size 252, K=50 frontier points starting at -0.001 with step 0.00005.
func DefaultEngineDefaults() EngineDefaults {
	return EngineDefaults{
		TargetDailyReturn: 0.0013,
		WindowSize:        252,
		FrontierPoints:    50,
		FrontierStart:     -0.001,
		FrontierStep:      0.00005,
	}
}
