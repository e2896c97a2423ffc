// Package report writes the three output files — the per-period weights
// CSV, the human-readable risk report and the final aggregate CSV —
// grounded on the csv.NewWriter/os.Create shape of cryptorun's
// internal/application/reports.EODReporter.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/houyuting2000/Markowitz-2.0/internal/engine"
	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/matrixops"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/riskmetrics"
)

// reportingTradingDaysPerYear is the annualization base for the report's
// own annualized-return line, independent of the engine's risk params.
const reportingTradingDaysPerYear = 252

// WritePortfolioCSV writes portfolio_<date>.csv: the weights table
// (asset, tracking-error weight, MPT weight), a performance metrics
// block and an efficient-frontier block.
func WritePortfolioCSV(path string, date string, assetNames []string, result *engine.PeriodResult) error {
	const op = "report.WritePortfolioCSV"
	file, err := os.Create(path)
	if err != nil {
		return &errs.IOError{Op: op, Path: path, Err: err}
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"asset", "te_weight", "mpt_weight"}); err != nil {
		return &errs.IOError{Op: op, Path: path, Err: err}
	}
	for i, name := range assetNames {
		row := []string{
			name,
			strconv.FormatFloat(result.TEWeights[i], 'f', 8, 64),
			strconv.FormatFloat(result.MPTWeights[i], 'f', 8, 64),
		}
		if err := w.Write(row); err != nil {
			return &errs.IOError{Op: op, Path: path, Err: err}
		}
	}

	if err := w.Write([]string{}); err != nil {
		return &errs.IOError{Op: op, Path: path, Err: err}
	}
	if err := w.Write([]string{"metric", "value"}); err != nil {
		return &errs.IOError{Op: op, Path: path, Err: err}
	}
	metrics := [][2]string{
		{"date", date},
		{"daily_vol", formatFloat(result.Risk.DailyVol)},
		{"monthly_vol", formatFloat(result.Risk.MonthlyVol)},
		{"annualized_vol", formatFloat(result.Risk.AnnualizedVol)},
		{"tracking_error", formatFloat(result.Risk.TrackingError)},
		{"information_ratio", formatFloat(result.Risk.InformationRatio)},
		{"sharpe", formatFloat(result.Risk.Sharpe)},
		{"sortino", formatFloat(result.Risk.Sortino)},
		{"max_drawdown", formatFloat(result.Risk.MaxDrawdown)},
		{"beta", formatFloat(result.Risk.Beta)},
		{"alpha", formatFloat(result.Risk.Alpha)},
		{"expected_excess_return", formatFloat(result.ExpectedExcessReturn)},
	}
	for _, m := range metrics {
		if err := w.Write([]string{m[0], m[1]}); err != nil {
			return &errs.IOError{Op: op, Path: path, Err: err}
		}
	}

	if err := w.Write([]string{}); err != nil {
		return &errs.IOError{Op: op, Path: path, Err: err}
	}
	if err := w.Write([]string{"frontier", "target_return", "tracking_error", "portfolio_volatility"}); err != nil {
		return &errs.IOError{Op: op, Path: path, Err: err}
	}
	for _, pt := range result.TEFrontier {
		row := []string{"te", formatFloat(pt.TargetReturn), formatFloat(pt.TrackingError), formatFloat(pt.PortfolioVolatility)}
		if err := w.Write(row); err != nil {
			return &errs.IOError{Op: op, Path: path, Err: err}
		}
	}
	for _, pt := range result.MPTFrontier {
		row := []string{"mpt", formatFloat(pt.TargetReturn), formatFloat(pt.TrackingError), formatFloat(pt.PortfolioVolatility)}
		if err := w.Write(row); err != nil {
			return &errs.IOError{Op: op, Path: path, Err: err}
		}
	}

	return nil
}

// WriteRiskReport writes risk_report_<date>.txt: the human-readable risk
// section, positions, sector exposures and a transaction-cost estimate.
// rebalanceCost is the estimated rebalance cost as a fraction of portfolio
// notional; the report prints it in basis points.
func WriteRiskReport(path string, date string, assetNames []string, result *engine.PeriodResult, sectors map[int]string, rebalanceCost float64) error {
	const op = "report.WriteRiskReport"
	file, err := os.Create(path)
	if err != nil {
		return &errs.IOError{Op: op, Path: path, Err: err}
	}
	defer file.Close()

	fmt.Fprintf(file, "Risk Report — %s\n\n", date)

	fmt.Fprintf(file, "Risk Metrics\n")
	fmt.Fprintf(file, "  Daily volatility:       %.6f\n", result.Risk.DailyVol)
	fmt.Fprintf(file, "  Monthly volatility:     %.6f\n", result.Risk.MonthlyVol)
	fmt.Fprintf(file, "  Annualized volatility:  %.6f\n", result.Risk.AnnualizedVol)
	fmt.Fprintf(file, "  Tracking error:         %.6f\n", result.Risk.TrackingError)
	fmt.Fprintf(file, "  Information ratio:      %.6f\n", result.Risk.InformationRatio)
	fmt.Fprintf(file, "  Sharpe:                 %.6f\n", result.Risk.Sharpe)
	fmt.Fprintf(file, "  Sortino:                %.6f\n", result.Risk.Sortino)
	fmt.Fprintf(file, "  Max drawdown:           %.6f\n", result.Risk.MaxDrawdown)
	fmt.Fprintf(file, "  Beta:                   %.6f\n", result.Risk.Beta)
	fmt.Fprintf(file, "  Alpha:                  %.6f\n\n", result.Risk.Alpha)

	fmt.Fprintf(file, "Positions\n")
	for i, name := range assetNames {
		fmt.Fprintf(file, "  %-12s te=%.6f mpt=%.6f\n", name, result.TEWeights[i], result.MPTWeights[i])
	}
	fmt.Fprintf(file, "\n")

	if len(sectors) > 0 {
		sums := make(map[string]float64)
		for i := range assetNames {
			sums[sectors[i]] += result.TEWeights[i]
		}
		fmt.Fprintf(file, "Sector Exposures\n")
		for sector, sum := range sums {
			fmt.Fprintf(file, "  %-12s %.6f\n", sector, sum)
		}
		fmt.Fprintf(file, "\n")
	}

	if corr, err := matrixops.CorrelationFromCovariance(op, result.Sigma); err == nil {
		n, _ := corr.Dims()
		fmt.Fprintf(file, "Asset Correlation Matrix\n")
		for i := 0; i < n; i++ {
			fmt.Fprintf(file, "  %-12s", assetNames[i])
			for j := 0; j < n; j++ {
				fmt.Fprintf(file, " %7.4f", corr.At(i, j))
			}
			fmt.Fprintf(file, "\n")
		}
		fmt.Fprintf(file, "\n")
	}

	fmt.Fprintf(file, "Annualized Return (TE weights, window): %.6f\n\n", riskmetrics.AnnualizedReturn(result.PortfolioReturns, reportingTradingDaysPerYear))

	fmt.Fprintf(file, "Transaction Cost Estimate\n")
	fmt.Fprintf(file, "  Estimated rebalance cost (bps of notional): %.2f\n", rebalanceCost*10000)

	return nil
}

// FinalAnalysisRow is one row of the final aggregate CSV: one rebalance
// period's summary statistics.
type FinalAnalysisRow struct {
	Period               int
	Date                 string
	ExpectedExcessReturn float64
	AnnualizedReturn     float64
	Sharpe               float64
	Sortino              float64
	MaxDrawdown          float64
	TrackingError        float64
	Beta                 float64
}

// WriteFinalAnalysisCSV writes final_portfolio_analysis.csv: one row
// per rebalance period's aggregate statistics.
func WriteFinalAnalysisCSV(path string, rows []FinalAnalysisRow) error {
	const op = "report.WriteFinalAnalysisCSV"
	file, err := os.Create(path)
	if err != nil {
		return &errs.IOError{Op: op, Path: path, Err: err}
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{"period", "date", "expected_excess_return", "annualized_return", "sharpe", "sortino", "max_drawdown", "tracking_error", "beta"}
	if err := w.Write(header); err != nil {
		return &errs.IOError{Op: op, Path: path, Err: err}
	}
	for _, r := range rows {
		row := []string{
			strconv.Itoa(r.Period),
			r.Date,
			formatFloat(r.ExpectedExcessReturn),
			formatFloat(r.AnnualizedReturn),
			formatFloat(r.Sharpe),
			formatFloat(r.Sortino),
			formatFloat(r.MaxDrawdown),
			formatFloat(r.TrackingError),
			formatFloat(r.Beta),
		}
		if err := w.Write(row); err != nil {
			return &errs.IOError{Op: op, Path: path, Err: err}
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}
