package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/houyuting2000/Markowitz-2.0/internal/config"
	"github.com/houyuting2000/Markowitz-2.0/internal/engine"
	"github.com/houyuting2000/Markowitz-2.0/internal/ingest"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/costmodel"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/rebalance"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/riskmetrics"
	"github.com/houyuting2000/Markowitz-2.0/internal/report"
	"github.com/houyuting2000/Markowitz-2.0/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{Level: "info", Pretty: true})

	root := &cobra.Command{
		Use:           "portfolio <csv-path>",
		Short:         "Run the Markowitz/tracking-error portfolio optimizer over a returns CSV",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], log)
		},
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(csvPath string, log zerolog.Logger) error {
	panel, err := ingest.ReadFile(csvPath, ingest.DefaultLayout)
	if err != nil {
		return err
	}
	log.Info().Int("rows", len(panel.Dates)).Int("assets", ingest.DefaultLayout.NumAssets).Msg("loaded returns panel")

	cfg := engine.Config{
		Cost:        config.DefaultCostParams(),
		Constraints: config.DefaultConstraintLimits(ingest.DefaultLayout.NumAssets),
		Risk:        config.DefaultRiskParams(),
		Engine:      config.DefaultEngineDefaults(),
		Notional:    1_000_000,
	}

	assetNames := make([]string, ingest.DefaultLayout.NumAssets)
	for i := range assetNames {
		assetNames[i] = fmt.Sprintf("asset_%d", i+1)
	}

	adv := make([]float64, ingest.DefaultLayout.NumAssets)
	for i := range adv {
		adv[i] = 1_000_000
	}

	eng, err := engine.New(panel.Returns, panel.Benchmark, panel.Dates, nil, adv, cfg, log)
	if err != nil {
		return err
	}

	calendar := rebalance.Calendar(panel.Dates)
	cost := costmodel.New(cfg.Cost)
	controller := rebalance.New(eng.CurrentWeights(), calendar, cost, adv, cfg.Notional, log)

	outDir := filepath.Dir(csvPath)
	var finalRows []report.FinalAnalysisRow

	for _, date := range panel.Dates {
		trigger, err := controller.Tick(date, eng)
		if err != nil {
			return err
		}
		if !trigger.ShouldRebalance {
			continue
		}

		eng.AcceptWeights(controller.Weights())
		period := controller.Period() - 1
		result, ok := eng.Period(period)
		if !ok {
			continue
		}

		portfolioPath := filepath.Join(outDir, fmt.Sprintf("portfolio_%s.csv", sanitizeDate(date)))
		if err := report.WritePortfolioCSV(portfolioPath, date, assetNames, result); err != nil {
			return err
		}

		riskPath := filepath.Join(outDir, fmt.Sprintf("risk_report_%s.txt", sanitizeDate(date)))
		if err := report.WriteRiskReport(riskPath, date, assetNames, result, nil, trigger.EstimatedCost/cfg.Notional); err != nil {
			return err
		}

		finalRows = append(finalRows, report.FinalAnalysisRow{
			Period:               period,
			Date:                 date,
			ExpectedExcessReturn: result.ExpectedExcessReturn,
			AnnualizedReturn:     riskmetrics.AnnualizedReturn(result.PortfolioReturns, cfg.Risk.TradingDaysPerYear),
			Sharpe:               result.Risk.Sharpe,
			Sortino:              result.Risk.Sortino,
			MaxDrawdown:          result.Risk.MaxDrawdown,
			TrackingError:        result.Risk.TrackingError,
			Beta:                 result.Risk.Beta,
		})

		log.Info().Str("date", date).Bool("rebalanced", trigger.ShouldRebalance).Float64("cost", trigger.EstimatedCost).Msg("rebalance tick")
	}

	finalPath := filepath.Join(outDir, "final_portfolio_analysis.csv")
	if err := report.WriteFinalAnalysisCSV(finalPath, finalRows); err != nil {
		return err
	}

	return nil
}

func sanitizeDate(date string) string {
	out := make([]byte, len(date))
	for i := 0; i < len(date); i++ {
		if date[i] == '/' {
			out[i] = '-'
		} else {
			out[i] = date[i]
		}
	}
	return string(out)
}
