package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/houyuting2000/Markowitz-2.0/internal/engine"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/markowitz"
	"github.com/houyuting2000/Markowitz-2.0/internal/numerics/riskmetrics"
)

func testResult() *engine.PeriodResult {
	return &engine.PeriodResult{
		Period:      0,
		WindowStart: 0,
		WindowEnd:   22,
		Sigma:       mat.NewDense(2, 2, []float64{0.0004, 0.0001, 0.0001, 0.0009}),
		ExcessSigma: mat.NewDense(2, 2, []float64{0.0002, 0.00005, 0.00005, 0.0003}),
		TEWeights:   []float64{0.6, 0.4},
		MPTWeights:  []float64{0.55, 0.45},
		TEFrontier: []markowitz.FrontierPoint{
			{TargetReturn: 0.001, TrackingError: 0.01, PortfolioVolatility: 0.02},
		},
		MPTFrontier: []markowitz.FrontierPoint{
			{TargetReturn: 0.002, TrackingError: 0.015, PortfolioVolatility: 0.025},
		},
		Risk: &riskmetrics.Record{
			DailyVol:         0.02,
			MonthlyVol:       0.09,
			AnnualizedVol:    0.30,
			TrackingError:    0.05,
			Beta:             1.02,
			Alpha:            0.001,
			InformationRatio: 0.2,
			Sharpe:           0.8,
			Sortino:          1.1,
			MaxDrawdown:      0.08,
		},
		ExpectedExcessReturn: 0.0012,
		PortfolioReturns:     []float64{0.01, -0.005, 0.007, 0.002},
	}
}

func TestWritePortfolioCSV_ContainsWeightsAndMetrics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.csv")

	err := WritePortfolioCSV(path, "01/31/2024", []string{"asset_1", "asset_2"}, testResult())
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "asset_1")
	assert.Contains(t, text, "asset_2")
	assert.Contains(t, text, "te_weight")
	assert.Contains(t, text, "mpt_weight")
	assert.Contains(t, text, "sharpe")
	assert.Contains(t, text, "frontier")
}

func TestWriteRiskReport_ContainsExpectedSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "risk_report.txt")

	err := WriteRiskReport(path, "01/31/2024", []string{"asset_1", "asset_2"}, testResult(), nil, 0.0012)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)

	assert.True(t, strings.Contains(text, "Risk Metrics"))
	assert.True(t, strings.Contains(text, "Positions"))
	assert.True(t, strings.Contains(text, "Transaction Cost Estimate"))
	assert.True(t, strings.Contains(text, "Annualized Return"))
}

func TestWriteRiskReport_SectorExposuresOnlyWhenProvided(t *testing.T) {
	dir := t.TempDir()

	withoutSectors := filepath.Join(dir, "no_sectors.txt")
	require.NoError(t, WriteRiskReport(withoutSectors, "01/31/2024", []string{"asset_1", "asset_2"}, testResult(), nil, 0.0))
	content, err := os.ReadFile(withoutSectors)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "Sector Exposures")

	withSectors := filepath.Join(dir, "with_sectors.txt")
	sectors := map[int]string{0: "tech", 1: "finance"}
	require.NoError(t, WriteRiskReport(withSectors, "01/31/2024", []string{"asset_1", "asset_2"}, testResult(), sectors, 0.0))
	content, err = os.ReadFile(withSectors)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Sector Exposures")
}

func TestWriteFinalAnalysisCSV_OneRowPerPeriod(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "final.csv")

	rows := []FinalAnalysisRow{
		{Period: 0, Date: "01/31/2024", ExpectedExcessReturn: 0.001, AnnualizedReturn: 0.08, Sharpe: 0.8, Sortino: 1.1, MaxDrawdown: 0.08, TrackingError: 0.05, Beta: 1.0},
		{Period: 1, Date: "02/29/2024", ExpectedExcessReturn: 0.002, AnnualizedReturn: 0.09, Sharpe: 0.9, Sortino: 1.2, MaxDrawdown: 0.07, TrackingError: 0.04, Beta: 1.01},
	}

	err := WriteFinalAnalysisCSV(path, rows)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Len(t, lines, 3) // header + 2 rows
	assert.Contains(t, lines[0], "annualized_return")
	assert.Contains(t, lines[1], "01/31/2024")
	assert.Contains(t, lines[2], "02/29/2024")
}

func TestWriteFinalAnalysisCSV_EmptyRowsStillWritesHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty_final.csv")

	err := WriteFinalAnalysisCSV(path, nil)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "period")
}
