package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
)

func smallLayout() Layout {
	return Layout{
		DateColumn:       1,
		FirstAssetColumn: 2,
		NumAssets:        2,
		BenchmarkColumn:  4,
		HasHeader:        false,
	}
}

func TestRead_ParsesColumnsPerLayout(t *testing.T) {
	csv := "0,01/02/2024,0.01,0.02,0.005\n1,01/03/2024,-0.01,0.03,0.010\n"
	panel, err := Read(strings.NewReader(csv), smallLayout())
	require.NoError(t, err)

	require.Len(t, panel.Dates, 2)
	assert.Equal(t, "01/02/2024", panel.Dates[0])
	assert.Equal(t, "01/03/2024", panel.Dates[1])

	require.Len(t, panel.Returns, 2)
	assert.InDelta(t, 0.01, panel.Returns[0][0], 1e-12)
	assert.InDelta(t, 0.02, panel.Returns[0][1], 1e-12)
	assert.InDelta(t, -0.01, panel.Returns[1][0], 1e-12)

	require.Len(t, panel.Benchmark, 2)
	assert.InDelta(t, 0.005, panel.Benchmark[0], 1e-12)
	assert.InDelta(t, 0.010, panel.Benchmark[1], 1e-12)
}

func TestRead_HeaderRowSkipped(t *testing.T) {
	layout := smallLayout()
	layout.HasHeader = true
	csv := "idx,date,asset_1,asset_2,bench\n0,01/02/2024,0.01,0.02,0.005\n"
	panel, err := Read(strings.NewReader(csv), layout)
	require.NoError(t, err)
	require.Len(t, panel.Dates, 1)
	assert.Equal(t, "01/02/2024", panel.Dates[0])
}

func TestRead_ShortRowFails(t *testing.T) {
	csv := "0,01/02/2024,0.01\n"
	_, err := Read(strings.NewReader(csv), smallLayout())
	require.Error(t, err)
	assert.IsType(t, &errs.InputError{}, err)
}

func TestRead_NonNumericAssetCellFails(t *testing.T) {
	csv := "0,01/02/2024,not-a-number,0.02,0.005\n"
	_, err := Read(strings.NewReader(csv), smallLayout())
	require.Error(t, err)
	assert.IsType(t, &errs.InputError{}, err)
}

func TestRead_NonNumericBenchmarkCellFails(t *testing.T) {
	csv := "0,01/02/2024,0.01,0.02,oops\n"
	_, err := Read(strings.NewReader(csv), smallLayout())
	require.Error(t, err)
	assert.IsType(t, &errs.InputError{}, err)
}

func TestRead_EmptyInputFails(t *testing.T) {
	_, err := Read(strings.NewReader(""), smallLayout())
	require.Error(t, err)
	assert.IsType(t, &errs.InputError{}, err)
}

func TestReadFile_MissingFileFails(t *testing.T) {
	_, err := ReadFile("/nonexistent/path/data.csv", DefaultLayout)
	require.Error(t, err)
	assert.IsType(t, &errs.IOError{}, err)
}
