// Package ingest reads the portfolio CSV input: index, date,
// asset_1..asset_N, benchmark columns, grounded on the CSV reader shape of
// cryptorun's internal/data/cold.CSVReader (open, read header, read rows,
// parse with strconv, wrap read/parse failures).
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/houyuting2000/Markowitz-2.0/internal/errs"
)

// Layout describes the fixed column offsets of the input CSV. The
// reference dataset's layout is DefaultLayout.
type Layout struct {
	DateColumn      int
	FirstAssetColumn int
	NumAssets       int
	BenchmarkColumn int
	HasHeader       bool
}

// DefaultLayout matches the reference dataset: date at column 1, assets
// at columns 2..13 (N=12), benchmark at column 14.
var DefaultLayout = Layout{
	DateColumn:       1,
	FirstAssetColumn: 2,
	NumAssets:        12,
	BenchmarkColumn:  14,
	HasHeader:        false,
}

// Panel is the parsed input: a T×N returns matrix (row-major), a
// length-T benchmark series and a length-T date column.
type Panel struct {
	Returns   [][]float64
	Benchmark []float64
	Dates     []string
}

// ReadFile opens path and parses it per layout.
func ReadFile(path string, layout Layout) (*Panel, error) {
	const op = "ingest.ReadFile"
	file, err := os.Open(path)
	if err != nil {
		return nil, &errs.IOError{Op: op, Path: path, Err: err}
	}
	defer file.Close()

	return Read(file, layout)
}

// Read parses a portfolio CSV from r per layout.
func Read(r io.Reader, layout Layout) (*Panel, error) {
	const op = "ingest.Read"
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if layout.HasHeader {
		if _, err := reader.Read(); err != nil {
			return nil, &errs.InputError{Op: op, Detail: "reading header row", Err: err}
		}
	}

	panel := &Panel{}
	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &errs.InputError{Op: op, Detail: fmt.Sprintf("reading row %d", rowNum), Err: err}
		}

		minLen := layout.BenchmarkColumn + 1
		if layout.FirstAssetColumn+layout.NumAssets > minLen {
			minLen = layout.FirstAssetColumn + layout.NumAssets
		}
		if len(record) < minLen {
			return nil, &errs.InputError{Op: op, Detail: fmt.Sprintf("row %d has %d fields, expected at least %d", rowNum, len(record), minLen)}
		}

		date := record[layout.DateColumn]

		assets := make([]float64, layout.NumAssets)
		for a := 0; a < layout.NumAssets; a++ {
			col := layout.FirstAssetColumn + a
			v, err := strconv.ParseFloat(record[col], 64)
			if err != nil {
				return nil, &errs.InputError{Op: op, Detail: fmt.Sprintf("row %d, column %d: non-numeric cell %q", rowNum, col, record[col]), Err: err}
			}
			assets[a] = v
		}

		benchmark, err := strconv.ParseFloat(record[layout.BenchmarkColumn], 64)
		if err != nil {
			return nil, &errs.InputError{Op: op, Detail: fmt.Sprintf("row %d, column %d: non-numeric benchmark cell %q", rowNum, layout.BenchmarkColumn, record[layout.BenchmarkColumn]), Err: err}
		}

		panel.Dates = append(panel.Dates, date)
		panel.Returns = append(panel.Returns, assets)
		panel.Benchmark = append(panel.Benchmark, benchmark)
		rowNum++
	}

	if len(panel.Returns) == 0 {
		return nil, &errs.InputError{Op: op, Detail: "no data rows"}
	}

	return panel, nil
}
