// Package excel loads design matrices from spreadsheet and CSV files.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"

	"lassosig/domain/core"
	"lassosig/domain/model"
)

// DataReader reads a tabular file into a validated dataset. The first row is
// the header; one named column is the binary response, every other column a
// predictor.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadDataset parses the file into (X, y). responseColumn names the response
// header; an empty string selects the last column.
func (r *DataReader) ReadDataset(responseColumn string) (*model.Dataset, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("input must have a header row and at least one data row")
	}

	return buildDataset(rows, responseColumn)
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read first sheet: %w", err)
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

func buildDataset(rows [][]string, responseColumn string) (*model.Dataset, error) {
	header := rows[0]
	respIdx := len(header) - 1
	if responseColumn != "" {
		respIdx = -1
		for i, name := range header {
			if strings.EqualFold(strings.TrimSpace(name), responseColumn) {
				respIdx = i
				break
			}
		}
		if respIdx < 0 {
			return nil, fmt.Errorf("response column %q not found in header", responseColumn)
		}
	}

	var terms []core.TermKey
	for i, name := range header {
		if i == respIdx {
			continue
		}
		key, err := core.ParseTermKey(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("header column %d: %w", i+1, err)
		}
		terms = append(terms, key)
	}
	termSet, err := model.NewVariableSet(terms)
	if err != nil {
		return nil, err
	}

	n := len(rows) - 1
	p := termSet.Len()
	x := mat.NewDense(n, p, nil)
	y := make([]float64, n)

	for i, row := range rows[1:] {
		if len(row) < len(header) {
			// trailing blank cells come back short from excelize
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		col := 0
		for j, cell := range row[:len(header)] {
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i+2, header[j], err)
			}
			if j == respIdx {
				y[i] = v
			} else {
				x.Set(i, col, v)
				col++
			}
		}
	}

	return model.NewDataset(x, y, termSet)
}

func parseCell(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, fmt.Errorf("empty cell")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not numeric: %q", cell)
	}
	return v, nil
}
