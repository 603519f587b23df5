// Package excel reads and writes convergence tables as xlsx or csv files.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"simflow/domain/convergence"
	"simflow/domain/core"
	"simflow/internal"
)

// Sheet holds the table in xlsx workbooks
const Sheet = "Sheet1"

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a reader choosing the format from the file extension
func NewDataReader(filePath string) *DataReader {
	return &DataReader{
		filePath: filePath,
		fileType: fileType(filePath),
		logger:   internal.DefaultLogger.With("excel"),
	}
}

func fileType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "csv"
	}
	return "xlsx"
}

// ReadTable reads a header row followed by numeric rows
func (r *DataReader) ReadTable() (*convergence.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	start := time.Now()
	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	default:
		rows, err = r.readExcel()
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("%s read in %.2fms (%d rows)", r.filePath, float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	if len(rows) < 1 {
		return nil, fmt.Errorf("%s file must have at least a header row", strings.ToUpper(r.fileType))
	}
	return processRows(rows)
}

func (r *DataReader) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", Sheet, err)
	}
	return rows, nil
}

func (r *DataReader) readCSV() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows converts raw string rows into a table. Every cell must be a
// number; short rows are an error.
func processRows(rows [][]string) (*convergence.Table, error) {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == "" {
			return nil, fmt.Errorf("column %d has an empty header", i+1)
		}
	}

	columns := make([][]float64, len(headers))
	for r, row := range rows[1:] {
		if len(row) < len(headers) {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", core.ErrSizeMismatch, r+2, len(row), len(headers))
		}
		for c := range headers {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", r+2, headers[c], err)
			}
			columns[c] = append(columns[c], v)
		}
	}

	table := convergence.NewTable()
	for c, name := range headers {
		if err := table.AddColumn(name, columns[c]); err != nil {
			return nil, err
		}
	}
	return table, nil
}
