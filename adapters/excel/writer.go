package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"simflow/domain/convergence"
)

// WriteTable writes a table with a header row, choosing xlsx or csv from
// the file extension
func WriteTable(path string, table *convergence.Table) error {
	if fileType(path) == "csv" {
		return writeCSV(path, table)
	}
	return writeExcel(path, table)
}

func writeExcel(path string, table *convergence.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	names := table.Names()
	header := make([]interface{}, len(names))
	for i, name := range names {
		header[i] = name
	}
	if err := f.SetSheetRow(Sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r := 0; r < table.Len(); r++ {
		row := make([]interface{}, len(names))
		for c, name := range names {
			v, err := table.Value(name, r)
			if err != nil {
				return err
			}
			row[c] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(Sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, table *convergence.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	names := table.Names()
	if err := w.Write(names); err != nil {
		return err
	}
	record := make([]string, len(names))
	for r := 0; r < table.Len(); r++ {
		for c, name := range names {
			v, err := table.Value(name, r)
			if err != nil {
				return err
			}
			record[c] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
