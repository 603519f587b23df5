// Package convergence holds the tabular convergence dataset of a solution
// verification case and the trajectory arithmetic performed on it.
package convergence

import (
	"bytes"
	"encoding/json"
	"fmt"

	"simflow/domain/core"
)

// Well-known column names
const (
	ExtrapolatedValuesColumn = "extrapolated_values_folds"
	CPUTimeColumn            = "cpu_time"
)

// ReferenceColumn returns the name of the column holding the reference value of an output
func ReferenceColumn(outputName string) string {
	return "Ref[" + outputName + "]"
}

// Table is an ordered set of equal-length float columns. Row order is
// trajectory-major: trajectory i occupies rows [i*M, (i+1)*M).
type Table struct {
	names   []string
	columns map[string][]float64
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{columns: make(map[string][]float64)}
}

// AddColumn appends a column, or replaces the values of an existing one.
// Every column must have the same length.
func (t *Table) AddColumn(name string, values []float64) error {
	onlyColumn := len(t.names) == 1 && t.names[0] == name
	if n := t.Len(); len(t.names) > 0 && !onlyColumn && n != len(values) {
		return fmt.Errorf("%w: column %s has %d rows but the table has %d",
			core.ErrSizeMismatch, name, len(values), n)
	}
	if _, exists := t.columns[name]; !exists {
		t.names = append(t.names, name)
	}
	t.columns[name] = append([]float64(nil), values...)
	return nil
}

// Column returns the values of a column
func (t *Table) Column(name string) ([]float64, error) {
	values, ok := t.columns[name]
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}
	return values, nil
}

// HasColumn reports whether the table has the named column
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Value returns a single cell
func (t *Table) Value(name string, row int) (float64, error) {
	values, err := t.Column(name)
	if err != nil {
		return 0, err
	}
	if row < 0 || row >= len(values) {
		return 0, core.NewIndexError("row", row, len(values))
	}
	return values[row], nil
}

// Names returns the column names in insertion order
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Len returns the number of rows
func (t *Table) Len() int {
	if len(t.names) == 0 {
		return 0
	}
	return len(t.columns[t.names[0]])
}

// Slice returns the rows [from, to) as a new table
func (t *Table) Slice(from, to int) (*Table, error) {
	n := t.Len()
	if from < 0 || to > n || from > to {
		return nil, fmt.Errorf("%w: rows [%d, %d) of a table with %d rows", core.ErrIndexOutOfRange, from, to, n)
	}
	out := NewTable()
	for _, name := range t.names {
		out.names = append(out.names, name)
		out.columns[name] = append([]float64(nil), t.columns[name][from:to]...)
	}
	return out, nil
}

// Row returns one row keyed by column name
func (t *Table) Row(i int) (map[string]float64, error) {
	if i < 0 || i >= t.Len() {
		return nil, core.NewIndexError("row", i, t.Len())
	}
	row := make(map[string]float64, len(t.names))
	for _, name := range t.names {
		row[name] = t.columns[name][i]
	}
	return row, nil
}

// MarshalJSON encodes the table as an object of columns, keeping column order
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range t.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		values, err := json.Marshal(t.columns[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(values)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of columns, keeping document order
func (t *Table) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("convergence table must be a JSON object")
	}
	table := NewTable()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)
		var values []float64
		if err := dec.Decode(&values); err != nil {
			return fmt.Errorf("column %s: %w", name, err)
		}
		if err := table.AddColumn(name, values); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*t = *table
	return nil
}
