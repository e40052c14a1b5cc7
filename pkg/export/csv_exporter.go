package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

var errNoColumns = errors.New("dataset has no columns")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Column is one exported field. CSV headers use Key so files stay machine
// readable; PDF tables print Title and fall back to Key.
type Column struct {
	Key   string
	Title string
}

func (c Column) label() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Key
}

// Dataset is a table of string cells keyed by Column.Key.
type Dataset struct {
	Columns []Column
	Rows    []map[string]string
}

// Keys builds untitled columns.
func Keys(keys ...string) []Column {
	cols := make([]Column, len(keys))
	for i, k := range keys {
		cols[i] = Column{Key: k}
	}
	return cols
}

// CSVOption tunes a CSVExporter.
type CSVOption func(*CSVExporter)

// WithBOM prefixes output with a UTF-8 byte order mark so spreadsheet tools
// detect Chinese text correctly.
func WithBOM() CSVOption {
	return func(e *CSVExporter) { e.bom = true }
}

// WithFormulaGuard quotes cells that a spreadsheet would evaluate as a formula.
func WithFormulaGuard() CSVOption {
	return func(e *CSVExporter) { e.guard = true }
}

// CSVExporter renders a Dataset as CSV. Missing cells are left blank.
type CSVExporter struct {
	bom   bool
	guard bool
}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter(opts ...CSVOption) *CSVExporter {
	e := &CSVExporter{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render encodes the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, fmt.Errorf("render csv: %w", errNoColumns)
	}
	var buf bytes.Buffer
	if e.bom {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(&buf)

	record := make([]string, len(data.Columns))
	for i, col := range data.Columns {
		record[i] = col.Key
	}
	if err := w.Write(record); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for n, row := range data.Rows {
		for i, col := range data.Columns {
			record[i] = e.cell(row[col.Key])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", n+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *CSVExporter) cell(v string) string {
	if e.guard && v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
