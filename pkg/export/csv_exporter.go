package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Column is one exported field. Key is the CSV header and the row lookup key,
// Label is the printed heading and Weight sizes the column in PDF output.
type Column struct {
	Key    string
	Label  string
	Weight float64
}

func (c Column) heading() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Key
}

// Table is the tabular content of a calendar export.
type Table struct {
	Columns []Column
	Rows    []map[string]string
}

// CSVExporter renders a Table as CSV. Headers use column keys so the file
// re-imports without a label mapping.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes. Missing cells are written empty.
func (e *CSVExporter) Render(table Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	record := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		record[i] = col.Key
	}
	if err := writer.Write(record); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for n, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = inertCell(row[col.Key])
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", n+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// inertCell quotes cells a spreadsheet would evaluate as a formula. Titles and
// descriptions are free text typed by users.
func inertCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}
