package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Section is a titled block of rows in an agenda document, one per day.
type Section struct {
	Title string
	Rows  []map[string]string
}

// PDFExporter renders agenda sections into a landscape table document.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with a title, then one header row and table per section.
// Sections without rows print a single "No events" line.
func (e *PDFExporter) Render(columns []Column, sections []Section, title string) ([]byte, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	widths := columnWidths(columns, 277.0)
	for _, section := range sections {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, tr(section.Title), "", 1, "L", false, 0, "")

		if len(section.Rows) == 0 {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(0, 6, "No events", "", 1, "L", false, 0, "")
			pdf.Ln(2)
			continue
		}

		pdf.SetFont("Arial", "B", 9)
		for i, col := range columns {
			pdf.CellFormat(widths[i], 7, tr(col.heading()), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range section.Rows {
			for i, col := range columns {
				pdf.CellFormat(widths[i], 6, tr(row[col.Key]), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(2)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths splits total proportionally to column weights. A column without
// a weight counts as 1.
func columnWidths(columns []Column, total float64) []float64 {
	sum := 0.0
	weights := make([]float64, len(columns))
	for i, col := range columns {
		weights[i] = col.Weight
		if weights[i] <= 0 {
			weights[i] = 1
		}
		sum += weights[i]
	}
	for i := range weights {
		weights[i] = total * weights[i] / sum
	}
	return weights
}
