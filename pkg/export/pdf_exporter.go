package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const landscapeWidth = 277.0

// PDFExporter renders datasets into a landscape tabular PDF.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// Render creates a PDF document with a title, generation stamp and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}
	widths := columnWidths(data.Columns, landscapeWidth)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Halaman %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 8, tr(title), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 6, "Dibuat "+e.now().Format("02-01-2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 240, 230)
		for i, col := range data.Columns {
			pdf.CellFormat(widths[i], 8, tr(col.Label), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range data.Rows {
		if pdf.GetY()+7 > pageHeight-bottom-12 {
			pdf.AddPage()
			header()
		}
		for i, col := range data.Columns {
			pdf.CellFormat(widths[i], 7, tr(fit(pdf, row[col.Key], widths[i])), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(cols []Column, total float64) []float64 {
	widths := make([]float64, len(cols))
	fixed, flexible := 0.0, 0
	for _, col := range cols {
		if col.Width > 0 {
			fixed += col.Width
		} else {
			flexible++
		}
	}
	share := 0.0
	if flexible > 0 && total > fixed {
		share = (total - fixed) / float64(flexible)
	}
	for i, col := range cols {
		if col.Width > 0 {
			widths[i] = col.Width
		} else {
			widths[i] = share
		}
	}
	return widths
}

// fit truncates value so it stays inside a cell of the given width.
func fit(pdf *gofpdf.Fpdf, value string, width float64) string {
	runes := []rune(value)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes))+2 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
