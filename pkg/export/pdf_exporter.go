package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth   = 277.0
	headerH     = 8.0
	rowH        = 7.0
	pageBreakAt = 190.0
)

// PDFExporter renders a Sheet as a landscape table for printing or sharing
// with a client.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the PDF. Column headers repeat on every page.
func (e *PDFExporter) Render(sheet Sheet) ([]byte, error) {
	if len(sheet.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	widths := columnWidths(sheet)

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range sheet.Headers {
			pdf.CellFormat(widths[i], headerH, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.AddPage()
	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(sheet.Title), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Arial", "", 9)
	for _, note := range sheet.Notes {
		pdf.CellFormat(0, 5, tr(note), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
	header()

	if len(sheet.Rows) == 0 {
		pdf.CellFormat(pageWidth, rowH, "No open slots in this window.", "1", 1, "C", false, 0, "")
	}
	for _, row := range sheet.Rows {
		if pdf.GetY()+rowH > pageBreakAt {
			pdf.AddPage()
			header()
		}
		for i, h := range sheet.Headers {
			pdf.CellFormat(widths[i], rowH, tr(row[h]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths gives the last column the remaining width, since it usually
// carries the longest text.
func columnWidths(sheet Sheet) []float64 {
	n := len(sheet.Headers)
	widths := make([]float64, n)
	if n == 1 {
		widths[0] = pageWidth
		return widths
	}
	fixed := pageWidth * 0.6 / float64(n-1)
	for i := 0; i < n-1; i++ {
		widths[i] = fixed
	}
	widths[n-1] = pageWidth - fixed*float64(n-1)
	return widths
}
