package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// utf8BOM makes spreadsheet tools detect UTF-8, which Arabic teacher and
// student names need.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dataset is tabular content; each row maps header to cell.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Sheet is a titled Dataset with notes printed above the table.
type Sheet struct {
	Title string
	Notes []string
	Dataset
}

// CSVExporter renders a Sheet as CSV. Title and notes are left out so the
// file imports cleanly.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header row and one record per row.
func (e *CSVExporter) Render(sheet Sheet) ([]byte, error) {
	if len(sheet.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(sheet.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range sheet.Rows {
		record := make([]string, len(sheet.Headers))
		for i, h := range sheet.Headers {
			record[i] = neutralise(row[h])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// neutralise prefixes cells a spreadsheet would evaluate as a formula. Names
// are user input.
func neutralise(cell string) string {
	if cell != "" && strings.ContainsRune("=+-@", rune(cell[0])) {
		return "'" + cell
	}
	return cell
}
