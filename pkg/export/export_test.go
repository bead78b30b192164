package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSheet() Sheet {
	return Sheet{
		Title: "Open trial slots",
		Notes: []string{"Client zone: saudi"},
		Dataset: Dataset{
			Headers: []string{"Client time", "Teachers"},
			Rows: []map[string]string{
				{"Client time": "7:00 PM-7:30 PM", "Teachers": "Amal, Basma"},
			},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleSheet())
	require.NoError(t, err)
	assert.Equal(t, "\ufeffClient time,Teachers\n7:00 PM-7:30 PM,\"Amal, Basma\"\n", string(out))

	_, err = NewCSVExporter().Render(Sheet{})
	assert.Error(t, err)
}

func TestCSVExporterNeutralisesFormulas(t *testing.T) {
	sheet := sampleSheet()
	sheet.Rows = []map[string]string{{"Client time": "=HYPERLINK(\"x\")", "Teachers": "-Amal"}}
	out, err := NewCSVExporter().Render(sheet)
	require.NoError(t, err)
	assert.Contains(t, string(out), "'-Amal")
	assert.Contains(t, string(out), "\"'=HYPERLINK(\"\"x\"\")\"")
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleSheet())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty := sampleSheet()
	empty.Rows = nil
	out, err = NewPDFExporter().Render(empty)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(Sheet{Dataset: Dataset{Headers: []string{"a", "b", "c"}}})
	total := 0.0
	for _, w := range widths {
		total += w
	}
	assert.InDelta(t, pageWidth, total, 0.001)
	assert.Greater(t, widths[2], widths[0])
}
