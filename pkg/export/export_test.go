package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() Dataset {
	return Dataset{
		Title:   "State Coverage",
		Headers: []string{"state", "children", "resolution_rate"},
		Rows: []map[string]string{
			{"state": "Lagos", "children": "12", "resolution_rate": "0.5"},
			{"state": "Kano", "children": "3"},
		},
	}
}

func TestCSVExporter(t *testing.T) {
	out, err := NewCSVExporter().Render(sample())
	require.NoError(t, err)
	assert.Equal(t, "state,children,resolution_rate\nLagos,12,0.5\nKano,3,\n", string(out))
}

func TestExportersRequireHeaders(t *testing.T) {
	for _, r := range []Renderer{NewCSVExporter(), NewPDFExporter(), NewXLSXExporter()} {
		_, err := r.Render(Dataset{})
		assert.Error(t, err, r.Extension())
	}
}

func TestPDFExporter(t *testing.T) {
	out, err := NewPDFExporter().Render(sample())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporter(t *testing.T) {
	out, err := NewXLSXExporter().Render(sample())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("State Coverage")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"state", "children", "resolution_rate"}, rows[0])
	assert.Equal(t, "Lagos", rows[1][0])
	assert.Equal(t, "12", rows[1][1])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Equal(t, "xlsx", RendererFor(f).Extension())

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}
