package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"playreviews/pkg/models"
)

func sample() []models.FilteredReview {
	return []models.FilteredReview{
		{Rating: 5, Content: "Отлично, всё работает", Date: "2023-06-01", Language: "ru"},
		{Rating: 1, Content: "Line one\nline \"two\"", Date: "2023-06-02", Language: "en"},
	}
}

func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CSVExporter{IncludeLanguage: true}).Export(&buf, sample()))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"rating", "title", "content", "date", "language"}, records[0])
	assert.Equal(t, []string{"5", "", "Отлично, всё работает", "2023-06-01", "ru"}, records[1])
	assert.Equal(t, "Line one\nline \"two\"", records[2][2])
}

func TestCSVExportWithoutLanguage(t *testing.T) {
	var buf bytes.Buffer
	exp := &CSVExporter{}
	require.NoError(t, exp.Export(&buf, sample()[:1]))

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(buf.String(), "\ufeff")), "\n")
	assert.Equal(t, "rating,title,content,date", lines[0])
	assert.Equal(t, "csv", exp.Extension())
}

func TestXLSXExport(t *testing.T) {
	var buf bytes.Buffer
	exp := &XLSXExporter{IncludeLanguage: true}
	require.NoError(t, exp.Export(&buf, sample()))
	assert.Equal(t, "xlsx", exp.Extension())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheetName}, f.GetSheetList())

	rows, err := f.GetRows(DefaultSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"rating", "title", "content", "date", "language"}, rows[0])
	assert.Equal(t, "5", rows[1][0])
	assert.Equal(t, "Отлично, всё работает", rows[1][2])

	width, err := f.GetColWidth(DefaultSheetName, "D")
	require.NoError(t, err)
	assert.Equal(t, float64(len("2023-06-01")+2), width)
}

func TestColumnWidthsCapped(t *testing.T) {
	rows := [][]string{{"5", "", strings.Repeat("ж", 200), "2023-01-01"}}
	widths := columnWidths(Columns(false), rows)

	assert.Equal(t, []float64{8, 7, 50, 12}, widths)
}

func TestForFormat(t *testing.T) {
	exps, err := ForFormat("both", true)
	require.NoError(t, err)
	require.Len(t, exps, 2)
	assert.Equal(t, "csv", exps[0].Extension())
	assert.Equal(t, "xlsx", exps[1].Extension())

	exps, err = ForFormat("XLSX", false)
	require.NoError(t, err)
	require.Len(t, exps, 1)

	_, err = ForFormat("pdf", false)
	assert.Error(t, err)
}
