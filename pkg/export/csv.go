package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"playreviews/pkg/models"
)

// utf8BOM lets spreadsheet apps detect the encoding
const utf8BOM = "\ufeff"

// CSVExporter writes UTF-8 CSV with a byte order mark
type CSVExporter struct {
	IncludeLanguage bool
}

func (e *CSVExporter) Extension() string { return "csv" }

// Export writes a header row followed by one row per review
func (e *CSVExporter) Export(w io.Writer, reviews []models.FilteredReview) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns(e.IncludeLanguage)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range reviews {
		if err := cw.Write(row(r, e.IncludeLanguage)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()

	return cw.Error()
}
