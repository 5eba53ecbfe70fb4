// Package export serializes the filtered dataset.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"playreviews/pkg/models"
)

// Exporter writes reviews in one file format
type Exporter interface {
	Export(w io.Writer, reviews []models.FilteredReview) error
	// Extension is the file extension without the dot
	Extension() string
}

// Columns returns the output column names in order
func Columns(includeLanguage bool) []string {
	cols := []string{"rating", "title", "content", "date"}
	if includeLanguage {
		cols = append(cols, "language")
	}
	return cols
}

// row renders r as strings in Columns order
func row(r models.FilteredReview, includeLanguage bool) []string {
	out := []string{strconv.Itoa(r.Rating), r.Title, r.Content, r.Date}
	if includeLanguage {
		out = append(out, r.Language)
	}
	return out
}

// ForFormat returns the exporters for csv, xlsx or both
func ForFormat(format string, includeLanguage bool) ([]Exporter, error) {
	csvExp := &CSVExporter{IncludeLanguage: includeLanguage}
	xlsxExp := &XLSXExporter{IncludeLanguage: includeLanguage}

	switch strings.ToLower(format) {
	case "csv":
		return []Exporter{csvExp}, nil
	case "xlsx":
		return []Exporter{xlsxExp}, nil
	case "both", "":
		return []Exporter{csvExp, xlsxExp}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
