package export

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"playreviews/pkg/models"
)

const (
	// DefaultSheetName is the worksheet holding the reviews
	DefaultSheetName = "Отзывы"
	maxColumnWidth   = 50
)

// XLSXExporter writes a single-sheet workbook
type XLSXExporter struct {
	IncludeLanguage bool
	SheetName       string
}

func (e *XLSXExporter) Extension() string { return "xlsx" }

// Export writes the workbook. Each column is as wide as its longest value
// plus two, capped at 50.
func (e *XLSXExporter) Export(w io.Writer, reviews []models.FilteredReview) error {
	sheet := e.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := Columns(e.IncludeLanguage)
	rows := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		rows = append(rows, row(r, e.IncludeLanguage))
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	for col, width := range columnWidths(header, rows) {
		if err := sw.SetColWidth(col+1, col+1, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := sw.SetRow("A1", toCells(header, -1)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		// rating stays numeric
		if err := sw.SetRow(cell, toCells(values, 0)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// columnWidths sizes each column to min(longest + 2, 50)
func columnWidths(header []string, rows [][]string) []float64 {
	widths := make([]float64, len(header))
	for col := range header {
		longest := utf8.RuneCountInString(header[col])
		for _, r := range rows {
			if n := utf8.RuneCountInString(r[col]); n > longest {
				longest = n
			}
		}
		widths[col] = float64(min(longest+2, maxColumnWidth))
	}
	return widths
}

// toCells converts values to cells; the column at numericCol becomes an int
func toCells(values []string, numericCol int) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		if i == numericCol {
			if n, err := strconv.Atoi(v); err == nil {
				cells[i] = n
				continue
			}
		}
		cells[i] = v
	}
	return cells
}
