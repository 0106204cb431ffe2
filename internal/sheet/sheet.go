// Package sheet serializes extracted tables into Excel workbooks.
package sheet

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/quadra/itemx/internal/models"
	"github.com/quadra/itemx/internal/table"
)

const sheetName = "Sheet1"

// Column widths tuned for the three-column layout: narrow quantity and code,
// a wide title.
var columnWidths = map[string]float64{"A": 8, "B": 18, "C": 60}

// headerRow is the fixed header written above the records.
var headerRow = []string{table.ColQuantity, table.ColCode, table.ColTitle}

// Write serializes the table as an .xlsx workbook to w: one header row, one
// row per record, in table order.
func Write(t *models.Table, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, label := range headerRow {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, label); err != nil {
			return fmt.Errorf("set header %q: %w", label, err)
		}
	}
	for col, width := range columnWidths {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width %s: %w", col, err)
		}
	}

	for i, rec := range t.Records {
		row := i + 2
		values := []string{rec.Quantity, rec.Code, rec.Title}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, row)
			if err != nil {
				return fmt.Errorf("cell for row %d: %w", row, err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile serializes the table to an .xlsx file at path, creating parent
// directories as needed.
func WriteFile(t *models.Table, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := Write(t, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// OutputName returns the workbook file name derived from the source PDF name.
func OutputName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)] + "_extracao.xlsx"
}
