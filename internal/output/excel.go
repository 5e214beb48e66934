// internal/output/excel.go
package output

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const excelSheetName = "Results"

// ExcelWriter writes records to an xlsx workbook, one row per case, with
// failing rows highlighted.
type ExcelWriter struct {
	filename string
	file     *excelize.File
}

// NewExcelWriter creates a new Excel writer
func NewExcelWriter(filename string) (*ExcelWriter, error) {
	if filename == "" {
		return nil, fmt.Errorf("Excel file path is required")
	}

	file := excelize.NewFile()
	if err := file.SetSheetName(file.GetSheetName(0), excelSheetName); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	return &ExcelWriter{filename: filename, file: file}, nil
}

// Write writes the header and the records, then saves the workbook
func (w *ExcelWriter) Write(ctx context.Context, records []Record) error {
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := w.file.SetSheetRow(excelSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	headerStyle, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := w.file.SetCellStyle(excelSheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	problemStyle, err := w.file.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"F4CCCC"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create row style: %w", err)
	}

	for i, r := range records {
		rowNum := i + 2
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		values := r.row()
		if err := w.file.SetSheetRow(excelSheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowNum, err)
		}
		if r.Outcome != OutcomePass {
			end := fmt.Sprintf("%s%d", lastCol, rowNum)
			if err := w.file.SetCellStyle(excelSheetName, cell, end, problemStyle); err != nil {
				return fmt.Errorf("failed to style row %d: %w", rowNum, err)
			}
		}
	}

	if err := w.file.SetPanes(excelSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	return w.file.SaveAs(w.filename)
}

// Close closes the workbook
func (w *ExcelWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
