// Package excel renders a dashboard as an xlsx workbook.
package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"bikedash/internal/export"
	"bikedash/internal/services"
)

const defaultSheet = "Sheet1"

// Workbook builds one sheet per exported table and returns the encoded file.
func Workbook(d services.Dashboard) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "Bike sharing dashboard",
		Subject:     "Bike rental aggregates",
		Creator:     "bikedash",
		Description: fmt.Sprintf("Rentals from %s to %s", d.Range.Start, d.Range.End),
		Created:     time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("set document properties: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for _, t := range export.Tables(d) {
		if err := writeSheet(f, t, headerStyle); err != nil {
			return nil, fmt.Errorf("write sheet %s: %w", t.Name, err)
		}
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, t export.Table, headerStyle int) error {
	if _, err := f.NewSheet(t.Name); err != nil {
		return err
	}

	for i, h := range t.Header {
		if err := f.SetCellValue(t.Name, cell(i+1, 1), h); err != nil {
			return err
		}
	}
	if len(t.Header) > 0 {
		if err := f.SetCellStyle(t.Name, cell(1, 1), cell(len(t.Header), 1), headerStyle); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for c, v := range row {
			if err := f.SetCellValue(t.Name, cell(c+1, r+2), v); err != nil {
				return err
			}
		}
	}

	for i := range t.Header {
		width := 14.0
		if i == 0 {
			width = 24.0
		}
		col := colLetter(i + 1)
		if err := f.SetColWidth(t.Name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func cell(col, row int) string {
	c, _ := excelize.CoordinatesToCellName(col, row)
	return c
}

func colLetter(col int) string {
	letter, _ := excelize.ColumnNumberToName(col)
	return letter
}
