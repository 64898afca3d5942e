package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct {
	SheetName string
}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{SheetName: "Schedule"}
}

// Render writes an optional title row, a styled header row and the records.
func (e *XLSXExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := e.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return nil, fmt.Errorf("create sheet: %w", err)
		}
		f.SetActiveSheet(idx)
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("drop default sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	row := 1
	lastCol, _ := excelize.ColumnNumberToName(len(data.Headers))
	if title != "" {
		if err := f.SetCellValue(sheet, "A1", title); err != nil {
			return nil, fmt.Errorf("write title: %w", err)
		}
		if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
			return nil, fmt.Errorf("merge title: %w", err)
		}
		row++
	}

	for i, header := range data.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(data.Headers), row)
	if err := f.SetCellStyle(sheet, first, last, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	for _, record := range data.Rows {
		row++
		for i, value := range data.record(record) {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
