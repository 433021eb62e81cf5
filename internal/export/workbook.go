package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
)

// headerStyle is bold white 12pt on a dark fill, centered, thin borders.
var headerStyle = &excelize.Style{
	Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
	Fill: excelize.Fill{Type: "pattern", Color: []string{"333333"}, Pattern: 1},
	Alignment: &excelize.Alignment{
		Horizontal: "center",
		Vertical:   "center",
	},
	Border: []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	},
}

// NewWorkbook returns a single-sheet workbook with the styled header row
// followed by rows, all written as text.
func NewWorkbook(sheet string, headers []string, rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	style, err := f.NewStyle(headerStyle)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	for r, cells := range rows {
		row := make([]any, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	// Widen the landmark column
	_ = f.SetColWidth(sheet, "A", "B", 22)
	_ = f.SetColWidth(sheet, "C", "C", 60)
	return f, nil
}

// SaveExtractionWorkbook writes the per-report extraction workbook to path.
func SaveExtractionWorkbook(path string, rows [][]string) error {
	f, err := NewWorkbook(constants.ExtractionSheet, constants.ExtractionHeaders, rows)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx save %s: %w", path, err)
	}
	return nil
}
