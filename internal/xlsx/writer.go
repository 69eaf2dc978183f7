package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// BuildWorkbook creates a single-sheet workbook with a header row followed by
// one row per record. Column order follows the headers slice.
func BuildWorkbook(sheet string, headers []string, rows [][]any) (*excelize.File, error) {
	f := excelize.NewFile()

	// The default sheet is "Sheet1"; rename rather than create-and-delete.
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	hdr := make([]any, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f, nil
}

// WorkbookBytes renders a workbook to an in-memory buffer, suitable for an
// HTTP download response.
func WorkbookBytes(f *excelize.File) (*bytes.Buffer, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf, nil
}
