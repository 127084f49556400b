package ingestion

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"picking-verification-backend/internal/models"
)

const defaultSheet = "Sheet1"

// WriteWorkbook writes ds, header first, into a single-sheet workbook.
// Every cell is written as text so values read back exactly.
func WriteWorkbook(w io.Writer, sheet string, ds models.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = defaultSheet
	}
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("name sheet: %w", err)
		}
	}

	for i, line := range ds.Grid() {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(line))
		for j, v := range line {
			cells[j] = v
		}
		if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
