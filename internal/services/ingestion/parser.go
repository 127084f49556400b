package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"picking-verification-backend/internal/apperrors"
	"picking-verification-backend/internal/models"
)

// Parse reads an uploaded picking file into a Dataset. The format is
// chosen from the file name's extension.
func Parse(filename string, r io.Reader) (models.Dataset, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return parseWorkbook(r)
	case ".csv":
		return parseCSV(r)
	default:
		return models.Dataset{}, fmt.Errorf("%w: %q (expected .xlsx or .csv)", apperrors.ErrUnsupportedFormat, filename)
	}
}

// parseWorkbook reads the first sheet of the workbook.
func parseWorkbook(r io.Reader) (models.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("%w: open workbook: %v", apperrors.ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.Dataset{}, apperrors.ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return models.Dataset{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return toDataset(rows)
}

func parseCSV(r io.Reader) (models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return models.Dataset{}, fmt.Errorf("%w: read csv: %v", apperrors.ErrUnsupportedFormat, err)
	}
	return toDataset(rows)
}

// toDataset takes the first non-blank line as the header. Header cells are
// trimmed, data cells are kept as written, and blank lines are skipped.
func toDataset(rows [][]string) (models.Dataset, error) {
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return models.Dataset{}, apperrors.ErrEmptyFile
	}

	header := make([]string, len(rows[start]))
	for i, h := range rows[start] {
		header[i] = strings.TrimSpace(h)
	}

	grid := [][]string{header}
	for _, line := range rows[start+1:] {
		if isBlank(line) {
			continue
		}
		grid = append(grid, line)
	}
	return models.DatasetFromGrid(grid), nil
}

func isBlank(line []string) bool {
	return strings.TrimSpace(strings.Join(line, "")) == ""
}
