package imports

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

func parseSpreadsheet(content []byte) ([]domain.RawRecord, []domain.RowError, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("spreadsheet has no sheets")
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	headerIndex := -1
	for i, row := range rows {
		if rowHasContent(row) {
			headerIndex = i
			break
		}
	}
	if headerIndex == -1 {
		return nil, nil, ErrNoHeader
	}

	columns := normalizeHeader(rows[headerIndex])
	if err := checkRequiredColumns(columns); err != nil {
		return nil, nil, err
	}

	var data [][]string
	for _, row := range rows[headerIndex+1:] {
		if !rowHasContent(row) {
			continue
		}
		data = append(data, padRow(row, len(columns)))
	}

	records, rowErrs := mapRows(columns, data)
	return records, rowErrs, nil
}

func rowHasContent(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

// padRow reconciles a spreadsheet row with the header width: trailing empty
// cells are restored and cells beyond the header are dropped.
func padRow(row []string, width int) []string {
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
