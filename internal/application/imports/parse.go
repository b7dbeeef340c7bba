package imports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

const commentMarker = '#'

var requiredColumns = []string{"email", "first_name", "last_name", "role"}

// ParseRecords decodes raw file content into ordered RawRecords. Fatal
// problems (unreadable file, missing required headers) come back as an
// error; per-row problems come back as RowErrors alongside the rows that
// did decode.
func ParseRecords(content []byte, format domain.FileFormat) ([]domain.RawRecord, []domain.RowError, error) {
	switch format {
	case domain.FormatCSV:
		return parseDelimited(content)
	case domain.FormatXLSX:
		return parseSpreadsheet(content)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func detectFormat(fileName string) (domain.FileFormat, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return domain.FormatCSV, nil
	case ".xlsx":
		return domain.FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}
}

func parseDelimited(content []byte) ([]domain.RawRecord, []domain.RowError, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comment = commentMarker
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read delimited file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrNoHeader
	}

	columns := normalizeHeader(rows[0])
	if err := checkRequiredColumns(columns); err != nil {
		return nil, nil, err
	}

	records, rowErrs := mapRows(columns, rows[1:])
	return records, rowErrs, nil
}

func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(name))
	}
	return columns
}

func checkRequiredColumns(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, name := range columns {
		present[name] = true
	}

	var missing []string
	for _, name := range requiredColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required columns: %s (found: %s)",
		strings.Join(missing, ", "), strings.Join(columns, ", "))
}

// mapRows turns data rows into RawRecords. Both input encodings funnel
// through here so validation sees one row model. Rows are numbered from 1,
// header excluded; all-empty rows consume a number but emit nothing.
func mapRows(columns []string, rows [][]string) ([]domain.RawRecord, []domain.RowError) {
	var records []domain.RawRecord
	var rowErrs []domain.RowError

	for i, fields := range rows {
		row := i + 1
		if len(fields) != len(columns) {
			rowErrs = append(rowErrs, domain.RowError{
				Row:     row,
				Message: fmt.Sprintf("expected %d columns, found %d", len(columns), len(fields)),
			})
			continue
		}

		mapped := domain.RawRecord{Row: row, Fields: make(map[string]string, len(columns))}
		for j, name := range columns {
			if name == "" {
				continue
			}
			mapped.Fields[name] = strings.TrimSpace(fields[j])
		}
		if mapped.Empty() {
			continue
		}
		records = append(records, mapped)
	}

	return records, rowErrs
}
