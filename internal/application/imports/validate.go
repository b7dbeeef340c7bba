package imports

import (
	"fmt"
	"sort"
	"strings"

	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

const (
	maxReportedRowErrors = 10
	maxCohortSuggestions = 5
)

// ValidationError is the fail-closed rejection of a whole file: the import
// never accepts a valid subset, so any row error aborts the attempt.
type ValidationError struct {
	RowErrors []domain.RowError
	Remainder int
}

func newValidationError(rowErrs []domain.RowError) *ValidationError {
	sort.SliceStable(rowErrs, func(i, j int) bool { return rowErrs[i].Row < rowErrs[j].Row })

	failure := &ValidationError{RowErrors: rowErrs}
	if len(rowErrs) > maxReportedRowErrors {
		failure.RowErrors = rowErrs[:maxReportedRowErrors]
		failure.Remainder = len(rowErrs) - maxReportedRowErrors
	}
	return failure
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.RowErrors))
	for _, rowErr := range e.RowErrors {
		lines = append(lines, rowErr.Error())
	}
	message := "import rejected: " + strings.Join(lines, "; ")
	if e.Remainder > 0 {
		message += fmt.Sprintf(" (and %d more rows)", e.Remainder)
	}
	return message
}

func validateRecords(raws []domain.RawRecord, cohorts []domain.Cohort) ([]domain.UserRecord, []domain.RowError) {
	cohortsByName := make(map[string]domain.Cohort, len(cohorts))
	for _, cohort := range cohorts {
		cohortsByName[strings.TrimSpace(cohort.Name)] = cohort
	}

	var records []domain.UserRecord
	var rowErrs []domain.RowError

	for _, raw := range raws {
		missing := false
		for _, field := range requiredColumns {
			if raw.Get(field) == "" {
				rowErrs = append(rowErrs, domain.RowError{Row: raw.Row, Message: field + " is required"})
				missing = true
			}
		}
		if missing {
			continue
		}

		email := raw.Get("email")
		if !domain.ValidEmail(email) {
			rowErrs = append(rowErrs, domain.RowError{Row: raw.Row, Message: fmt.Sprintf("invalid email %q", email)})
			continue
		}

		record := domain.UserRecord{
			Email:            email,
			FirstName:        raw.Get("first_name"),
			LastName:         raw.Get("last_name"),
			OrganizationName: raw.Get("organization_name"),
			Department:       raw.Get("department"),
			Role:             domain.NormalizeRole(raw.Get("role")),
			CohortName:       raw.Get("cohort_name"),
			Password:         raw.Get("password"),
		}

		if record.CohortName != "" {
			cohort, ok := cohortsByName[record.CohortName]
			if !ok {
				rowErrs = append(rowErrs, domain.RowError{
					Row:     raw.Row,
					Message: unknownCohortMessage(record.CohortName, cohorts),
				})
				continue
			}
			record.CohortID = cohort.ID
		}

		records = append(records, record)
	}

	return records, rowErrs
}

func unknownCohortMessage(name string, cohorts []domain.Cohort) string {
	if len(cohorts) == 0 {
		return fmt.Sprintf("unknown cohort %q: the cohort directory is empty", name)
	}

	suggestions := make([]string, 0, maxCohortSuggestions)
	for _, cohort := range cohorts {
		if len(suggestions) == maxCohortSuggestions {
			break
		}
		suggestions = append(suggestions, cohort.Name)
	}

	message := fmt.Sprintf("unknown cohort %q: known cohorts are %s", name, strings.Join(suggestions, ", "))
	if extra := len(cohorts) - len(suggestions); extra > 0 {
		message += fmt.Sprintf(" (and %d more)", extra)
	}
	return message
}
