package imports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

var templateColumns = []string{
	"email", "first_name", "last_name", "organization_name",
	"department", "role", "cohort_name", "password",
}

var templateSampleRow = []string{
	"alice@example.com", "Alice", "Nguyen", "Example Corp",
	"Learning & Development", "user", "", "",
}

type BuildTemplateInput struct {
	Format domain.FileFormat
}

type BuildTemplateOutput struct {
	FileName    string
	ContentType string
	Content     []byte
}

type BuildTemplate interface {
	Execute(ctx context.Context, in BuildTemplateInput) (BuildTemplateOutput, error)
}

type buildTemplate struct {
	cohorts cohortLister
}

func NewBuildTemplate(cohorts cohortLister) BuildTemplate {
	return &buildTemplate{cohorts: cohorts}
}

func (uc *buildTemplate) Execute(ctx context.Context, in BuildTemplateInput) (BuildTemplateOutput, error) {
	directory, err := uc.cohorts.List(ctx)
	if err != nil {
		return BuildTemplateOutput{}, fmt.Errorf("load cohort directory: %w", err)
	}

	switch in.Format {
	case domain.FormatCSV:
		content, err := buildCSVTemplate(directory)
		if err != nil {
			return BuildTemplateOutput{}, err
		}
		return BuildTemplateOutput{
			FileName:    "user_import_template.csv",
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case domain.FormatXLSX:
		content, err := buildXLSXTemplate(directory)
		if err != nil {
			return BuildTemplateOutput{}, err
		}
		return BuildTemplateOutput{
			FileName:    "user_import_template.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Content:     content,
		}, nil
	default:
		return BuildTemplateOutput{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, in.Format)
	}
}

func buildCSVTemplate(cohorts []domain.Cohort) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Bulk user import template\n")
	buf.WriteString("# Required columns: email, first_name, last_name, role\n")
	buf.WriteString("# Roles: user, admin, super_admin\n")
	buf.WriteString("# Leave password empty to assign the default password at import time.\n")
	if len(cohorts) == 0 {
		buf.WriteString("# No cohorts are defined yet; leave cohort_name empty.\n")
	} else {
		buf.WriteString("# cohort_name must exactly match one of:\n")
		for _, cohort := range cohorts {
			fmt.Fprintf(&buf, "#   %s (%s)\n", cohort.Name, cohort.OrganizationName)
		}
	}

	writer := csv.NewWriter(&buf)
	if err := writer.Write(templateColumns); err != nil {
		return nil, fmt.Errorf("write template header: %w", err)
	}
	if err := writer.Write(templateSampleRow); err != nil {
		return nil, fmt.Errorf("write template sample row: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush template: %w", err)
	}

	return buf.Bytes(), nil
}

func buildXLSXTemplate(cohorts []domain.Cohort) ([]byte, error) {
	workbook := excelize.NewFile()
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)

	header := make([]any, len(templateColumns))
	for i, name := range templateColumns {
		header[i] = name
	}
	if err := workbook.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write template header: %w", err)
	}

	sample := make([]any, len(templateSampleRow))
	for i, value := range templateSampleRow {
		sample[i] = value
	}
	if err := workbook.SetSheetRow(sheet, "A2", &sample); err != nil {
		return nil, fmt.Errorf("write template sample row: %w", err)
	}

	if _, err := workbook.NewSheet("Cohorts"); err != nil {
		return nil, fmt.Errorf("create cohorts sheet: %w", err)
	}
	if err := workbook.SetSheetRow("Cohorts", "A1", &[]any{"cohort_name", "organization"}); err != nil {
		return nil, fmt.Errorf("write cohorts header: %w", err)
	}
	for i, cohort := range cohorts {
		cell := fmt.Sprintf("A%d", i+2)
		if err := workbook.SetSheetRow("Cohorts", cell, &[]any{cohort.Name, cohort.OrganizationName}); err != nil {
			return nil, fmt.Errorf("write cohort row: %w", err)
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize template: %w", err)
	}
	return buf.Bytes(), nil
}
