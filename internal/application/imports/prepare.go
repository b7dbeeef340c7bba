package imports

import (
	"context"
	"fmt"
	"log"

	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

type cohortLister interface {
	List(ctx context.Context) ([]domain.Cohort, error)
}

type PrepareImportInput struct {
	SessionKey   string
	FileName     string
	FileSize     int64
	Content      []byte
	SkipExisting bool
}

type PrepareImportOutput struct {
	SessionKey string       `json:"session_key"`
	Total      int          `json:"total"`
	Phase      domain.Phase `json:"phase"`
}

type PrepareImport interface {
	Execute(ctx context.Context, in PrepareImportInput) (PrepareImportOutput, error)
}

type prepareImport struct {
	store   SessionStore
	cohorts cohortLister
}

func NewPrepareImport(store SessionStore, cohorts cohortLister) PrepareImport {
	return &prepareImport{store: store, cohorts: cohorts}
}

// Execute parses and validates the uploaded file, fail-closed: any row error
// rejects the whole file and resets the session, so uploading can only ever
// start from a fully clean record set. On success the validated records are
// checkpointed into the snapshot and re-parsing is never needed again.
func (uc *prepareImport) Execute(ctx context.Context, in PrepareImportInput) (PrepareImportOutput, error) {
	format, err := detectFormat(in.FileName)
	if err != nil {
		return PrepareImportOutput{}, err
	}

	snapshot := domain.SessionSnapshot{
		Phase:   domain.PhaseParsing,
		File:    domain.FileMeta{Name: in.FileName, Size: in.FileSize, Format: format},
		Options: domain.Options{SkipExisting: in.SkipExisting},
	}
	if err := uc.store.Save(ctx, in.SessionKey, snapshot); err != nil {
		return PrepareImportOutput{}, fmt.Errorf("checkpoint parsing phase: %w", err)
	}

	raws, rowErrs, err := ParseRecords(in.Content, format)
	if err != nil {
		uc.discard(ctx, in.SessionKey)
		return PrepareImportOutput{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	directory, err := uc.cohorts.List(ctx)
	if err != nil {
		uc.discard(ctx, in.SessionKey)
		return PrepareImportOutput{}, fmt.Errorf("load cohort directory: %w", err)
	}

	records, validationErrs := validateRecords(raws, directory)
	rowErrs = append(rowErrs, validationErrs...)
	if len(rowErrs) > 0 {
		uc.discard(ctx, in.SessionKey)
		return PrepareImportOutput{}, newValidationError(rowErrs)
	}
	if len(records) == 0 {
		uc.discard(ctx, in.SessionKey)
		return PrepareImportOutput{}, ErrNoRecords
	}

	snapshot.Phase = domain.PhaseParsed
	snapshot.Records = records
	snapshot.Progress = domain.Progress{Total: len(records)}
	if err := uc.store.Save(ctx, in.SessionKey, snapshot); err != nil {
		return PrepareImportOutput{}, fmt.Errorf("checkpoint parsed records: %w", err)
	}

	return PrepareImportOutput{
		SessionKey: in.SessionKey,
		Total:      len(records),
		Phase:      snapshot.Phase,
	}, nil
}

func (uc *prepareImport) discard(ctx context.Context, sessionKey string) {
	if err := uc.store.Clear(ctx, sessionKey); err != nil {
		log.Printf("discard rejected session %s: %v", sessionKey, err)
	}
}
