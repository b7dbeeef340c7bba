package imports

import (
	"context"
	"fmt"

	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

type completedReader interface {
	Completed(sessionKey string) (domain.SessionSnapshot, bool)
}

type ImportStatusOutput struct {
	SessionKey string          `json:"session_key"`
	Phase      domain.Phase    `json:"phase"`
	File       domain.FileMeta `json:"file"`
	Progress   domain.Progress `json:"progress"`
	Options    domain.Options  `json:"options"`
	Resumable  bool            `json:"resumable"`
}

type GetImportStatus interface {
	Execute(ctx context.Context, sessionKey string) (ImportStatusOutput, error)
}

type getImportStatus struct {
	store     SessionStore
	completed completedReader
}

func NewGetImportStatus(store SessionStore, completed completedReader) GetImportStatus {
	return &getImportStatus{store: store, completed: completed}
}

// Execute is the resume probe: a durable snapshot wins, a completed result
// is still visible until reset, and anything else reads as a fresh session.
func (uc *getImportStatus) Execute(ctx context.Context, sessionKey string) (ImportStatusOutput, error) {
	snapshot, err := uc.store.Load(ctx, sessionKey)
	if err != nil {
		return ImportStatusOutput{}, fmt.Errorf("load session: %w", err)
	}
	if snapshot != nil {
		return ImportStatusOutput{
			SessionKey: sessionKey,
			Phase:      snapshot.Phase,
			File:       snapshot.File,
			Progress:   snapshot.Progress,
			Options:    snapshot.Options,
			Resumable:  snapshot.Resumable(),
		}, nil
	}

	if finished, ok := uc.completed.Completed(sessionKey); ok {
		return ImportStatusOutput{
			SessionKey: sessionKey,
			Phase:      finished.Phase,
			File:       finished.File,
			Progress:   finished.Progress,
			Options:    finished.Options,
		}, nil
	}

	return ImportStatusOutput{SessionKey: sessionKey, Phase: domain.PhaseIdle}, nil
}
