package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
	"github.com/habitforge/bulk-user-import/internal/infrastructure/db/models"
)

type ImportAuditRepository struct {
	db *gorm.DB
}

func NewImportAuditRepository(db *gorm.DB) *ImportAuditRepository {
	return &ImportAuditRepository{db: db}
}

func (r *ImportAuditRepository) Record(ctx context.Context, sessionKey string, file domain.FileMeta, progress domain.Progress) error {
	row := models.ImportAudit{
		ID:           uuid.NewString(),
		SessionKey:   sessionKey,
		FileName:     file.Name,
		FileFormat:   string(file.Format),
		TotalCount:   progress.Total,
		SuccessCount: len(progress.Successes),
		ErrorCount:   len(progress.Errors),
		SkippedCount: len(progress.Skipped),
		CompletedAt:  time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create import audit: %w", err)
	}
	return nil
}
