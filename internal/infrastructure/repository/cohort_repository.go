package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
	"github.com/habitforge/bulk-user-import/internal/infrastructure/db/models"
)

type CohortRepository struct {
	db *gorm.DB
}

func NewCohortRepository(db *gorm.DB) *CohortRepository {
	return &CohortRepository{db: db}
}

func (r *CohortRepository) List(ctx context.Context) ([]domain.Cohort, error) {
	var rows []models.Cohort

	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list cohorts: %w", err)
	}

	cohorts := make([]domain.Cohort, 0, len(rows))
	for _, row := range rows {
		cohorts = append(cohorts, domain.Cohort{
			ID:               row.ID,
			Name:             row.Name,
			OrganizationName: row.OrganizationName,
		})
	}

	return cohorts, nil
}
