package models

import "time"

type Cohort struct {
	ID               string `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name             string `gorm:"size:255;not null;uniqueIndex"`
	OrganizationName string `gorm:"size:255;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Cohort) TableName() string {
	return "cohorts"
}
