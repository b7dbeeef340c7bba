package models

import "time"

type ImportAudit struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	SessionKey   string `gorm:"type:text;not null;index"`
	FileName     string `gorm:"type:text;not null"`
	FileFormat   string `gorm:"type:text;not null"`
	TotalCount   int    `gorm:"not null;default:0"`
	SuccessCount int    `gorm:"not null;default:0"`
	ErrorCount   int    `gorm:"not null;default:0"`
	SkippedCount int    `gorm:"not null;default:0"`
	CompletedAt  time.Time
	CreatedAt    time.Time
}

func (ImportAudit) TableName() string {
	return "import_audits"
}
