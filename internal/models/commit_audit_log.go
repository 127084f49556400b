package models

import (
	"time"

	"github.com/google/uuid"
)

type CommitAuditLog struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID       uuid.UUID `gorm:"index"`
	Decision      string
	Appended      bool
	RowCount      int
	ConflictCount int
	PerformedBy   string
	Error         string
	CreatedAt     time.Time
}
