package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StoreRow is one line of the live store table when it is kept in
// Postgres. The lowest ID is the header line.
type StoreRow struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	Cells     datatypes.JSON
	CreatedAt time.Time
}

func (StoreRow) TableName() string {
	return "store_rows"
}

// StoreSnapshot is a verbatim copy of the store, header included.
type StoreSnapshot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"uniqueIndex"`
	Cells     datatypes.JSON
	RowCount  int
	CreatedAt time.Time
}

func (StoreSnapshot) TableName() string {
	return "store_snapshots"
}
