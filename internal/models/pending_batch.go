package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchCommitting BatchStatus = "committing"
	BatchCommitted  BatchStatus = "committed"
	BatchAborted    BatchStatus = "aborted"
	BatchExpired    BatchStatus = "expired"
)

// PendingBatch holds an uploaded file between reconciliation and the
// operator's decision. Rows are stored positionally against Header.
// A batch is BatchCommitting while a decision holds it; one left there
// after a failed bookkeeping write is never decided again.
type PendingBatch struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Filename         string
	Header           datatypes.JSON
	Rows             datatypes.JSON
	RowCount         int
	ConflictCount    int
	ConflictKeys     datatypes.JSON
	StoredMatchCount int
	Status           BatchStatus `gorm:"index"`
	Decision         string
	LastError        string
	ExpiresAt        time.Time `gorm:"index"`
	DecidedAt        *time.Time
	CreatedAt        time.Time
}

func (b *PendingBatch) SetDataset(ds Dataset) error {
	header, err := json.Marshal(ds.Header)
	if err != nil {
		return err
	}
	rows, err := json.Marshal(ds.Values())
	if err != nil {
		return err
	}
	b.Header = header
	b.Rows = rows
	b.RowCount = ds.Len()
	return nil
}

func (b *PendingBatch) Dataset() (Dataset, error) {
	var header []string
	if err := json.Unmarshal(b.Header, &header); err != nil {
		return Dataset{}, err
	}
	var rows [][]string
	if len(b.Rows) > 0 {
		if err := json.Unmarshal(b.Rows, &rows); err != nil {
			return Dataset{}, err
		}
	}
	return DatasetFromGrid(append([][]string{header}, rows...)), nil
}

func (b *PendingBatch) SetConflictKeys(keys []string) error {
	if keys == nil {
		keys = []string{}
	}
	raw, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	b.ConflictKeys = raw
	return nil
}

func (b *PendingBatch) ReviewedKeys() ([]string, error) {
	var keys []string
	if len(b.ConflictKeys) == 0 {
		return keys, nil
	}
	if err := json.Unmarshal(b.ConflictKeys, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (b *PendingBatch) IsExpired(now time.Time) bool {
	return b.Status == BatchExpired || (b.Status == BatchPending && now.After(b.ExpiresAt))
}
