package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"picking-verification-backend/internal/apperrors"
	"picking-verification-backend/internal/models"
)

// PostgresStore keeps the live table in store_rows and snapshots in
// store_snapshots.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ReadAll(ctx context.Context) ([][]string, error) {
	_, lines, err := s.load(s.db.WithContext(ctx))
	return lines, err
}

func (s *PostgresStore) load(db *gorm.DB) ([]models.StoreRow, [][]string, error) {
	var rows []models.StoreRow
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	lines := make([][]string, 0, len(rows))
	for _, r := range rows {
		var cells []string
		if err := json.Unmarshal(r.Cells, &cells); err != nil {
			return nil, nil, fmt.Errorf("store row %d: %w", r.ID, err)
		}
		lines = append(lines, cells)
	}
	return rows, lines, nil
}

func (s *PostgresStore) AppendRows(ctx context.Context, lines [][]string) error {
	if len(lines) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]models.StoreRow, 0, len(lines))
	for _, line := range lines {
		cells, err := json.Marshal(line)
		if err != nil {
			return err
		}
		rows = append(rows, models.StoreRow{Cells: cells, CreatedAt: now})
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

func (s *PostgresStore) DeleteRows(ctx context.Context, column, value string) (int, error) {
	removed := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, lines, err := s.load(tx)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		idx := columnIndex(lines[0], column)
		if idx < 0 {
			return fmt.Errorf("column %q not in store header", column)
		}

		var ids []uint
		for i := 1; i < len(lines); i++ {
			if cell(lines[i], idx) == value {
				ids = append(ids, rows[i].ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		res := tx.Delete(&models.StoreRow{}, ids)
		removed = int(res.RowsAffected)
		return res.Error
	})
	return removed, err
}

func (s *PostgresStore) CreateSnapshot(ctx context.Context, name string, lines [][]string) error {
	cells, err := json.Marshal(lines)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.StoreSnapshot
		err := tx.Where("name = ?", name).First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: %s", apperrors.ErrSnapshotExists, name)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(&models.StoreSnapshot{
			ID:        uuid.New(),
			Name:      name,
			Cells:     cells,
			RowCount:  len(lines),
			CreatedAt: time.Now(),
		}).Error
	})
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.StoreRow{}).Error
}

func (s *PostgresStore) Snapshot(ctx context.Context, name string) ([][]string, error) {
	var snap models.StoreSnapshot
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSnapshotNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	var lines [][]string
	if err := json.Unmarshal(snap.Cells, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *PostgresStore) Snapshots(ctx context.Context) ([]string, error) {
	names := []string{}
	err := s.db.WithContext(ctx).Model(&models.StoreSnapshot{}).
		Order("name ASC").
		Pluck("name", &names).Error
	return names, err
}
