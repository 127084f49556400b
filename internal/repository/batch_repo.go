package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"picking-verification-backend/internal/apperrors"
	"picking-verification-backend/internal/models"
)

type BatchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) Create(ctx context.Context, batch *models.PendingBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// GetByID returns apperrors.ErrBatchNotFound when no batch has id.
func (r *BatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PendingBatch, error) {
	var batch models.PendingBatch
	err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *BatchRepository) Save(ctx context.Context, batch *models.PendingBatch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// Claim moves a pending batch to BatchCommitting. It reports false when
// the batch was not pending, so at most one decision holds a batch.
func (r *BatchRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PendingBatch{}).
		Where("id = ? AND status = ?", id, models.BatchPending).
		Update("status", models.BatchCommitting)
	return res.RowsAffected == 1, res.Error
}

// ExpireBefore marks pending batches whose expiry has passed.
func (r *BatchRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.PendingBatch{}).
		Where("status = ? AND expires_at < ?", models.BatchPending, now).
		Update("status", models.BatchExpired)
	return res.RowsAffected, res.Error
}

func (r *BatchRepository) ListByStatus(ctx context.Context, statuses []models.BatchStatus, limit int) ([]models.PendingBatch, error) {
	var batches []models.PendingBatch
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Find(&batches).Error
	return batches, err
}

func (r *BatchRepository) RecordAudit(ctx context.Context, entry *models.CommitAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *BatchRepository) AuditLog(ctx context.Context, batchID uuid.UUID) ([]models.CommitAuditLog, error) {
	var entries []models.CommitAuditLog
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
