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

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *models.AdminSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// Active returns the session only if it has not expired at now.
func (r *SessionRepository) Active(ctx context.Context, id uuid.UUID, now time.Time) (*models.AdminSession, error) {
	var s models.AdminSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, now).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.AdminSession{}, "id = ?", id).Error
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.AdminSession{})
	return res.RowsAffected, res.Error
}
