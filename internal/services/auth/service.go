// Package auth guards the admin operations behind a single configured
// account and server-side sessions.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"picking-verification-backend/internal/apperrors"
	"picking-verification-backend/internal/models"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.AdminSession) error
	Active(ctx context.Context, id uuid.UUID, now time.Time) (*models.AdminSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type AuthService struct {
	sessions     SessionRepository
	username     string
	passwordHash []byte
	ttl          time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewAuthService(sessions SessionRepository, username, passwordHash string, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		sessions:     sessions,
		username:     username,
		passwordHash: []byte(passwordHash),
		ttl:          ttl,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the credentials and opens a session. Every failure,
// including an unset password hash, is reported as ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.AdminSession, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	if len(s.passwordHash) == 0 {
		s.logger.Warn("admin login attempted but no password hash is configured")
		return nil, apperrors.ErrUnauthorized
	}
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		s.logger.Warn("admin login failed", zap.String("username", username))
		return nil, apperrors.ErrUnauthorized
	}

	now := s.now()
	session := &models.AdminSession{
		ID:        uuid.New(),
		Username:  s.username,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.Info("admin logged in", zap.String("username", s.username))
	return session, nil
}

// Authenticate resolves a session cookie value to a live session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.AdminSession, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	return s.sessions.Active(ctx, id, s.now())
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, id)
}

// PurgeExpired drops sessions past their expiry.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}
