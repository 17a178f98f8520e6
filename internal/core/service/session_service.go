package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zulfatok/mael/internal/core/credential"
	"github.com/Zulfatok/mael/internal/core/domain"
	"github.com/Zulfatok/mael/internal/core/ports"
)

// SessionManager implements ports.SessionService over the session store.
// Only token digests are persisted; the raw token exists in the cookie and
// transiently here at creation time.
type SessionManager struct {
	sessions ports.SessionRepository
	users    ports.UserRepository
	log      zerolog.Logger
	now      func() time.Time
}

func NewSessionManager(sessions ports.SessionRepository, users ports.UserRepository, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		users:    users,
		log:      log,
		now:      time.Now,
	}
}

// Create issues a new session for userID and returns the raw token.
func (m *SessionManager) Create(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	raw, err := credential.NewToken()
	if err != nil {
		return "", err
	}

	now := m.now().UTC()
	session := &domain.Session{
		TokenHash: credential.Digest(raw),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := m.sessions.Insert(ctx, session); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return raw, nil
}

// Resolve maps a raw token to its owning user. Not found, expired and
// disabled-owner all return (nil, nil): a normal negative, not an error.
func (m *SessionManager) Resolve(ctx context.Context, rawToken string) (*domain.User, error) {
	if rawToken == "" {
		return nil, nil
	}

	session, err := m.sessions.FindByTokenHash(ctx, credential.Digest(rawToken))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpiredToken) {
			return nil, nil
		}
		return nil, err
	}
	if session.Expired(m.now()) {
		return nil, nil
	}

	user, err := m.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if user.Disabled {
		return nil, nil
	}
	return user, nil
}

// Destroy revokes the session for rawToken. Idempotent.
func (m *SessionManager) Destroy(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	return m.sessions.DeleteByTokenHash(ctx, credential.Digest(rawToken))
}

// SweepExpired deletes all sessions past their expiry at now.
func (m *SessionManager) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	swept, err := m.sessions.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	if swept > 0 {
		m.log.Debug().Int64("count", swept).Msg("expired sessions swept")
	}
	return swept, nil
}
