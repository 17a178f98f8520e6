package ports

import (
	"context"
	"time"

	"github.com/Zulfatok/mael/internal/core/domain"
)

// SessionRepository is the persistence port for login sessions, keyed by
// token digest.
type SessionRepository interface {
	Insert(ctx context.Context, session *domain.Session) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	// DeleteByTokenHash is idempotent: deleting an absent session is a no-op.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	// DeleteExpired removes every session with expires_at <= now and reports
	// how many were swept.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ResetTokenRepository is the persistence port for password-reset tokens.
type ResetTokenRepository interface {
	Insert(ctx context.Context, token *domain.ResetToken) error
	// Consume atomically removes and returns the token for the given digest.
	// A second call with the same digest returns domain.ErrInvalidOrExpiredToken.
	Consume(ctx context.Context, tokenHash string) (*domain.ResetToken, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
