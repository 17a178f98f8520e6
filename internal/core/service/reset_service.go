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

// ResetManager implements the single-use password-reset flow.
type ResetManager struct {
	users    ports.UserRepository
	tokens   ports.ResetTokenRepository
	hasher   *credential.Hasher
	notifier ports.ResetNotifier
	caps     ports.SchemaCapabilities
	ttl      time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewResetManager(
	users ports.UserRepository,
	tokens ports.ResetTokenRepository,
	hasher *credential.Hasher,
	notifier ports.ResetNotifier,
	caps ports.SchemaCapabilities,
	ttl time.Duration,
	log zerolog.Logger,
) *ResetManager {
	return &ResetManager{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		caps:     caps,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

// Request starts a reset for the account behind email. Unknown and disabled
// accounts return success without creating a token, so responses never reveal
// whether an address is registered. The notification send is fire-and-forget:
// its failure is logged and cannot fail the request.
func (m *ResetManager) Request(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	user, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.Disabled {
		return nil
	}

	raw, err := credential.NewToken()
	if err != nil {
		return err
	}
	now := m.now().UTC()
	token := &domain.ResetToken{
		TokenHash: credential.Digest(raw),
		UserID:    user.ID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.tokens.Insert(ctx, token); err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}

	go func(address, rawToken string) {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := m.notifier.SendReset(sendCtx, address, rawToken); err != nil {
			m.log.Error().Err(err).Msg("reset notification failed")
		}
	}(user.Email, raw)

	return nil
}

// Confirm consumes the token and sets the new password. The token row is
// claimed atomically before the password write, so one token can never
// authorize two updates; if the update then fails the token is already burnt,
// which errs on the safe side — the user simply requests a new one.
func (m *ResetManager) Confirm(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" {
		return domain.ErrInvalidOrExpiredToken
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	token, err := m.tokens.Consume(ctx, credential.Digest(rawToken))
	if err != nil {
		return err
	}
	if token.Expired(m.now()) {
		return domain.ErrInvalidOrExpiredToken
	}

	salt, err := m.hasher.NewSalt()
	if err != nil {
		return err
	}
	hash, err := m.hasher.Derive(newPassword, salt, m.hasher.Iterations())
	if err != nil {
		return err
	}

	update := ports.PasswordUpdate{
		Salt:            salt,
		Hash:            hash,
		Iterations:      m.hasher.Iterations(),
		WriteIterations: m.caps.PerUserIterations,
	}
	if err := m.users.UpdatePassword(ctx, token.UserID, update); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	m.log.Info().Str("user_id", token.UserID).Msg("password reset confirmed")
	return nil
}

// SweepExpired deletes reset tokens past their expiry at now.
func (m *ResetManager) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	swept, err := m.tokens.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("sweep reset tokens: %w", err)
	}
	return swept, nil
}
