package ports

import (
	"context"
	"time"

	"github.com/Zulfatok/mael/internal/core/domain"
)

// AccountService covers signup, login and the admin account mutations.
type AccountService interface {
	Signup(ctx context.Context, username, email, password string) (*domain.User, error)
	// Login returns the authenticated user, or domain.ErrInvalidCredentials
	// for unknown email, wrong password and disabled account alike.
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	SetAliasLimit(ctx context.Context, userID string, limit int) error
	SetDisabled(ctx context.Context, userID string, disabled bool) error
}

// SessionService issues, resolves and revokes cookie session tokens.
type SessionService interface {
	// Create persists a session and returns the raw token for the cookie.
	Create(ctx context.Context, userID string, ttl time.Duration) (string, error)
	// Resolve maps a raw token to its owning user. A nil user with a nil
	// error means "no valid session" — not found, expired, or owner disabled.
	Resolve(ctx context.Context, rawToken string) (*domain.User, error)
	// Destroy revokes the session for the raw token; absent sessions are a no-op.
	Destroy(ctx context.Context, rawToken string) error
	// SweepExpired deletes sessions past their expiry and returns the count.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// ResetService implements the single-use password-reset flow.
type ResetService interface {
	// Request never reveals whether the email exists; it returns nil for
	// unknown and disabled accounts without creating a token.
	Request(ctx context.Context, email string) error
	Confirm(ctx context.Context, rawToken, newPassword string) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// AliasService manages a user's aliases under the shared mail domain.
type AliasService interface {
	Create(ctx context.Context, userID, localPart string) (*domain.Alias, error)
	List(ctx context.Context, userID string) ([]domain.Alias, error)
	Delete(ctx context.Context, userID, aliasID string) error
}

// IngestInput is one inbound message handed to the pipeline.
type IngestInput struct {
	Recipient  string // envelope recipient, e.g. "alice@mael.example"
	Raw        []byte // full RFC822 bytes
	ReceivedAt time.Time
}

// InboxService serves the web inbox and ingests inbound mail.
type InboxService interface {
	List(ctx context.Context, userID string) ([]domain.Message, error)
	// Get returns the message metadata together with the raw RFC822 bytes.
	Get(ctx context.Context, userID, messageID string) (*domain.Message, []byte, error)
	Delete(ctx context.Context, userID, messageID string) error
	Ingest(ctx context.Context, in IngestInput) error
}

// BlobStore is the external object store holding raw message bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ResetNotifier delivers the reset token to the account's email address.
// Failures are logged by the caller and never surfaced to the requester.
type ResetNotifier interface {
	SendReset(ctx context.Context, toAddress, rawToken string) error
}
