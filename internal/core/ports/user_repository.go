package ports

import (
	"context"

	"github.com/Zulfatok/mael/internal/core/domain"
)

// PasswordUpdate carries the new credential material written on a password
// set. WriteIterations is false when the store lacks the per-user iterations
// field (see SchemaCapabilities) and the count must stay implicit.
type PasswordUpdate struct {
	Salt            []byte
	Hash            []byte
	Iterations      int
	WriteIterations bool
}

// UserRepository is the persistence port for user accounts. Uniqueness of
// username and email is enforced by the store; violations surface as
// domain.ErrUserExists. The store also admits at most one admin account:
// inserting a second one surfaces domain.ErrAdminExists, which lets
// concurrent signups settle who gets the first-account admin role.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
	UpdatePassword(ctx context.Context, id string, update PasswordUpdate) error
	SetAliasLimit(ctx context.Context, id string, limit int) error
	SetDisabled(ctx context.Context, id string, disabled bool) error
}

// SchemaCapabilities records what optional fields the backing store supports.
// It is probed once at startup and never invalidated; a fresh process re-probes.
type SchemaCapabilities struct {
	// PerUserIterations is true when user documents may carry an individual
	// PBKDF2 iteration count. When false the global default always applies.
	PerUserIterations bool
}
