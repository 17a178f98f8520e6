package domain

import "errors"

// Sentinel errors shared across services, repositories and the HTTP layer.
// Repositories translate store-specific failures into these; the central
// error handler maps them onto HTTP statuses.
var (
	// ErrInvalidInput flags malformed usernames, emails, passwords, alias
	// local-parts or token shapes. The caller can fix and resubmit.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials covers wrong password, unknown identifier and
	// disabled account alike, so responses never reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidOrExpiredToken covers reset tokens that are absent, expired
	// or already consumed.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// ErrIterationsOutOfRange fires when a key-derivation iteration count
	// falls outside the configured safety bounds.
	ErrIterationsOutOfRange = errors.New("iteration count out of configured range")

	ErrUserExists        = errors.New("username or email already taken")
	ErrUserNotFound      = errors.New("user not found")

	// ErrAdminExists signals that an admin account is already present when a
	// second one is inserted. Signup uses it to settle the race for the
	// first account in an empty store.
	ErrAdminExists = errors.New("admin account already exists")
	ErrAliasExists       = errors.New("alias already taken")
	ErrAliasNotFound     = errors.New("alias not found")
	ErrAliasLimitReached = errors.New("alias limit reached")
	ErrMessageNotFound   = errors.New("message not found")
	ErrForbidden         = errors.New("access forbidden")
)
