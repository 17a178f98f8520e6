package domain

import "time"

// Session is a server-side login session. Only the SHA-256 digest of the
// random token is persisted; the raw token lives in the client cookie.
type Session struct {
	TokenHash string    `json:"-"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// ResetToken is a single-use password-reset grant. Like sessions, only the
// token digest is stored; the raw token travels in the reset email.
type ResetToken struct {
	TokenHash string    `json:"-"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the reset token is past its expiry at the given instant.
func (t *ResetToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
