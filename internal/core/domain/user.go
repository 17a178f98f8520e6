package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User models an account holder in the portal. The password is stored as a
// PBKDF2 digest next to its per-credential salt; Iterations overrides the
// global default when the store carries a per-user count (0 means default).
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordSalt []byte    `json:"-"`
	PasswordHash []byte    `json:"-"`
	Iterations   int       `json:"-"`
	Role         string    `json:"role"`
	AliasLimit   int       `json:"alias_limit"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
