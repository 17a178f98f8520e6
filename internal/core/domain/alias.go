package domain

import (
	"regexp"
	"time"
)

// localPartPattern matches the alias shapes the portal accepts: lowercase
// letters, digits, dot, dash and underscore, 1-64 chars, no leading/trailing
// separator and no doubled dots.
var (
	localPartPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9._-]{0,62}[a-z0-9])?$`)
	doubledDot       = regexp.MustCompile(`\.\.`)
)

// Alias is an email local-part registered under the shared mail domain,
// owned by exactly one user.
type Alias struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	LocalPart string    `json:"local_part"`
	CreatedAt time.Time `json:"created_at"`
}

// Address renders the full routable address for the given mail domain.
func (a *Alias) Address(mailDomain string) string {
	return a.LocalPart + "@" + mailDomain
}

// ValidLocalPart reports whether s is an acceptable alias local-part.
func ValidLocalPart(s string) bool {
	return localPartPattern.MatchString(s) && !doubledDot.MatchString(s)
}
