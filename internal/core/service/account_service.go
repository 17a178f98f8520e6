package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zulfatok/mael/internal/core/credential"
	"github.com/Zulfatok/mael/internal/core/domain"
	"github.com/Zulfatok/mael/internal/core/ports"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,24}$`)

// AccountService implements signup, login and admin account mutations.
type AccountService struct {
	users             ports.UserRepository
	hasher            *credential.Hasher
	caps              ports.SchemaCapabilities
	defaultAliasLimit int
	log               zerolog.Logger
	now               func() time.Time
}

func NewAccountService(
	users ports.UserRepository,
	hasher *credential.Hasher,
	caps ports.SchemaCapabilities,
	defaultAliasLimit int,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		users:             users,
		hasher:            hasher,
		caps:              caps,
		defaultAliasLimit: defaultAliasLimit,
		log:               log,
		now:               time.Now,
	}
}

// Signup creates a new account. The very first account in an empty store is
// assigned the admin role; everyone after that starts as a regular user.
func (s *AccountService) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = normalizeEmail(email)

	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-24 chars of [a-z0-9_]", domain.ErrInvalidInput)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	salt, err := s.hasher.NewSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Derive(password, salt, s.hasher.Iterations())
	if err != nil {
		return nil, err
	}

	role := domain.RoleUser
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if count == 0 {
		role = domain.RoleAdmin
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordSalt: salt,
		PasswordHash: hash,
		Role:         role,
		AliasLimit:   s.defaultAliasLimit,
		CreatedAt:    s.now().UTC(),
	}
	if s.caps.PerUserIterations {
		user.Iterations = s.hasher.Iterations()
	}

	created, err := s.users.Create(ctx, user)
	if errors.Is(err, domain.ErrAdminExists) {
		// Another signup won the race for the first account. Everyone else
		// starts as a regular user.
		user.Role = domain.RoleUser
		created, err = s.users.Create(ctx, user)
	}
	if err != nil {
		// Concurrent signups racing on the same username/email lose here via
		// the store's uniqueness constraint.
		return nil, err
	}

	s.log.Info().Str("username", username).Str("role", created.Role).Msg("account created")
	return created, nil
}

// Login authenticates by email and password. Unknown email, wrong password
// and disabled account all yield domain.ErrInvalidCredentials so callers
// cannot enumerate accounts.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Burn comparable work so the miss is not cheaper than a hit.
			salt, saltErr := s.hasher.NewSalt()
			if saltErr == nil {
				_, _ = s.hasher.Derive(password, salt, s.hasher.Iterations())
			}
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordSalt, s.iterationsFor(user), user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if user.Disabled {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// Get returns the user record for userID.
func (s *AccountService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// SetAliasLimit updates a user's alias quota. Admin-only at the HTTP boundary.
func (s *AccountService) SetAliasLimit(ctx context.Context, userID string, limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: alias limit must be non-negative", domain.ErrInvalidInput)
	}
	return s.users.SetAliasLimit(ctx, userID, limit)
}

// SetDisabled toggles a user's disabled flag. Existing sessions stop
// resolving as soon as the flag lands; no sessions are deleted here.
func (s *AccountService) SetDisabled(ctx context.Context, userID string, disabled bool) error {
	return s.users.SetDisabled(ctx, userID, disabled)
}

// iterationsFor picks the per-user iteration count when the store carries
// one, falling back to the global default.
func (s *AccountService) iterationsFor(user *domain.User) int {
	if s.caps.PerUserIterations && user.Iterations > 0 {
		return user.Iterations
	}
	return s.hasher.Iterations()
}

// normalizeEmail lowercases and validates an address, returning "" when the
// shape is unacceptable.
func normalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ""
	}
	return email
}
