package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zulfatok/mael/internal/core/domain"
	"github.com/Zulfatok/mael/internal/core/ports"
)

// AliasManager manages a user's aliases and enforces the per-user quota.
type AliasManager struct {
	aliases  ports.AliasRepository
	messages ports.MessageRepository
	users    ports.UserRepository
	blobs    ports.BlobStore
	log      zerolog.Logger
	now      func() time.Time
}

func NewAliasManager(
	aliases ports.AliasRepository,
	messages ports.MessageRepository,
	users ports.UserRepository,
	blobs ports.BlobStore,
	log zerolog.Logger,
) *AliasManager {
	return &AliasManager{
		aliases:  aliases,
		messages: messages,
		users:    users,
		blobs:    blobs,
		log:      log,
		now:      time.Now,
	}
}

// Create registers a new alias for userID, bounded by the user's alias limit.
func (m *AliasManager) Create(ctx context.Context, userID, localPart string) (*domain.Alias, error) {
	localPart = strings.ToLower(strings.TrimSpace(localPart))
	if !domain.ValidLocalPart(localPart) {
		return nil, fmt.Errorf("%w: invalid alias local-part", domain.ErrInvalidInput)
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := m.aliases.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count aliases: %w", err)
	}
	if count >= int64(user.AliasLimit) {
		return nil, domain.ErrAliasLimitReached
	}

	alias := &domain.Alias{
		UserID:    userID,
		LocalPart: localPart,
		CreatedAt: m.now().UTC(),
	}
	created, err := m.aliases.Insert(ctx, alias)
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("user_id", userID).Str("local_part", localPart).Msg("alias created")
	return created, nil
}

// List returns all aliases owned by userID.
func (m *AliasManager) List(ctx context.Context, userID string) ([]domain.Alias, error) {
	return m.aliases.ListByUser(ctx, userID)
}

// Delete removes an alias owned by userID along with its stored messages.
// Message and blob cleanup is best-effort; its failure is logged only.
func (m *AliasManager) Delete(ctx context.Context, userID, aliasID string) error {
	alias, err := m.aliases.FindByID(ctx, aliasID)
	if err != nil {
		return err
	}
	if alias.UserID != userID {
		// Not-found rather than forbidden: don't confirm the alias exists.
		return domain.ErrAliasNotFound
	}

	if err := m.aliases.Delete(ctx, aliasID); err != nil {
		return err
	}

	blobKeys, err := m.messages.DeleteByAlias(ctx, aliasID)
	if err != nil {
		m.log.Error().Err(err).Str("alias_id", aliasID).Msg("message cleanup failed")
		return nil
	}
	for _, key := range blobKeys {
		if err := m.blobs.Delete(ctx, key); err != nil {
			m.log.Warn().Err(err).Str("key", key).Msg("blob cleanup failed")
		}
	}
	return nil
}
