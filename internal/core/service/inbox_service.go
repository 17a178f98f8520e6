package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zulfatok/mael/internal/core/domain"
	"github.com/Zulfatok/mael/internal/core/mailparse"
	"github.com/Zulfatok/mael/internal/core/ports"
)

// DedupChecker abstracts the idempotency store (Redis) keyed by alias and
// Message-ID, so at-least-once delivery agents don't duplicate inbox rows.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, aliasID, messageID string) (bool, error)
	Mark(ctx context.Context, aliasID, messageID string) error
}

// InboxManager serves the web inbox and ingests inbound mail.
type InboxManager struct {
	aliases  ports.AliasRepository
	messages ports.MessageRepository
	users    ports.UserRepository
	blobs    ports.BlobStore
	dedup    DedupChecker
	domain   string
	log      zerolog.Logger
	now      func() time.Time
}

func NewInboxManager(
	aliases ports.AliasRepository,
	messages ports.MessageRepository,
	users ports.UserRepository,
	blobs ports.BlobStore,
	dedup DedupChecker,
	mailDomain string,
	log zerolog.Logger,
) *InboxManager {
	return &InboxManager{
		aliases:  aliases,
		messages: messages,
		users:    users,
		blobs:    blobs,
		dedup:    dedup,
		domain:   strings.ToLower(mailDomain),
		log:      log,
		now:      time.Now,
	}
}

// List returns the inbox rows for userID, newest first per the repository.
func (m *InboxManager) List(ctx context.Context, userID string) ([]domain.Message, error) {
	return m.messages.ListByUser(ctx, userID)
}

// Get returns one message with its raw bytes fetched from the blob store.
func (m *InboxManager) Get(ctx context.Context, userID, messageID string) (*domain.Message, []byte, error) {
	msg, err := m.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	if msg.UserID != userID {
		return nil, nil, domain.ErrMessageNotFound
	}

	raw, err := m.blobs.Get(ctx, msg.BlobKey)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch blob: %w", err)
	}
	return msg, raw, nil
}

// Delete removes a message owned by userID. Blob cleanup is best-effort.
func (m *InboxManager) Delete(ctx context.Context, userID, messageID string) error {
	msg, err := m.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.UserID != userID {
		return domain.ErrMessageNotFound
	}

	if err := m.messages.Delete(ctx, messageID); err != nil {
		return err
	}
	if err := m.blobs.Delete(ctx, msg.BlobKey); err != nil {
		m.log.Warn().Err(err).Str("key", msg.BlobKey).Msg("blob cleanup failed")
	}
	return nil
}

// Ingest accepts one inbound message: resolve the recipient alias, drop
// duplicates, park the raw bytes in the blob store, record the metadata.
func (m *InboxManager) Ingest(ctx context.Context, in ports.IngestInput) error {
	localPart, err := m.recipientLocalPart(in.Recipient)
	if err != nil {
		return err
	}

	alias, err := m.aliases.FindByLocalPart(ctx, localPart)
	if err != nil {
		return err
	}
	owner, err := m.users.FindByID(ctx, alias.UserID)
	if err != nil {
		return err
	}
	if owner.Disabled {
		m.log.Debug().Str("local_part", localPart).Msg("dropping mail for disabled account")
		return nil
	}

	env, err := mailparse.ParseEnvelope(in.Raw, in.ReceivedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if env.MessageID != "" {
		isDup, err := m.dedup.IsDuplicate(ctx, alias.ID, env.MessageID)
		if err != nil {
			m.log.Warn().Err(err).Str("message_id", env.MessageID).Msg("dedup check failed, ingesting anyway")
		} else if isDup {
			m.log.Debug().Str("message_id", env.MessageID).Msg("duplicate message skipped")
			return nil
		}
		// Mark before writing so a crashed write retried by the agent can't
		// double-process; a lost message beats a duplicated one here.
		if markErr := m.dedup.Mark(ctx, alias.ID, env.MessageID); markErr != nil {
			m.log.Warn().Err(markErr).Str("message_id", env.MessageID).Msg("failed to set dedup key")
		}
	}

	received := in.ReceivedAt
	if received.IsZero() {
		received = m.now()
	}
	received = received.UTC()

	blobKey := blobKeyFor(alias.ID, received)
	if err := m.blobs.Put(ctx, blobKey, in.Raw); err != nil {
		return fmt.Errorf("store blob: %w", err)
	}

	msg := &domain.Message{
		AliasID:    alias.ID,
		UserID:     alias.UserID,
		Envelope:   env,
		BlobKey:    blobKey,
		SizeBytes:  int64(len(in.Raw)),
		ReceivedAt: received,
	}
	if _, err := m.messages.Insert(ctx, msg); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	m.log.Info().
		Str("local_part", localPart).
		Str("message_id", env.MessageID).
		Int("size", len(in.Raw)).
		Msg("message ingested")
	return nil
}

// recipientLocalPart extracts and checks the local-part of an envelope
// recipient addressed at the shared mail domain.
func (m *InboxManager) recipientLocalPart(recipient string) (string, error) {
	recipient = strings.ToLower(strings.TrimSpace(recipient))
	local, recipientDomain, found := strings.Cut(recipient, "@")
	if !found || local == "" {
		return "", fmt.Errorf("%w: malformed recipient", domain.ErrInvalidInput)
	}
	if recipientDomain != m.domain {
		return "", fmt.Errorf("%w: recipient not under served domain", domain.ErrInvalidInput)
	}
	return local, nil
}

// blobKeyFor builds an object key that is unique even for messages landing
// in the same nanosecond.
func blobKeyFor(aliasID string, received time.Time) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("messages/%s/%d", aliasID, received.UnixNano())
	}
	return fmt.Sprintf("messages/%s/%d-%08X", aliasID, received.UnixNano(), b)
}
