package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 24 * time.Hour

// DedupChecker provides idempotency checks for inbound mail backed by Redis.
// Key format: dedup:<alias_id>:<sha256(message_id)> — the Message-ID is
// hashed because senders control its content and length.
type DedupChecker struct {
	client *redis.Client
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client}
}

// IsDuplicate reports whether this message has already been ingested for the alias.
func (d *DedupChecker) IsDuplicate(ctx context.Context, aliasID, messageID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(aliasID, messageID)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this message has been ingested (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, aliasID, messageID string) error {
	return d.client.Set(ctx, d.key(aliasID, messageID), "1", dedupTTL).Err()
}

func (d *DedupChecker) key(aliasID, messageID string) string {
	sum := sha256.Sum256([]byte(messageID))
	return fmt.Sprintf("dedup:%s:%s", aliasID, hex.EncodeToString(sum[:16]))
}
