package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Zulfatok/mael/internal/core/domain"
)

const collectionResetTokens = "reset_tokens"

type ResetTokenRepository struct {
	col *mongo.Collection
}

func NewResetTokenRepository(db *mongo.Database) *ResetTokenRepository {
	return &ResetTokenRepository{col: db.Collection(collectionResetTokens)}
}

type mongoResetToken struct {
	TokenHash string `bson:"token_hash"`
	UserID    string `bson:"user_id"`
	ExpiresAt int64  `bson:"expires_at"`
	CreatedAt int64  `bson:"created_at"`
}

// Insert stores a new reset token document keyed by token digest.
func (r *ResetTokenRepository) Insert(ctx context.Context, token *domain.ResetToken) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoResetToken{
		TokenHash: token.TokenHash,
		UserID:    token.UserID,
		ExpiresAt: token.ExpiresAt.Unix(),
		CreatedAt: token.CreatedAt.Unix(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

// Consume atomically removes and returns the token for the given digest.
// FindOneAndDelete guarantees that two concurrent confirms cannot both claim
// the same token; the loser sees domain.ErrInvalidOrExpiredToken.
func (r *ResetTokenRepository) Consume(ctx context.Context, tokenHash string) (*domain.ResetToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t mongoResetToken
	err := r.col.FindOneAndDelete(ctx, bson.M{"token_hash": tokenHash}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return &domain.ResetToken{
		TokenHash: t.TokenHash,
		UserID:    t.UserID,
		ExpiresAt: unixToTime(t.ExpiresAt),
		CreatedAt: unixToTime(t.CreatedAt),
	}, nil
}

// DeleteExpired removes every reset token with expires_at <= now.
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.Unix()}})
	if err != nil {
		return 0, fmt.Errorf("delete expired reset tokens: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the digest and expiry indexes.
func (r *ResetTokenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "token_hash", Value: 1}}, Options: uniqueIndex()},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
