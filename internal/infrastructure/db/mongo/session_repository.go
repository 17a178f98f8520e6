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

const collectionSessions = "sessions"

type SessionRepository struct {
	col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{col: db.Collection(collectionSessions)}
}

type mongoSession struct {
	TokenHash string `bson:"token_hash"`
	UserID    string `bson:"user_id"`
	ExpiresAt int64  `bson:"expires_at"`
	CreatedAt int64  `bson:"created_at"`
}

// Insert stores a new session document keyed by token digest.
func (r *SessionRepository) Insert(ctx context.Context, session *domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoSession{
		TokenHash: session.TokenHash,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt.Unix(),
		CreatedAt: session.CreatedAt.Unix(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FindByTokenHash looks up a session by digest. Absence is reported as
// domain.ErrInvalidOrExpiredToken.
func (r *SessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s mongoSession
	if err := r.col.FindOne(ctx, bson.M{"token_hash": tokenHash}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &domain.Session{
		TokenHash: s.TokenHash,
		UserID:    s.UserID,
		ExpiresAt: unixToTime(s.ExpiresAt),
		CreatedAt: unixToTime(s.CreatedAt),
	}, nil
}

// DeleteByTokenHash removes a session by digest; deleting an absent session
// is a no-op.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"token_hash": tokenHash}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session with expires_at <= now.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.Unix()}})
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the digest and expiry indexes.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "token_hash", Value: 1}}, Options: uniqueIndex()},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
