package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Zulfatok/mael/internal/core/domain"
)

const collectionAliases = "aliases"

type AliasRepository struct {
	col *mongo.Collection
}

func NewAliasRepository(db *mongo.Database) *AliasRepository {
	return &AliasRepository{col: db.Collection(collectionAliases)}
}

type mongoAlias struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	LocalPart string             `bson:"local_part"`
	CreatedAt int64              `bson:"created_at"`
}

func (a *mongoAlias) toDomain() *domain.Alias {
	return &domain.Alias{
		ID:        a.ID.Hex(),
		UserID:    a.UserID,
		LocalPart: a.LocalPart,
		CreatedAt: unixToTime(a.CreatedAt),
	}
}

// Insert stores a new alias. The unique index on local_part turns races into
// domain.ErrAliasExists.
func (r *AliasRepository) Insert(ctx context.Context, alias *domain.Alias) (*domain.Alias, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAlias{
		UserID:    alias.UserID,
		LocalPart: alias.LocalPart,
		CreatedAt: alias.CreatedAt.Unix(),
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAliasExists
		}
		return nil, fmt.Errorf("insert alias: %w", err)
	}

	created := *alias
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *AliasRepository) FindByID(ctx context.Context, id string) (*domain.Alias, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAliasNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AliasRepository) FindByLocalPart(ctx context.Context, localPart string) (*domain.Alias, error) {
	return r.findOne(ctx, bson.M{"local_part": localPart})
}

func (r *AliasRepository) findOne(ctx context.Context, filter bson.M) (*domain.Alias, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a mongoAlias
	if err := r.col.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAliasNotFound
		}
		return nil, fmt.Errorf("find alias: %w", err)
	}
	return a.toDomain(), nil
}

// ListByUser returns the user's aliases, oldest first.
func (r *AliasRepository) ListByUser(ctx context.Context, userID string) ([]domain.Alias, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.Alias
	for cursor.Next(ctx) {
		var a mongoAlias
		if err := cursor.Decode(&a); err != nil {
			return nil, fmt.Errorf("decode alias: %w", err)
		}
		out = append(out, *a.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	return out, nil
}

func (r *AliasRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count aliases: %w", err)
	}
	return n, nil
}

func (r *AliasRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAliasNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete alias: %w", err)
	}
	return nil
}

// EnsureIndexes creates the global local_part uniqueness index.
func (r *AliasRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "local_part", Value: 1}}, Options: uniqueIndex()},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
