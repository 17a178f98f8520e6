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

const collectionMessages = "messages"

type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection(collectionMessages)}
}

type mongoEnvelope struct {
	MessageID string   `bson:"message_id,omitempty"`
	From      string   `bson:"from"`
	To        []string `bson:"to,omitempty"`
	Subject   string   `bson:"subject"`
	Date      int64    `bson:"date"`
	Preview   string   `bson:"preview"`
}

type mongoMessage struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	AliasID    string             `bson:"alias_id"`
	UserID     string             `bson:"user_id"`
	Envelope   mongoEnvelope      `bson:"envelope"`
	BlobKey    string             `bson:"blob_key"`
	SizeBytes  int64              `bson:"size_bytes"`
	ReceivedAt int64              `bson:"received_at"`
}

func (m *mongoMessage) toDomain() *domain.Message {
	return &domain.Message{
		ID:      m.ID.Hex(),
		AliasID: m.AliasID,
		UserID:  m.UserID,
		Envelope: domain.Envelope{
			MessageID: m.Envelope.MessageID,
			From:      m.Envelope.From,
			To:        m.Envelope.To,
			Subject:   m.Envelope.Subject,
			Date:      unixToTime(m.Envelope.Date),
			Preview:   m.Envelope.Preview,
		},
		BlobKey:    m.BlobKey,
		SizeBytes:  m.SizeBytes,
		ReceivedAt: unixToTime(m.ReceivedAt),
	}
}

func (r *MessageRepository) Insert(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoMessage{
		AliasID: msg.AliasID,
		UserID:  msg.UserID,
		Envelope: mongoEnvelope{
			MessageID: msg.Envelope.MessageID,
			From:      msg.Envelope.From,
			To:        msg.Envelope.To,
			Subject:   msg.Envelope.Subject,
			Date:      msg.Envelope.Date.Unix(),
			Preview:   msg.Envelope.Preview,
		},
		BlobKey:    msg.BlobKey,
		SizeBytes:  msg.SizeBytes,
		ReceivedAt: msg.ReceivedAt.Unix(),
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	created := *msg
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrMessageNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoMessage
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return m.toDomain(), nil
}

// ListByUser returns the user's messages, newest first.
func (r *MessageRepository) ListByUser(ctx context.Context, userID string) ([]domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "received_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.Message
	for cursor.Next(ctx) {
		var m mongoMessage
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, *m.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrMessageNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// DeleteByAlias removes all messages for an alias and returns their blob keys.
func (r *MessageRepository) DeleteByAlias(ctx context.Context, aliasID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"alias_id": aliasID},
		options.Find().SetProjection(bson.M{"blob_key": 1}))
	if err != nil {
		return nil, fmt.Errorf("list messages for alias: %w", err)
	}

	var keys []string
	for cursor.Next(ctx) {
		var m mongoMessage
		if err := cursor.Decode(&m); err != nil {
			cursor.Close(ctx)
			return nil, fmt.Errorf("decode message: %w", err)
		}
		keys = append(keys, m.BlobKey)
	}
	cursor.Close(ctx)
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list messages for alias: %w", err)
	}

	if _, err := r.col.DeleteMany(ctx, bson.M{"alias_id": aliasID}); err != nil {
		return nil, fmt.Errorf("delete messages for alias: %w", err)
	}
	return keys, nil
}

// EnsureIndexes creates the inbox listing and alias cleanup indexes.
func (r *MessageRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "received_at", Value: -1}}},
		{Keys: bson.D{{Key: "alias_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
