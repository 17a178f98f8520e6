package ports

import (
	"context"

	"github.com/Zulfatok/mael/internal/core/domain"
)

// AliasRepository is the persistence port for aliases. Local-part uniqueness
// across all users is enforced by the store; violations surface as
// domain.ErrAliasExists.
type AliasRepository interface {
	Insert(ctx context.Context, alias *domain.Alias) (*domain.Alias, error)
	FindByID(ctx context.Context, id string) (*domain.Alias, error)
	FindByLocalPart(ctx context.Context, localPart string) (*domain.Alias, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Alias, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

// MessageRepository is the persistence port for stored message metadata.
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Message, error)
	Delete(ctx context.Context, id string) error
	// DeleteByAlias removes all messages for an alias and returns their blob
	// keys so the caller can clean up the blob store.
	DeleteByAlias(ctx context.Context, aliasID string) ([]string, error)
}
