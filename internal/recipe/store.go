package recipe

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/models"
)

// Repository persists recipes. Social mutations must be single-document
// atomic updates in every implementation.
type Repository interface {
	Insert(ctx context.Context, r *Recipe) error
	Get(ctx context.Context, id primitive.ObjectID) (*Recipe, error)
	// Replace overwrites the draft fields of the recipe owned by author.
	// A nil image keeps the current one.
	Replace(ctx context.Context, id, author primitive.ObjectID, d Draft, image *string) (*Recipe, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, q ListQuery) ([]Summary, int64, error)
	// ToggleLike adds or removes user from likes and reports the new state.
	ToggleLike(ctx context.Context, id, user primitive.ObjectID) (liked bool, count int, err error)
	// UpsertRating replaces user's rating or appends a new one.
	UpsertRating(ctx context.Context, id, user primitive.ObjectID, value int) (*Recipe, error)
	AddComment(ctx context.Context, id primitive.ObjectID, c Comment) error
	RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) error
}

// AuthorResolver expands user ids into display summaries. Missing ids are
// simply absent from the result.
type AuthorResolver interface {
	ResolveAuthors(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.AuthorSummary, error)
}
