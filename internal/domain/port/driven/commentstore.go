package driven

import (
	"context"

	"github.com/lmeunier/commentpanel/internal/domain/model"
)

// CommentStore defines the driven port for comment persistence. It backs
// the development backend, not the panel; the panel only ever sees the
// service through CommentAPI.
type CommentStore interface {
	// ListByProduct returns a product's comments ordered newest first.
	ListByProduct(ctx context.Context, productID string) ([]model.Comment, error)

	// Get retrieves a single comment by pk. Returns nil, nil when absent.
	Get(ctx context.Context, pk int64) (*model.Comment, error)

	// Create inserts a comment and returns it with its assigned pk and
	// creation timestamps.
	Create(ctx context.Context, c model.Comment) (*model.Comment, error)

	// UpdateText replaces a comment's text and returns the updated row.
	// Returns nil, nil when the comment does not exist.
	UpdateText(ctx context.Context, pk int64, text string) (*model.Comment, error)

	// Delete removes a comment by pk. Deleting an absent pk is not an error;
	// the deleted return reports whether a row was removed.
	Delete(ctx context.Context, pk int64) (deleted bool, err error)
}
