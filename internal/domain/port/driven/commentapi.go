package driven

import (
	"context"
	"fmt"

	"github.com/lmeunier/commentpanel/internal/domain/model"
)

// CommentAPI defines the driven port for the remote comment service.
// Every call is single-shot: no retries, no backoff. A response with a
// non-success status surfaces as *APIError; transport-level failures
// surface as ordinary wrapped errors.
type CommentAPI interface {
	// ListByProduct returns the comments attached to a product, in the
	// order the backend serves them (newest first). Success requires
	// status 200 exactly.
	ListByProduct(ctx context.Context, productID string) ([]model.Comment, error)

	// Create posts a new comment on a product and returns the backend's
	// canonical copy. Empty text is sent as-is; the backend decides.
	Create(ctx context.Context, productID, text string) (*model.Comment, error)

	// Update patches an existing comment's text and returns the backend's
	// canonical copy.
	Update(ctx context.Context, pk int64, text string) (*model.Comment, error)

	// Remove deletes a comment by id.
	Remove(ctx context.Context, pk int64) error
}

// APIError is a non-success HTTP response from the comment service.
type APIError struct {
	Status     int
	StatusText string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("comment api: %d %s", e.Status, e.StatusText)
}
