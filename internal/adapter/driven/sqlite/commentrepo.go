package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lmeunier/commentpanel/internal/domain/model"
	"github.com/lmeunier/commentpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CommentStore = (*CommentRepo)(nil)

// CommentRepo is the SQLite implementation of the CommentStore port.
// Permissions and the detail URL are per-viewer serializer concerns and are
// never persisted; rows come back with an empty permission set.
type CommentRepo struct {
	db *DB
}

// NewCommentRepo creates a CommentRepo backed by the given DB.
func NewCommentRepo(db *DB) *CommentRepo {
	return &CommentRepo{db: db}
}

const commentColumns = "pk, comment_text, product, user_id, username, created, updated"

// ListByProduct returns a product's comments ordered newest first.
func (r *CommentRepo) ListByProduct(ctx context.Context, productID string) ([]model.Comment, error) {
	const query = `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE product = ?
		ORDER BY created DESC, pk DESC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list comments for product %s: %w", productID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// Get retrieves a single comment by pk. Returns nil, nil when absent.
func (r *CommentRepo) Get(ctx context.Context, pk int64) (*model.Comment, error) {
	const query = `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE pk = ?
	`

	c, err := scanComment(r.db.Reader.QueryRowContext(ctx, query, pk))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", pk, err)
	}

	return &c, nil
}

// Create inserts a comment and returns it with its assigned pk and
// creation timestamps.
func (r *CommentRepo) Create(ctx context.Context, c model.Comment) (*model.Comment, error) {
	const query = `
		INSERT INTO comments (comment_text, product, user_id, username, created, updated)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	res, err := r.db.Writer.ExecContext(ctx, query, c.CommentText, c.Product, c.User, c.Username, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert comment on product %s: %w", c.Product, err)
	}

	pk, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert comment: last insert id: %w", err)
	}

	c.PK = pk
	c.Created = now
	c.Updated = now
	c.Permissions = []string{}

	return &c, nil
}

// UpdateText replaces a comment's text. Returns nil, nil when the comment
// does not exist.
func (r *CommentRepo) UpdateText(ctx context.Context, pk int64, text string) (*model.Comment, error) {
	const query = `
		UPDATE comments
		SET comment_text = ?, updated = ?
		WHERE pk = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query, text, time.Now().UTC(), pk)
	if err != nil {
		return nil, fmt.Errorf("update comment %d: %w", pk, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update comment %d: rows affected: %w", pk, err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.Get(ctx, pk)
}

// Delete removes a comment by pk, reporting whether a row was removed.
func (r *CommentRepo) Delete(ctx context.Context, pk int64) (bool, error) {
	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM comments WHERE pk = ?`, pk)
	if err != nil {
		return false, fmt.Errorf("delete comment %d: %w", pk, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete comment %d: rows affected: %w", pk, err)
	}

	return affected > 0, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanComment.
type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (model.Comment, error) {
	var c model.Comment
	err := s.Scan(&c.PK, &c.CommentText, &c.Product, &c.User, &c.Username, &c.Created, &c.Updated)
	if err != nil {
		return model.Comment{}, err
	}

	c.Permissions = []string{}
	return c, nil
}
