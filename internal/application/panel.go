// Package application holds the comment panel core: the in-memory comment
// list, the single edit session, the error cell, and the pending input
// buffer, kept consistent with the remote comment service.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lmeunier/commentpanel/internal/domain/model"
	"github.com/lmeunier/commentpanel/internal/domain/port/driven"
)

// EditSession tracks the at-most-one comment currently open for inline
// editing. Draft is a copy of the comment's text, owned by the session; it
// is merged back into the list entry only once the backend confirms the
// save.
type EditSession struct {
	PK    int64
	Draft string
}

// PanelState is a point-in-time copy of the panel's read model, safe to
// render without holding the panel's lock.
type PanelState struct {
	ProductID  string
	Comments   []model.Comment
	Edit       *EditSession
	NewComment string
	Error      string
}

// Panel is the comment panel for one product page. The comment list is the
// single source of truth for rendering; every mutation goes through the
// remote service first and applies the backend's canonical result
// (optimistic-by-response). Failures never surface to callers as errors;
// they overwrite the panel's single error message cell.
//
// Operations may overlap: each one calls the remote service without holding
// the lock, then reconciles under it. The error cell is shared, so
// concurrent failures keep only the most recent message.
type Panel struct {
	api       driven.CommentAPI
	logger    *slog.Logger
	productID string

	mu         sync.Mutex
	comments   []model.Comment
	edit       *EditSession
	newComment string
	lastError  string
}

// NewPanel creates a panel for the product page at pageURL. The product id
// is resolved from the URL path; a URL without a product comments route is
// a fatal construction error.
func NewPanel(api driven.CommentAPI, pageURL string, logger *slog.Logger) (*Panel, error) {
	productID, err := ResolveProductID(pageURL)
	if err != nil {
		return nil, err
	}

	return &Panel{
		api:       api,
		logger:    logger,
		productID: productID,
	}, nil
}

// ProductID returns the id of the product whose comments the panel shows.
func (p *Panel) ProductID() string {
	return p.productID
}

// Load performs the one-time initial fetch. On success the backend's list
// becomes the comment list verbatim, in backend order. On failure the list
// stays unpopulated and the error cell is set; there is no retry trigger.
func (p *Panel) Load(ctx context.Context) {
	comments, err := p.api.ListByProduct(ctx, p.productID)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.logger.Error("comment list load failed", "product", p.productID, "error", err)
		p.lastError = errorMessage("la récupération des commentaires", "la récupération des commentaires", err)
		return
	}

	p.comments = comments
}

// SubmitComment posts a new comment. The text goes to the backend as-is,
// empty or not. On success the backend's canonical comment is prepended to
// the list and the input buffer is cleared; on failure the list is
// untouched and the buffer keeps the unsent text for retry.
func (p *Panel) SubmitComment(ctx context.Context, text string) {
	p.mu.Lock()
	p.newComment = text
	p.mu.Unlock()

	created, err := p.api.Create(ctx, p.productID, text)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.logger.Error("comment creation failed", "product", p.productID, "error", err)
		p.lastError = errorMessage("la création d'un commentaire", "la création d'un commentaire", err)
		return
	}

	p.comments = append([]model.Comment{*created}, p.comments...)

	// Only clear the buffer if no newer submission replaced it while the
	// call was in flight.
	if p.newComment == text {
		p.newComment = ""
	}
}

// ToggleEdit opens an edit session for the comment with the given pk, or
// closes the session when it already tracks that pk. Opening a session for
// one comment silently abandons any other comment's draft. An unknown pk
// closes whatever session is open.
func (p *Panel) ToggleEdit(pk int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.edit != nil && p.edit.PK == pk {
		p.edit = nil
		return
	}

	for _, c := range p.comments {
		if c.PK == pk {
			p.edit = &EditSession{PK: pk, Draft: c.CommentText}
			return
		}
	}

	p.edit = nil
}

// SetDraft replaces the open edit session's draft text. Without an open
// session this is a no-op.
func (p *Panel) SetDraft(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.edit != nil {
		p.edit.Draft = text
	}
}

// SaveEdit sends the open edit session's draft to the backend. On success
// the backend's confirmed text is merged into the list entry by pk, and the
// session is cleared if it still tracks that pk (a save resolving after the
// session moved elsewhere must not close the newer session). On failure the
// session and draft stay open for retry.
func (p *Panel) SaveEdit(ctx context.Context) {
	p.mu.Lock()
	if p.edit == nil {
		p.mu.Unlock()
		return
	}
	pk, draft := p.edit.PK, p.edit.Draft
	p.mu.Unlock()

	updated, err := p.api.Update(ctx, pk, draft)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.logger.Error("comment update failed", "pk", pk, "error", err)
		p.lastError = errorMessage("la mise à jour d'un commentaire", "la mise à jour des commentaires", err)
		return
	}

	for i := range p.comments {
		if p.comments[i].PK == pk {
			p.comments[i].CommentText = updated.CommentText
			p.comments[i].Updated = updated.Updated
		}
	}

	if p.edit != nil && p.edit.PK == pk {
		p.edit = nil
	}
}

// DeleteComment removes a comment. On success every list entry with that pk
// is filtered out, and an edit session targeting it is dropped; on failure
// the list is untouched and the error cell is set.
func (p *Panel) DeleteComment(ctx context.Context, pk int64) {
	err := p.api.Remove(ctx, pk)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.logger.Error("comment deletion failed", "pk", pk, "error", err)
		p.lastError = errorMessage("la suppression d'un commentaire", "la suppression des commentaires", err)
		return
	}

	kept := make([]model.Comment, 0, len(p.comments))
	for _, c := range p.comments {
		if c.PK != pk {
			kept = append(kept, c)
		}
	}
	p.comments = kept

	if p.edit != nil && p.edit.PK == pk {
		p.edit = nil
	}
}

// State returns a copy of the panel's current read model.
func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()

	comments := make([]model.Comment, len(p.comments))
	copy(comments, p.comments)

	var edit *EditSession
	if p.edit != nil {
		e := *p.edit
		edit = &e
	}

	return PanelState{
		ProductID:  p.productID,
		Comments:   comments,
		Edit:       edit,
		NewComment: p.newComment,
		Error:      p.lastError,
	}
}

// errorMessage renders a failure as the panel's user-facing French message.
// A response with a non-success status and a transport-level failure keep
// their historical, distinct wordings; the error cell is only ever
// overwritten, never cleared on success.
func errorMessage(unexpectedPhrase, failurePhrase string, err error) string {
	var apiErr *driven.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Evènement inattendu lors de %s : %d %s", unexpectedPhrase, apiErr.Status, apiErr.StatusText)
	}
	return fmt.Sprintf("Erreur lors de %s : %v", failurePhrase, err)
}
