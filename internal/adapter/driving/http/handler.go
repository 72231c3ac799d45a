// Package httphandler is the HTTP driving adapter that exposes the comment
// panel's read model and user intents as a JSON API.
package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lmeunier/commentpanel/internal/application"
)

// Handler serves the panel REST API.
type Handler struct {
	panel  *application.Panel
	logger *slog.Logger
}

// NewHandler creates a Handler for the given panel.
func NewHandler(panel *application.Panel, logger *slog.Logger) *Handler {
	return &Handler{panel: panel, logger: logger}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with CSRF, logging, and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/panel", h.GetPanel)
	mux.HandleFunc("POST /api/v1/comments", h.SubmitComment)
	mux.HandleFunc("POST /api/v1/comments/{pk}/edit", h.ToggleEdit)
	mux.HandleFunc("PATCH /api/v1/comments/{pk}", h.SaveEdit)
	mux.HandleFunc("DELETE /api/v1/comments/{pk}", h.DeleteComment)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging; CSRF outside
	// both so rejected requests are still logged.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = csrfMiddleware(wrapped)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// GetPanel returns the panel's full read model.
func (h *Handler) GetPanel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toPanelResponse(h.panel.State()))
}

// submitRequest is the JSON body for the submit-new and save-edit intents.
type submitRequest struct {
	CommentText string `json:"comment_text"`
}

// SubmitComment posts a new comment. The outcome is reflected in the
// returned panel state: a failure leaves the list unchanged and sets the
// panel's error message, it is not an HTTP error.
func (h *Handler) SubmitComment(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.panel.SubmitComment(r.Context(), req.CommentText)
	writeJSON(w, http.StatusOK, toPanelResponse(h.panel.State()))
}

// ToggleEdit opens or closes the edit session for a comment.
func (h *Handler) ToggleEdit(w http.ResponseWriter, r *http.Request) {
	pk, ok := pathPK(w, r)
	if !ok {
		return
	}

	h.panel.ToggleEdit(pk)
	writeJSON(w, http.StatusOK, toPanelResponse(h.panel.State()))
}

// SaveEdit stores the draft text and saves the open edit session. The
// session determines the update target; a pk that does not match the open
// session is a conflict.
func (h *Handler) SaveEdit(w http.ResponseWriter, r *http.Request) {
	pk, ok := pathPK(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state := h.panel.State()
	if state.Edit == nil || state.Edit.PK != pk {
		writeError(w, http.StatusConflict, "no edit session open for this comment")
		return
	}

	h.panel.SetDraft(req.CommentText)
	h.panel.SaveEdit(r.Context())
	writeJSON(w, http.StatusOK, toPanelResponse(h.panel.State()))
}

// DeleteComment removes a comment.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	pk, ok := pathPK(w, r)
	if !ok {
		return
	}

	h.panel.DeleteComment(r.Context(), pk)
	writeJSON(w, http.StatusOK, toPanelResponse(h.panel.State()))
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// pathPK parses the {pk} path value, writing a 400 response on failure.
func pathPK(w http.ResponseWriter, r *http.Request) (int64, bool) {
	pk, err := strconv.ParseInt(r.PathValue("pk"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment pk")
		return 0, false
	}
	return pk, true
}
