// Package apihandler is the development backend's driving adapter. It
// serves the comment REST contract the panel consumes: trailing-slash
// routes, csrftoken cookie handshake, and per-viewer permission annotation.
package apihandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lmeunier/commentpanel/internal/domain/model"
	"github.com/lmeunier/commentpanel/internal/domain/port/driven"
)

// Viewer is the dev user every request is authenticated as. A real
// deployment derives this from the session; the development backend takes
// it from configuration so permission gating can be exercised.
type Viewer struct {
	ID          int64
	Username    string
	Permissions []string
	Superuser   bool
}

// Handler serves the comment service REST API.
type Handler struct {
	store  driven.CommentStore
	viewer Viewer
	logger *slog.Logger
}

// NewHandler creates a Handler backed by the given store.
func NewHandler(store driven.CommentStore, viewer Viewer, logger *slog.Logger) *Handler {
	return &Handler{store: store, viewer: viewer, logger: logger}
}

// NewServeMux creates an http.Handler with the comment service routes
// registered. The delete route is accepted with and without a trailing
// slash; the panel has historically sent the slash-less form.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products/{pk}/comments-list/{$}", h.ListByProduct)
	mux.HandleFunc("POST /api/comments/{$}", h.Create)
	mux.HandleFunc("PATCH /api/comments/{pk}/{$}", h.Update)
	mux.HandleFunc("DELETE /api/comments/{pk}", h.Delete)
	mux.HandleFunc("DELETE /api/comments/{pk}/{$}", h.Delete)

	wrapped := recoveryMiddleware(logger, mux)
	wrapped = csrfMiddleware(wrapped)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// ListByProduct returns a product's comments, newest first.
func (h *Handler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("pk")

	comments, err := h.store.ListByProduct(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to list comments", "product", productID, "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]commentJSON, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, h.serialize(c, r))
	}

	writeJSON(w, http.StatusOK, resp)
}

// createRequest is the JSON body for comment creation.
type createRequest struct {
	CommentText string `json:"comment_text"`
	Product     string `json:"product"`
}

// Create inserts a new comment owned by the authenticated viewer.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Product == "" {
		writeDetail(w, http.StatusBadRequest, "product is required")
		return
	}

	created, err := h.store.Create(r.Context(), model.Comment{
		CommentText: req.CommentText,
		Product:     req.Product,
		User:        h.viewer.ID,
		Username:    h.viewer.Username,
	})
	if err != nil {
		h.logger.Error("failed to create comment", "product", req.Product, "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, h.serialize(*created, r))
}

// updateRequest is the JSON body for a comment text patch.
type updateRequest struct {
	CommentText string `json:"comment_text"`
}

// Update patches a comment's text, subject to the viewer's permissions.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	pk, ok := pathPK(w, r)
	if !ok {
		return
	}

	existing, err := h.store.Get(r.Context(), pk)
	if err != nil {
		h.logger.Error("failed to get comment", "pk", pk, "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if !h.allowed(*existing, model.PermChangeAll) {
		writeDetail(w, http.StatusForbidden, permissionDeniedDetail)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.store.UpdateText(r.Context(), pk, req.CommentText)
	if err != nil {
		h.logger.Error("failed to update comment", "pk", pk, "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if updated == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	writeJSON(w, http.StatusOK, h.serialize(*updated, r))
}

// Delete removes a comment, subject to the viewer's permissions.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	pk, ok := pathPK(w, r)
	if !ok {
		return
	}

	existing, err := h.store.Get(r.Context(), pk)
	if err != nil {
		h.logger.Error("failed to get comment", "pk", pk, "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if !h.allowed(*existing, model.PermDeleteAll) {
		writeDetail(w, http.StatusForbidden, permissionDeniedDetail)
		return
	}

	if _, err := h.store.Delete(r.Context(), pk); err != nil {
		h.logger.Error("failed to delete comment", "pk", pk, "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// permissionDeniedDetail matches the backend's historical object
// permission message.
const permissionDeniedDetail = "Vous n'avez pas les droits pour mettre à jour ou supprimer ce commentaire"

// allowed applies the comment object permission policy: superusers and
// comment owners may always mutate, others need the given global codename.
func (h *Handler) allowed(c model.Comment, codename string) bool {
	if h.viewer.Superuser || c.User == h.viewer.ID {
		return true
	}
	for _, p := range h.viewer.Permissions {
		if p == codename {
			return true
		}
	}
	return false
}

// pathPK parses the {pk} path value, writing a 404 on failure the way the
// backend router would for a malformed id.
func pathPK(w http.ResponseWriter, r *http.Request) (int64, bool) {
	pk, err := strconv.ParseInt(r.PathValue("pk"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return pk, true
}
