package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lmeunier/commentpanel/internal/application"
	"github.com/lmeunier/commentpanel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// PanelResponse is the JSON representation of the panel's read model.
type PanelResponse struct {
	Product    string            `json:"product"`
	Comments   []CommentResponse `json:"comments"`
	Edit       *EditResponse     `json:"edit"`
	NewComment string            `json:"new_comment"`
	Error      string            `json:"error"`
}

// CommentResponse is the JSON representation of one comment, enriched with
// the permission predicates and display renderings the page needs.
type CommentResponse struct {
	PK             int64    `json:"pk"`
	CommentText    string   `json:"comment_text"`
	CommentHTML    string   `json:"comment_html"`
	Product        string   `json:"product"`
	Username       string   `json:"username"`
	Permissions    []string `json:"permissions"`
	CanUpdate      bool     `json:"can_update"`
	CanDelete      bool     `json:"can_delete"`
	Created        string   `json:"created"`
	CreatedDisplay string   `json:"created_display"`
	Updated        string   `json:"updated"`
}

// EditResponse is the JSON representation of the open edit session.
type EditResponse struct {
	PK    int64  `json:"pk"`
	Draft string `json:"draft"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// toPanelResponse converts a panel state snapshot to its JSON representation.
func toPanelResponse(state application.PanelState) PanelResponse {
	comments := make([]CommentResponse, 0, len(state.Comments))
	for _, c := range state.Comments {
		comments = append(comments, toCommentResponse(c))
	}

	var edit *EditResponse
	if state.Edit != nil {
		edit = &EditResponse{PK: state.Edit.PK, Draft: state.Edit.Draft}
	}

	return PanelResponse{
		Product:    state.ProductID,
		Comments:   comments,
		Edit:       edit,
		NewComment: state.NewComment,
		Error:      state.Error,
	}
}

// toCommentResponse converts a domain Comment to its JSON representation.
func toCommentResponse(c model.Comment) CommentResponse {
	permissions := c.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	return CommentResponse{
		PK:             c.PK,
		CommentText:    c.CommentText,
		CommentHTML:    RenderMarkdown(c.CommentText),
		Product:        c.Product,
		Username:       c.Username,
		Permissions:    permissions,
		CanUpdate:      model.CanUpdate(c),
		CanDelete:      model.CanDelete(c),
		Created:        formatTime(c.Created),
		CreatedDisplay: frenchDate(c.Created),
		Updated:        formatTime(c.Updated),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// frenchDate renders a timestamp the way the comment page displays it.
// Pinned to UTC: the page used to render in the visitor's zone, but a
// server-side rendering must not change with the server's TZ setting.
func frenchDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("02/01/2006 à 15:04:05")
}
