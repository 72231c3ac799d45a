package apihandler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/lmeunier/commentpanel/internal/domain/model"
)

// commentJSON is the wire representation of a comment, matching the
// serializer the panel was built against: pk, text, product, owner, the
// hyperlinked detail URL, and the viewer's permission tokens.
type commentJSON struct {
	PK          int64    `json:"pk"`
	CommentText string   `json:"comment_text"`
	Product     string   `json:"product"`
	User        int64    `json:"user"`
	Username    string   `json:"username"`
	URL         string   `json:"url"`
	Permissions []string `json:"permissions"`
	Created     string   `json:"created"`
	Updated     string   `json:"updated"`
}

// serialize annotates a stored comment with the viewer's permissions and
// the request-relative detail URL.
func (h *Handler) serialize(c model.Comment, r *http.Request) commentJSON {
	return commentJSON{
		PK:          c.PK,
		CommentText: c.CommentText,
		Product:     c.Product,
		User:        c.User,
		Username:    c.Username,
		URL:         detailURL(r, c.PK),
		Permissions: h.viewerPermissions(c),
		Created:     c.Created.UTC().Format(time.RFC3339Nano),
		Updated:     c.Updated.UTC().Format(time.RFC3339Nano),
	}
}

// viewerPermissions computes the permission token set for one comment: the
// viewer's global codenames, plus the comment model's own codenames when
// the viewer owns the comment or is a superuser. The result is
// deduplicated and sorted for stable output.
func (h *Handler) viewerPermissions(c model.Comment) []string {
	set := make(map[string]struct{}, len(h.viewer.Permissions)+2)
	for _, p := range h.viewer.Permissions {
		set[p] = struct{}{}
	}

	if c.User == h.viewer.ID || h.viewer.Superuser {
		set[model.PermChangeAll] = struct{}{}
		set[model.PermDeleteAll] = struct{}{}
	}

	permissions := make([]string, 0, len(set))
	for p := range set {
		permissions = append(permissions, p)
	}
	sort.Strings(permissions)

	return permissions
}

// detailURL builds the hyperlinked identity URL for a comment.
func detailURL(r *http.Request, pk int64) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api/comments/%d/", scheme, r.Host, pk)
}

// writeJSON marshals v to JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeDetail writes a {"detail": ...} error body, the error shape the
// panel client expects.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
