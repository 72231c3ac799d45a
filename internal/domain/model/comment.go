// Package model contains the domain types shared by the panel and the
// development backend.
package model

import "time"

// Permission codenames granted per comment, per viewer, by the backend.
// PermChangeAll keeps the backend's historical spelling (three m's); the
// token is part of the wire contract and must match byte for byte.
const (
	PermChangeAll = "can_change_all_commments"
	PermDeleteAll = "can_delete_all_comments"
)

// Comment is a text entry attached to a product. The backend owns it; the
// panel holds a cached copy. Permissions carries the capability tokens the
// backend computed for the current viewer on this specific comment.
type Comment struct {
	PK          int64
	CommentText string
	Product     string // Owning product id; set at creation, immutable after.
	User        int64
	Username    string
	URL         string // Hyperlinked detail URL emitted by the backend serializer.
	Permissions []string
	Created     time.Time
	Updated     time.Time
}

// CanUpdate reports whether the viewer may edit the comment, i.e. whether
// the backend granted the global moderator change capability on it.
func CanUpdate(c Comment) bool {
	return hasPermission(c, PermChangeAll)
}

// CanDelete reports whether the viewer may delete the comment.
func CanDelete(c Comment) bool {
	return hasPermission(c, PermDeleteAll)
}

func hasPermission(c Comment, codename string) bool {
	for _, p := range c.Permissions {
		if p == codename {
			return true
		}
	}
	return false
}
