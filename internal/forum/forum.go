package forum

import (
	"errors"
	"time"

	"curalink.org/internal/auth"
)

// Forum is a discussion space opened by a researcher around a condition or a
// study area.
type Forum struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Post is a top-level message in a forum.
type Post struct {
	ID        string    `json:"id"`
	ForumID   string    `json:"forum_id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Reply is an answer to a post. Replies carry medical weight, so authorship
// is restricted to researchers.
type Reply struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrNotFound     = errors.New("forum: not found")
	ErrInvalidInput = errors.New("forum: invalid input")
	ErrNotPermitted = errors.New("forum: not permitted")
)

// CanCreateForum reports whether the role may open a new forum.
func CanCreateForum(role auth.Role) bool {
	return role == auth.RoleResearcher
}

// CanPost reports whether the role may start a post. Any platform member can.
func CanPost(role auth.Role) bool {
	return role.Valid()
}

// CanReply reports whether the role may answer a post.
func CanReply(role auth.Role) bool {
	return role == auth.RoleResearcher
}
