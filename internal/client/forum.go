package client

import (
	"context"
	"net/http"
	"net/url"

	"curalink.org/internal/forum"
)

// ListForums returns all forums.
func (c *Client) ListForums(ctx context.Context) ([]forum.Forum, error) {
	var out []forum.Forum
	if err := c.call(ctx, "list forums", http.MethodGet, "/api/forums", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateForum opens a forum (researcher-only server-side).
func (c *Client) CreateForum(ctx context.Context, title, description, category string) (forum.Forum, error) {
	if title == "" {
		return forum.Forum{}, opErr("create forum", ErrValidation, "title is required")
	}
	var out forum.Forum
	err := c.call(ctx, "create forum", http.MethodPost, "/api/forums", nil, map[string]string{
		"title":       title,
		"description": description,
		"category":    category,
	}, &out)
	if err != nil {
		return forum.Forum{}, err
	}
	return out, nil
}

// ListPosts returns a forum's posts.
func (c *Client) ListPosts(ctx context.Context, forumID string) ([]forum.Post, error) {
	var out []forum.Post
	path := "/api/forums/" + url.PathEscape(forumID) + "/posts"
	if err := c.call(ctx, "list posts", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePost starts a discussion.
func (c *Client) CreatePost(ctx context.Context, forumID, title, content string) (forum.Post, error) {
	if forumID == "" || title == "" || content == "" {
		return forum.Post{}, opErr("create post", ErrValidation, "forum id, title and content are required")
	}
	var out forum.Post
	err := c.call(ctx, "create post", http.MethodPost, "/api/forums/posts", nil, map[string]string{
		"forum_id": forumID,
		"title":    title,
		"content":  content,
	}, &out)
	if err != nil {
		return forum.Post{}, err
	}
	return out, nil
}

// ListReplies returns a post's replies.
func (c *Client) ListReplies(ctx context.Context, postID string) ([]forum.Reply, error) {
	var out []forum.Reply
	path := "/api/forums/posts/" + url.PathEscape(postID) + "/replies"
	if err := c.call(ctx, "list replies", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateReply answers a post. When the caller's role is known locally and is
// not researcher, the call fails without touching the network; the server
// enforces the same policy regardless.
func (c *Client) CreateReply(ctx context.Context, postID, content string) (forum.Reply, error) {
	if postID == "" || content == "" {
		return forum.Reply{}, opErr("create reply", ErrValidation, "post id and content are required")
	}
	if me := c.identitySnapshot(); me != nil && !forum.CanReply(me.Role) {
		return forum.Reply{}, opErr("create reply", ErrForbidden, "only researchers may reply")
	}
	var out forum.Reply
	err := c.call(ctx, "create reply", http.MethodPost, "/api/forums/replies", nil, map[string]string{
		"post_id": postID,
		"content": content,
	}, &out)
	if err != nil {
		return forum.Reply{}, err
	}
	return out, nil
}
