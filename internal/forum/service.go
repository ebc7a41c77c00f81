package forum

import (
	"context"
	"strings"
	"time"

	"curalink.org/internal/auth"
	"curalink.org/internal/ids"
)

// Store describes forum persistence. Listing methods return records in
// creation order.
type Store interface {
	InsertForum(ctx context.Context, f *Forum) error
	FindForum(ctx context.Context, id string) (*Forum, error)
	ListForums(ctx context.Context) ([]Forum, error)

	InsertPost(ctx context.Context, p *Post) error
	FindPost(ctx context.Context, id string) (*Post, error)
	ListPosts(ctx context.Context, forumID string) ([]Post, error)

	InsertReply(ctx context.Context, r *Reply) error
	ListReplies(ctx context.Context, postID string) ([]Reply, error)
}

// Service enforces the forum access policy on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CreateForum opens a forum. Only researchers may.
func (s *Service) CreateForum(ctx context.Context, actor auth.User, title, description, category string) (Forum, error) {
	if !CanCreateForum(actor.Role) {
		return Forum{}, ErrNotPermitted
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Forum{}, ErrInvalidInput
	}
	f := Forum{
		ID:          ids.New(),
		Title:       title,
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		CreatedBy:   actor.ID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.InsertForum(ctx, &f); err != nil {
		return Forum{}, err
	}
	return f, nil
}

// ListForums returns all forums in creation order.
func (s *Service) ListForums(ctx context.Context) ([]Forum, error) {
	return s.store.ListForums(ctx)
}

// GetForum returns one forum by id.
func (s *Service) GetForum(ctx context.Context, id string) (Forum, error) {
	f, err := s.store.FindForum(ctx, id)
	if err != nil {
		return Forum{}, err
	}
	return *f, nil
}

// CreatePost starts a discussion in a forum. Patients and researchers both
// may post.
func (s *Service) CreatePost(ctx context.Context, actor auth.User, forumID, title, content string) (Post, error) {
	if !CanPost(actor.Role) {
		return Post{}, ErrNotPermitted
	}
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return Post{}, ErrInvalidInput
	}
	if _, err := s.store.FindForum(ctx, forumID); err != nil {
		return Post{}, err
	}
	p := Post{
		ID:        ids.New(),
		ForumID:   forumID,
		AuthorID:  actor.ID,
		Title:     title,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertPost(ctx, &p); err != nil {
		return Post{}, err
	}
	return p, nil
}

// ListPosts returns the posts of a forum in creation order.
func (s *Service) ListPosts(ctx context.Context, forumID string) ([]Post, error) {
	if _, err := s.store.FindForum(ctx, forumID); err != nil {
		return nil, err
	}
	return s.store.ListPosts(ctx, forumID)
}

// CreateReply answers a post. Only researchers may reply.
func (s *Service) CreateReply(ctx context.Context, actor auth.User, postID, content string) (Reply, error) {
	if !CanReply(actor.Role) {
		return Reply{}, ErrNotPermitted
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Reply{}, ErrInvalidInput
	}
	if _, err := s.store.FindPost(ctx, postID); err != nil {
		return Reply{}, err
	}
	r := Reply{
		ID:        ids.New(),
		PostID:    postID,
		AuthorID:  actor.ID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertReply(ctx, &r); err != nil {
		return Reply{}, err
	}
	return r, nil
}

// ListReplies returns the replies of a post in creation order.
func (s *Service) ListReplies(ctx context.Context, postID string) ([]Reply, error) {
	if _, err := s.store.FindPost(ctx, postID); err != nil {
		return nil, err
	}
	return s.store.ListReplies(ctx, postID)
}
