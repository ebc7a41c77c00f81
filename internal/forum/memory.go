package forum

import (
	"context"
	"sync"
)

// InMemoryStore implements Store for tests and the default server wiring.
type InMemoryStore struct {
	mu       sync.RWMutex
	forums   map[string]*Forum
	forumSeq []string
	posts    map[string]*Post
	postSeq  []string
	replies  map[string][]Reply
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		forums:  make(map[string]*Forum),
		posts:   make(map[string]*Post),
		replies: make(map[string][]Reply),
	}
}

func (s *InMemoryStore) InsertForum(ctx context.Context, f *Forum) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *f
	s.forums[f.ID] = &stored
	s.forumSeq = append(s.forumSeq, f.ID)
	return nil
}

func (s *InMemoryStore) FindForum(ctx context.Context, id string) (*Forum, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.forums[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *f
	return &out, nil
}

func (s *InMemoryStore) ListForums(ctx context.Context) ([]Forum, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Forum, 0, len(s.forumSeq))
	for _, id := range s.forumSeq {
		out = append(out, *s.forums[id])
	}
	return out, nil
}

func (s *InMemoryStore) InsertPost(ctx context.Context, p *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *p
	s.posts[p.ID] = &stored
	s.postSeq = append(s.postSeq, p.ID)
	return nil
}

func (s *InMemoryStore) FindPost(ctx context.Context, id string) (*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (s *InMemoryStore) ListPosts(ctx context.Context, forumID string) ([]Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Post
	for _, id := range s.postSeq {
		if s.posts[id].ForumID == forumID {
			out = append(out, *s.posts[id])
		}
	}
	return out, nil
}

func (s *InMemoryStore) InsertReply(ctx context.Context, r *Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[r.PostID] = append(s.replies[r.PostID], *r)
	return nil
}

func (s *InMemoryStore) ListReplies(ctx context.Context, postID string) ([]Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Reply, len(s.replies[postID]))
	copy(out, s.replies[postID])
	return out, nil
}
