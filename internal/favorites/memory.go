package favorites

import (
	"context"
	"sync"
)

// InMemoryStore implements Store with in-process concurrency safety.
type InMemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]Favorite
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byUser: make(map[string][]Favorite)}
}

func (s *InMemoryStore) Insert(ctx context.Context, f *Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byUser[f.UserID] {
		if existing.ItemType == f.ItemType && existing.ItemID == f.ItemID {
			return ErrDuplicate
		}
	}
	s.byUser[f.UserID] = append(s.byUser[f.UserID], *f)
	return nil
}

func (s *InMemoryStore) FindTriple(ctx context.Context, userID string, t ItemType, itemID string) (*Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.byUser[userID] {
		if f.ItemType == t && f.ItemID == itemID {
			out := f
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) ListByUser(ctx context.Context, userID string, t ItemType) ([]Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Favorite
	for _, f := range s.byUser[userID] {
		if t != "" && f.ItemType != t {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, userID, favoriteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.byUser[userID]
	for i, f := range list {
		if f.ID == favoriteID {
			s.byUser[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
