package favorites

import (
	"context"
	"errors"
	"strings"
	"time"

	"curalink.org/internal/ids"
)

// Service enforces the reference invariants on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a Service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Add records a favorite reference. Adding an already-favorited item is a
// no-op that returns the existing reference.
func (s *Service) Add(ctx context.Context, userID string, t ItemType, itemID, note string) (Favorite, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(itemID) == "" {
		return Favorite{}, ErrInvalidInput
	}
	if !t.Valid() {
		return Favorite{}, ErrInvalidItemType
	}

	existing, err := s.store.FindTriple(ctx, userID, t, itemID)
	if err == nil {
		return *existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Favorite{}, err
	}

	fav := Favorite{
		ID:        ids.New(),
		UserID:    userID,
		ItemType:  t,
		ItemID:    itemID,
		Note:      note,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, &fav); err != nil {
		// Lost a race against a concurrent insert of the same triple.
		if errors.Is(err, ErrDuplicate) {
			if existing, ferr := s.store.FindTriple(ctx, userID, t, itemID); ferr == nil {
				return *existing, nil
			}
		}
		return Favorite{}, err
	}
	return fav, nil
}

// List returns the user's references in creation order, optionally filtered
// by type. An empty type means all types.
func (s *Service) List(ctx context.Context, userID string, t ItemType) ([]Favorite, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	if t != "" && !t.Valid() {
		return nil, ErrInvalidItemType
	}
	return s.store.ListByUser(ctx, userID, t)
}

// Remove deletes a reference owned by the user.
func (s *Service) Remove(ctx context.Context, userID, favoriteID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(favoriteID) == "" {
		return ErrInvalidInput
	}
	return s.store.Delete(ctx, userID, favoriteID)
}
