package favorites

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ItemType tags which entity space a favorited item identifier belongs to.
// The enumeration is closed: identifiers are only meaningful within their own
// type and must never be compared across types.
type ItemType string

const (
	ItemTrial       ItemType = "trial"
	ItemPublication ItemType = "publication"
	ItemExpert      ItemType = "expert"
	ItemResearcher  ItemType = "researcher"
)

// ParseItemType validates a raw value against the closed enumeration.
func ParseItemType(raw string) (ItemType, error) {
	switch ItemType(strings.TrimSpace(strings.ToLower(raw))) {
	case ItemTrial:
		return ItemTrial, nil
	case ItemPublication:
		return ItemPublication, nil
	case ItemExpert:
		return ItemExpert, nil
	case ItemResearcher:
		return ItemResearcher, nil
	default:
		return "", ErrInvalidItemType
	}
}

// Valid reports whether the type is one of the known values.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTrial, ItemPublication, ItemExpert, ItemResearcher:
		return true
	default:
		return false
	}
}

// Favorite is a polymorphic reference from a user to an item of any type.
// The (UserID, ItemType, ItemID) triple is unique.
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ItemType  ItemType  `json:"item_type"`
	ItemID    string    `json:"item_id"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrNotFound        = errors.New("favorites: not found")
	ErrInvalidItemType = errors.New("favorites: unknown item type")
	ErrInvalidInput    = errors.New("favorites: invalid input")
	ErrDuplicate       = errors.New("favorites: already favorited")
)

// Store describes persistence for favorite references. Insert must fail with
// ErrDuplicate when the triple already exists; the database mirrors this with
// a unique constraint.
type Store interface {
	Insert(ctx context.Context, f *Favorite) error
	FindTriple(ctx context.Context, userID string, t ItemType, itemID string) (*Favorite, error)
	ListByUser(ctx context.Context, userID string, t ItemType) ([]Favorite, error)
	Delete(ctx context.Context, userID, favoriteID string) error
}
