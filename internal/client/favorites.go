package client

import (
	"context"
	"net/http"
	"net/url"

	"curalink.org/internal/favorites"
	"curalink.org/internal/ids"
)

// AddFavorite saves an item reference. Re-adding an existing triple is not an
// error; the existing record comes back.
func (c *Client) AddFavorite(ctx context.Context, itemType favorites.ItemType, itemID, note string) (favorites.Favorite, error) {
	if !itemType.Valid() {
		return favorites.Favorite{}, opErr("add favorite", ErrValidation, "unknown item type")
	}
	if itemID == "" {
		return favorites.Favorite{}, opErr("add favorite", ErrValidation, "item id is required")
	}
	var out favorites.Favorite
	err := c.call(ctx, "add favorite", http.MethodPost, "/api/favorites", nil, map[string]string{
		"item_type": string(itemType),
		"item_id":   itemID,
		"note":      note,
	}, &out)
	if err != nil {
		return favorites.Favorite{}, err
	}
	return out, nil
}

// ListFavorites returns the caller's references in creation order, optionally
// filtered by item type (empty means all).
func (c *Client) ListFavorites(ctx context.Context, itemType favorites.ItemType) ([]favorites.Favorite, error) {
	if itemType != "" && !itemType.Valid() {
		return nil, opErr("list favorites", ErrValidation, "unknown item type")
	}
	q := url.Values{}
	if itemType != "" {
		q.Set("item_type", string(itemType))
	}
	var out []favorites.Favorite
	if err := c.call(ctx, "list favorites", http.MethodGet, "/api/favorites", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveFavorite deletes one reference by id.
func (c *Client) RemoveFavorite(ctx context.Context, id string) error {
	if !ids.Valid(id) {
		return opErr("remove favorite", ErrValidation, "malformed favorite id")
	}
	return c.call(ctx, "remove favorite", http.MethodDelete, "/api/favorites/"+url.PathEscape(id), nil, nil, nil)
}

// IsFavorited reports whether the item is already saved. It is a UI
// convenience and fails soft: any error reads as "not favorited".
func (c *Client) IsFavorited(ctx context.Context, itemType favorites.ItemType, itemID string) bool {
	list, err := c.ListFavorites(ctx, itemType)
	if err != nil {
		return false
	}
	for _, fav := range list {
		if fav.ItemID == itemID {
			return true
		}
	}
	return false
}
