package httpapi

import (
	"net/http"

	"curalink.org/internal/audit"
	"curalink.org/internal/favorites"
	"curalink.org/internal/stream"
)

type addFavoriteRequest struct {
	ItemType string `json:"item_type"`
	ItemID   string `json:"item_id"`
	Note     string `json:"note"`
}

func (a *API) handleFavoritesCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		var filter favorites.ItemType
		if raw := r.URL.Query().Get("item_type"); raw != "" {
			t, err := favorites.ParseItemType(raw)
			if err != nil {
				handleFavoritesError(w, r, err)
				return
			}
			filter = t
		}
		list, err := a.favorites.List(r.Context(), user.ID, filter)
		if err != nil {
			handleFavoritesError(w, r, err)
			return
		}
		if list == nil {
			list = []favorites.Favorite{}
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req addFavoriteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
			return
		}
		itemType, err := favorites.ParseItemType(req.ItemType)
		if err != nil {
			handleFavoritesError(w, r, err)
			return
		}
		fav, err := a.favorites.Add(r.Context(), user.ID, itemType, req.ItemID, req.Note)
		if err != nil {
			handleFavoritesError(w, r, err)
			return
		}

		_ = audit.LogEvent(r.Context(), audit.EventFavoriteAdded, map[string]any{
			"item_type": string(fav.ItemType), "item_id": fav.ItemID,
		})
		a.publish(stream.Event{
			Type: stream.TypeFavoriteAdded, ActorID: user.ID,
			ItemType: string(fav.ItemType), ItemID: fav.ItemID,
		})
		// Re-adding an existing reference returns it unchanged.
		writeJSON(w, http.StatusOK, fav)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleFavoriteResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := resourceID(r.URL.Path, "/api/favorites/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "favorite not found")
		return
	}
	if err := a.favorites.Remove(r.Context(), user.ID, id); err != nil {
		handleFavoritesError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), audit.EventFavoriteRemoved, map[string]any{"favorite_id": id})
	a.publish(stream.Event{Type: stream.TypeFavoriteRemoved, ActorID: user.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) publish(evt stream.Event) {
	if a.stream != nil {
		a.stream.Publish(evt)
	}
}
