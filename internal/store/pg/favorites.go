package pg

import (
	"context"
	"database/sql"
	"errors"

	"curalink.org/internal/favorites"
)

// Favorites exposes the favorites table as a favorites.Store. The
// unique(user_id, item_type, item_id) constraint enforces the triple.
type Favorites struct {
	store *Store
}

var _ favorites.Store = (*Favorites)(nil)

func (s *Store) Favorites() *Favorites { return &Favorites{store: s} }

func (f *Favorites) Insert(ctx context.Context, fav *favorites.Favorite) error {
	_, err := f.store.db.ExecContext(ctx, `
		insert into favorites(id, user_id, item_type, item_id, note, created_at)
		values ($1,$2,$3,$4,$5,$6)
	`, fav.ID, fav.UserID, string(fav.ItemType), fav.ItemID, fav.Note, fav.CreatedAt)
	if isUniqueViolation(err) {
		return favorites.ErrDuplicate
	}
	return err
}

func (f *Favorites) FindTriple(ctx context.Context, userID string, itemType favorites.ItemType, itemID string) (*favorites.Favorite, error) {
	return f.scanOne(f.store.db.QueryRowContext(ctx, `
		select id, user_id, item_type, item_id, note, created_at
		from favorites where user_id=$1 and item_type=$2 and item_id=$3
	`, userID, string(itemType), itemID))
}

func (f *Favorites) ListByUser(ctx context.Context, userID string, itemType favorites.ItemType) ([]favorites.Favorite, error) {
	query := `
		select id, user_id, item_type, item_id, note, created_at
		from favorites where user_id=$1 order by created_at asc, id asc
	`
	args := []any{userID}
	if itemType != "" {
		query = `
		select id, user_id, item_type, item_id, note, created_at
		from favorites where user_id=$1 and item_type=$2 order by created_at asc, id asc
	`
		args = append(args, string(itemType))
	}
	rows, err := f.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []favorites.Favorite
	for rows.Next() {
		var fav favorites.Favorite
		var t string
		if err := rows.Scan(&fav.ID, &fav.UserID, &t, &fav.ItemID, &fav.Note, &fav.CreatedAt); err != nil {
			return nil, err
		}
		fav.ItemType = favorites.ItemType(t)
		out = append(out, fav)
	}
	return out, rows.Err()
}

func (f *Favorites) Delete(ctx context.Context, userID, id string) error {
	res, err := f.store.db.ExecContext(ctx, `
		delete from favorites where id=$1 and user_id=$2
	`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return favorites.ErrNotFound
	}
	return nil
}

func (f *Favorites) scanOne(row *sql.Row) (*favorites.Favorite, error) {
	var fav favorites.Favorite
	var t string
	err := row.Scan(&fav.ID, &fav.UserID, &t, &fav.ItemID, &fav.Note, &fav.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, favorites.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	fav.ItemType = favorites.ItemType(t)
	return &fav, nil
}
