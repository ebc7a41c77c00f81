package pg

import (
	"context"
	"database/sql"
	"errors"

	"curalink.org/internal/auth"
)

// Users exposes the user table as an auth.UserStore.
type Users struct {
	store *Store
}

var _ auth.UserStore = (*Users)(nil)

func (s *Store) Users() *Users { return &Users{store: s} }

func (u *Users) Create(ctx context.Context, user *auth.User) error {
	_, err := u.store.db.ExecContext(ctx, `
		insert into users(id, email, password_hash, role, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6)
	`, user.ID, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt, user.UpdatedAt)
	if isUniqueViolation(err) {
		return auth.ErrEmailTaken
	}
	return err
}

func (u *Users) Find(ctx context.Context, id string) (*auth.User, error) {
	return u.scanOne(u.store.db.QueryRowContext(ctx, `
		select id, email, password_hash, role, created_at, updated_at
		from users where id=$1
	`, id))
}

func (u *Users) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return u.scanOne(u.store.db.QueryRowContext(ctx, `
		select id, email, password_hash, role, created_at, updated_at
		from users where email=$1
	`, email))
}

func (u *Users) scanOne(row *sql.Row) (*auth.User, error) {
	var user auth.User
	var role string
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &role, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Role = auth.Role(role)
	return &user, nil
}
