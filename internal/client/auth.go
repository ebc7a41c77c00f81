package client

import (
	"context"
	"net/http"
	"net/mail"
	"net/url"
	"time"

	"curalink.org/internal/auth"
)

type session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        auth.User `json:"user"`
}

func validEmail(raw string) bool {
	addr, err := mail.ParseAddress(raw)
	return err == nil && addr.Address == raw
}

// Register creates an account and stores the issued session. Email shape and
// the password length floor are checked locally so obviously bad input never
// crosses the network.
func (c *Client) Register(ctx context.Context, email, password string, role auth.Role) (auth.User, error) {
	if !validEmail(email) {
		return auth.User{}, opErr("register", ErrValidation, "invalid email address")
	}
	if len(password) < auth.MinPasswordLength {
		return auth.User{}, opErr("register", ErrValidation, "password too short")
	}
	if !role.Valid() {
		return auth.User{}, opErr("register", ErrValidation, "role must be patient or researcher")
	}

	var s session
	err := c.call(ctx, "register", http.MethodPost, "/api/auth/register", nil, map[string]string{
		"email":    email,
		"password": password,
		"role":     string(role),
	}, &s)
	if err != nil {
		return auth.User{}, err
	}
	if err := c.creds.Save(Credentials{Token: s.AccessToken, IssuedAt: time.Now().UTC()}); err != nil {
		return auth.User{}, opErr("register", ErrUnexpected, "persist credentials: "+err.Error())
	}
	c.setIdentity(&s.User)
	return s.User, nil
}

// Login authenticates with the form-encoded password flow and stores the
// issued session.
func (c *Client) Login(ctx context.Context, email, password string) (auth.User, error) {
	if !validEmail(email) {
		return auth.User{}, opErr("login", ErrValidation, "invalid email address")
	}
	if password == "" {
		return auth.User{}, opErr("login", ErrValidation, "password is required")
	}

	form := url.Values{
		"username": {email},
		"password": {password},
	}
	var s session
	if err := c.callForm(ctx, "login", "/api/auth/login", form, &s); err != nil {
		return auth.User{}, err
	}
	if err := c.creds.Save(Credentials{Token: s.AccessToken, IssuedAt: time.Now().UTC()}); err != nil {
		return auth.User{}, opErr("login", ErrUnexpected, "persist credentials: "+err.Error())
	}
	c.setIdentity(&s.User)
	return s.User, nil
}

// Logout notifies the server on a best-effort basis and always drops the
// local session, so a dead server can never trap the user in a session.
func (c *Client) Logout(ctx context.Context) error {
	_ = c.call(ctx, "logout", http.MethodPost, "/api/auth/logout", nil, nil, nil)
	c.setIdentity(nil)
	if err := c.creds.Clear(); err != nil {
		return opErr("logout", ErrUnexpected, "clear credentials: "+err.Error())
	}
	return nil
}

// Me fetches the authenticated identity.
func (c *Client) Me(ctx context.Context) (auth.User, error) {
	var user auth.User
	if err := c.call(ctx, "me", http.MethodGet, "/api/auth/me", nil, nil, &user); err != nil {
		return auth.User{}, err
	}
	c.setIdentity(&user)
	return user, nil
}
