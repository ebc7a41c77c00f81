package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"curalink.org/internal/ids"
)

const defaultTokenTTL = 7 * 24 * time.Hour

// Service provides registration, login and bearer token verification.
type Service struct {
	store    UserStore
	now      func() time.Time
	tokenTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithTokenTTL overrides the issued token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service backed by the given store.
func NewService(store UserStore, opts ...ServiceOption) *Service {
	svc := &Service{
		store:    store,
		now:      time.Now,
		tokenTTL: defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// NormalizeEmail validates the address shape and lowercases it.
func NormalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidInput
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidInput
	}
	return strings.ToLower(raw), nil
}

// Register creates a user account and issues its first session token.
func (s *Service) Register(ctx context.Context, email, password string, role Role) (User, string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return User{}, "", ErrInvalidInput
	}
	if len(password) < MinPasswordLength {
		return User{}, "", ErrInvalidInput
	}
	if !role.Valid() {
		return User{}, "", ErrInvalidInput
	}
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return User{}, "", ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, "", err
	}
	now := s.now().UTC()
	user := User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, &user); err != nil {
		return User{}, "", err
	}
	token, err := GenerateToken(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a fresh session token.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, "", ErrInvalidCredentials
	}
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return User{}, "", ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return User{}, "", ErrInvalidCredentials
	}
	token, err := GenerateToken(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return User{}, "", err
	}
	return *user, token, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (User, error) {
	claims, err := ParseAndValidate(token)
	if err != nil {
		return User{}, ErrInvalidToken
	}
	user, err := s.store.Find(ctx, claims.Subject)
	if err != nil {
		return User{}, ErrInvalidToken
	}
	return *user, nil
}
