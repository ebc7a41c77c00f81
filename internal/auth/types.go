package auth

import (
	"strings"
	"time"
)

// Role determines which workflow transitions and forum actions a user may
// perform. It is fixed at registration and never changes afterwards.
type Role string

const (
	RolePatient    Role = "patient"
	RoleResearcher Role = "researcher"
)

// ParseRole validates a raw role value against the closed enumeration.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RolePatient:
		return RolePatient, nil
	case RoleResearcher:
		return RoleResearcher, nil
	default:
		return "", ErrInvalidInput
	}
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleResearcher
}

// User represents a registered account on the platform.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
