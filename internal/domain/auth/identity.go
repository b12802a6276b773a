// Package auth defines the identity collaborator: every core call receives an
// explicit requester identity resolved from an API key. Roles are trusted as
// already verified; the domain services never read ambient request state.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned when an API key does not resolve to an identity.
var ErrUnauthorized = errors.New("unauthorized")

// Role partitions requesters into consumers and back-office admins.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is a verified requester.
type Identity struct {
	UserID  string
	Name    string
	KeyHash string
	Role    Role
}

// IsAdmin reports whether the identity may use back-office operations.
func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// Repository provides lookup of identities by the HMAC-SHA256 hash of their
// API key.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Identity, error)
}
