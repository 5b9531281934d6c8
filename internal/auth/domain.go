package auth

import (
	"time"

	"github.com/aegis-id/aegis/internal/shared"
)

// User represents an authenticated user account.
type User struct {
	ID             int64
	Email          string
	PasswordHash   string
	Role           shared.Role
	FirstName      string
	LastName       string
	LastSignedInAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Principal returns the authorization view of the account.
func (u *User) Principal() shared.Principal {
	return shared.Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

// TokenPair bundles the credentials returned by login, register and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
