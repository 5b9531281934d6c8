package users

import (
	"time"

	"github.com/aegis-id/aegis/internal/shared"
)

// User represents a user account for management.
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

// CreateParams carries the attributes offered to an admin-driven create.
type CreateParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// UpdateParams carries a partial update. Nil fields stay untouched; fields
// the caller is not entitled to set are stripped, not rejected.
type UpdateParams struct {
	Email     *string
	FirstName *string
	LastName  *string
	Role      *string
}
