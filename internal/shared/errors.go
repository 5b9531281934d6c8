package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. Unknown email and wrong
	// password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers malformed, forged, and expired tokens alike.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnauthorized indicates the request carries no resolvable identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the principal lacks permission for the action.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicate indicates a uniqueness constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates input violates data model invariants.
	ErrValidation = errors.New("validation failed")
)
