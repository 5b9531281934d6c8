package shared

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the closed set of authorization roles.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// DefaultRole is assigned to principals registered without an explicit role.
const DefaultRole = RoleUser

// ParseRole validates a raw role label against the closed enumeration.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(raw)) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleEditor:
		return RoleEditor, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, raw)
	}
}

// IsAdmin reports whether the role grants administrative rights.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Principal describes the authenticated actor. It is passed explicitly into
// every resolver and policy call; there is no ambient current-user state.
type Principal struct {
	ID    int64
	Email string
	Role  Role
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Every write boundary must pass emails through here before comparison or
// persistence; uniqueness is defined over the normalized form. A Caser is
// stateful, so one is built per call rather than shared.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}
