// Package rbac implements the authorization policy for user management.
// Decisions are pure functions over (principal, action, target); the package
// holds no state and never caches a decision across requests, because a
// principal's role may change between requests.
package rbac

import "github.com/aegis-id/aegis/internal/shared"

// Action enumerates the operations subject to authorization.
type Action string

const (
	ActionList       Action = "list"
	ActionView       Action = "view"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionChangeRole Action = "change_role"
)

// Allows decides whether the principal may perform action on the user record
// identified by targetID. For collection-level actions (list, create) the
// targetID is ignored.
//
// Admins may never delete or change the role of their own record; the rule is
// structural so a lone admin cannot lock the system out of administration.
func Allows(p shared.Principal, action Action, targetID int64) bool {
	admin := p.Role.IsAdmin()
	self := p.ID == targetID

	switch action {
	case ActionList, ActionCreate:
		return admin
	case ActionView, ActionUpdate:
		return admin || self
	case ActionDelete, ActionChangeRole:
		return admin && !self
	default:
		return false
	}
}

// Scope filters a collection down to what the principal may see: admins see
// everything, everyone else sees only their own record. Callers must apply
// this before pagination or counting so that record existence does not leak
// through side channels.
func Scope[T any](p shared.Principal, items []T, idOf func(T) int64) []T {
	if p.Role.IsAdmin() {
		return items
	}
	for _, item := range items {
		if idOf(item) == p.ID {
			return []T{item}
		}
	}
	return nil
}

// CanSetRole reports whether the caller may set the role attribute on a
// create or update. Non-admin submissions must have the attribute stripped,
// not rejected.
func CanSetRole(caller shared.Principal) bool {
	return caller.Role.IsAdmin()
}

// CanSetEmail reports whether the caller may change the email attribute of
// the target record.
func CanSetEmail(caller shared.Principal, targetID int64) bool {
	return caller.Role.IsAdmin() || caller.ID == targetID
}
