package users

import (
	"context"
	"fmt"

	"github.com/aegis-id/aegis/internal/auth"
	"github.com/aegis-id/aegis/internal/rbac"
	"github.com/aegis-id/aegis/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	CreateUser(ctx context.Context, user *User) (*User, error)
	UpdateUser(ctx context.Context, user *User) (*User, error)
	UpdateRole(ctx context.Context, id int64, role shared.Role) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Service handles user management business logic. Every operation takes the
// calling principal explicitly and consults the policy before touching the
// store; a denied action performs zero side effects.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns the users visible to the caller. The collection is scoped
// before the caller gets to paginate or count it.
func (s *Service) List(ctx context.Context, caller shared.Principal) ([]User, error) {
	if !rbac.Allows(caller, rbac.ActionList, 0) {
		return nil, shared.ErrForbidden
	}
	all, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return rbac.Scope(caller, all, func(u User) int64 { return u.ID }), nil
}

// Get returns a single user if the caller may view it.
func (s *Service) Get(ctx context.Context, caller shared.Principal, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rbac.Allows(caller, rbac.ActionView, user.ID) {
		return nil, shared.ErrForbidden
	}
	return user, nil
}

// Create adds an account on behalf of an admin caller.
func (s *Service) Create(ctx context.Context, caller shared.Principal, params CreateParams) (*User, error) {
	if !rbac.Allows(caller, rbac.ActionCreate, 0) {
		return nil, shared.ErrForbidden
	}
	if len(params.Password) < auth.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", shared.ErrValidation, auth.MinPasswordLength)
	}
	role := shared.DefaultRole
	if params.Role != "" && rbac.CanSetRole(caller) {
		parsed, err := shared.ParseRole(params.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}
	digest, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, &User{
		Email:        shared.NormalizeEmail(params.Email),
		PasswordHash: digest,
		Role:         role,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
	})
}

// Update applies a partial update. Attributes outside the caller's field
// scope are dropped silently, matching the whitelist contract of the API.
func (s *Service) Update(ctx context.Context, caller shared.Principal, id int64, params UpdateParams) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rbac.Allows(caller, rbac.ActionUpdate, user.ID) {
		return nil, shared.ErrForbidden
	}
	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}
	if params.Email != nil && rbac.CanSetEmail(caller, user.ID) {
		user.Email = shared.NormalizeEmail(*params.Email)
	}
	if params.Role != nil && rbac.CanSetRole(caller) {
		parsed, err := shared.ParseRole(*params.Role)
		if err != nil {
			return nil, err
		}
		user.Role = parsed
	}
	return s.repo.UpdateUser(ctx, user)
}

// ChangeRole is the privileged role mutation path.
func (s *Service) ChangeRole(ctx context.Context, caller shared.Principal, id int64, role string) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rbac.Allows(caller, rbac.ActionChangeRole, user.ID) {
		return nil, shared.ErrForbidden
	}
	parsed, err := shared.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateRole(ctx, user.ID, parsed)
}

// Delete removes a user. Admins cannot delete their own record.
func (s *Service) Delete(ctx context.Context, caller shared.Principal, id int64) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !rbac.Allows(caller, rbac.ActionDelete, user.ID) {
		return shared.ErrForbidden
	}
	return s.repo.DeleteUser(ctx, user.ID)
}
