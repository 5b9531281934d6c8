package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-id/aegis/internal/shared"
	"github.com/aegis-id/aegis/internal/users"
)

type mockRepository struct {
	users   map[int64]*users.User
	byEmail map[string]int64
	nextID  int64
	writes  int
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[int64]*users.User), byEmail: make(map[string]int64), nextID: 1}
}

func (m *mockRepository) seed(email string, role shared.Role) users.User {
	u := &users.User{
		ID:        m.nextID,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.users[u.ID] = u
	m.byEmail[email] = u.ID
	m.nextID++
	return *u
}

func (m *mockRepository) ListUsers(ctx context.Context) ([]users.User, error) {
	out := make([]users.User, 0, len(m.users))
	for id := int64(1); id < m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockRepository) FindByID(ctx context.Context, id int64) (*users.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) CreateUser(ctx context.Context, user *users.User) (*users.User, error) {
	if _, exists := m.byEmail[user.Email]; exists {
		return nil, shared.ErrDuplicate
	}
	m.writes++
	copied := *user
	copied.ID = m.nextID
	m.nextID++
	m.users[copied.ID] = &copied
	m.byEmail[copied.Email] = copied.ID
	out := copied
	return &out, nil
}

func (m *mockRepository) UpdateUser(ctx context.Context, user *users.User) (*users.User, error) {
	current, ok := m.users[user.ID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if other, exists := m.byEmail[user.Email]; exists && other != user.ID {
		return nil, shared.ErrDuplicate
	}
	m.writes++
	delete(m.byEmail, current.Email)
	copied := *user
	m.users[copied.ID] = &copied
	m.byEmail[copied.Email] = copied.ID
	out := copied
	return &out, nil
}

func (m *mockRepository) UpdateRole(ctx context.Context, id int64, role shared.Role) (*users.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	m.writes++
	u.Role = role
	copied := *u
	return &copied, nil
}

func (m *mockRepository) DeleteUser(ctx context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	m.writes++
	delete(m.byEmail, u.Email)
	delete(m.users, id)
	return nil
}

func fixture() (*users.Service, *mockRepository, shared.Principal, shared.Principal, shared.Principal) {
	repo := newMockRepository()
	admin := repo.seed("admin@example.com", shared.RoleAdmin)
	editor := repo.seed("editor@example.com", shared.RoleEditor)
	member := repo.seed("user@example.com", shared.RoleUser)
	svc := users.NewService(repo)
	asPrincipal := func(u users.User) shared.Principal {
		return shared.Principal{ID: u.ID, Email: u.Email, Role: u.Role}
	}
	return svc, repo, asPrincipal(admin), asPrincipal(editor), asPrincipal(member)
}

func TestListScoping(t *testing.T) {
	svc, _, admin, _, member := fixture()
	ctx := context.Background()

	all, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.List(ctx, member)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestGetAuthorization(t *testing.T) {
	svc, _, admin, editor, member := fixture()
	ctx := context.Background()

	got, err := svc.Get(ctx, admin, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.ID, got.ID)

	got, err = svc.Get(ctx, member, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.ID, got.ID)

	_, err = svc.Get(ctx, member, editor.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Get(ctx, admin, 999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreate(t *testing.T) {
	svc, repo, admin, _, member := fixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, users.CreateParams{
		Email:    " New@Example.COM ",
		Password: "password123",
		Role:     "editor",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, shared.RoleEditor, created.Role)
	assert.NotEmpty(t, created.PasswordHash)

	_, err = svc.Create(ctx, member, users.CreateParams{Email: "x@example.com", Password: "password123"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Create(ctx, admin, users.CreateParams{Email: "new@example.com", Password: "password123"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	writes := repo.writes
	_, err = svc.Create(ctx, admin, users.CreateParams{Email: "y@example.com", Password: "short"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, writes, repo.writes, "denied or invalid actions must not write")

	_, err = svc.Create(ctx, admin, users.CreateParams{Email: "z@example.com", Password: "password123", Role: "overlord"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateFieldScoping(t *testing.T) {
	svc, _, admin, editor, member := fixture()
	ctx := context.Background()
	str := func(s string) *string { return &s }

	// Self update of non-privileged fields.
	updated, err := svc.Update(ctx, member, member.ID, users.UpdateParams{FirstName: str("Reggie")})
	require.NoError(t, err)
	assert.Equal(t, "Reggie", updated.FirstName)

	// A non-admin submitting a role has the attribute stripped, not rejected.
	updated, err = svc.Update(ctx, member, member.ID, users.UpdateParams{Role: str("admin"), LastName: str("Member")})
	require.NoError(t, err)
	assert.Equal(t, shared.RoleUser, updated.Role)
	assert.Equal(t, "Member", updated.LastName)

	// Self email change is allowed and normalized.
	updated, err = svc.Update(ctx, member, member.ID, users.UpdateParams{Email: str(" ME@Example.com ")})
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", updated.Email)

	// Cannot update someone else.
	_, err = svc.Update(ctx, member, editor.ID, users.UpdateParams{FirstName: str("Nope")})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	// Admin may set role through update.
	updated, err = svc.Update(ctx, admin, editor.ID, users.UpdateParams{Role: str("user")})
	require.NoError(t, err)
	assert.Equal(t, shared.RoleUser, updated.Role)
}

func TestChangeRoleSelfProtection(t *testing.T) {
	svc, _, admin, _, member := fixture()
	ctx := context.Background()

	updated, err := svc.ChangeRole(ctx, admin, member.ID, "editor")
	require.NoError(t, err)
	assert.Equal(t, shared.RoleEditor, updated.Role)

	_, err = svc.ChangeRole(ctx, admin, admin.ID, "user")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.ChangeRole(ctx, member, admin.ID, "user")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.ChangeRole(ctx, admin, member.ID, "overlord")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteSelfProtection(t *testing.T) {
	svc, repo, admin, _, member := fixture()
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, admin, member.ID))
	_, err := repo.FindByID(ctx, member.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = svc.Delete(ctx, admin, admin.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, ferr := repo.FindByID(ctx, admin.ID)
	assert.NoError(t, ferr, "denied delete must leave the record intact")

	err = svc.Delete(ctx, member, admin.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
