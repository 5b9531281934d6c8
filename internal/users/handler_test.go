package users_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-id/aegis/internal/auth"
	"github.com/aegis-id/aegis/internal/shared"
	"github.com/aegis-id/aegis/internal/users"
)

// authStore adapts the users mock repository to the auth module's port so the
// handler tests run against the real bearer middleware.
type authStore struct {
	repo *mockRepository
}

func (a authStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	id, ok := a.repo.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return a.FindByID(ctx, id)
}

func (a authStore) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	u, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &auth.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
	}, nil
}

func (a authStore) CreateUser(ctx context.Context, user *auth.User) (*auth.User, error) {
	created, err := a.repo.CreateUser(ctx, &users.User{
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
	})
	if err != nil {
		return nil, err
	}
	return a.FindByID(ctx, created.ID)
}

func (a authStore) TouchLastSignIn(ctx context.Context, id int64, at time.Time) error {
	return nil
}

type fixtureServer struct {
	server *httptest.Server
	codec  *auth.TokenCodec
	repo   *mockRepository
}

func newServer(t *testing.T) fixtureServer {
	t.Helper()
	repo := newMockRepository()
	repo.seed("admin@example.com", shared.RoleAdmin)
	repo.seed("editor@example.com", shared.RoleEditor)
	repo.seed("user@example.com", shared.RoleUser)

	codec, err := auth.NewTokenCodec("handler-test-secret", time.Hour, time.Hour)
	require.NoError(t, err)
	authSvc := auth.NewService(nil, authStore{repo: repo}, codec)
	mw := auth.Middleware{Service: authSvc}

	handler := users.NewHandler(nil, users.NewService(repo))
	r := chi.NewRouter()
	r.Route("/api/v1/users", func(r chi.Router) {
		handler.MountRoutes(r, mw)
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return fixtureServer{server: server, codec: codec, repo: repo}
}

func (f fixtureServer) tokenFor(t *testing.T, id int64) string {
	t.Helper()
	u, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	token, err := f.codec.IssueAccess(&auth.User{ID: u.ID, Email: u.Email, Role: u.Role})
	require.NoError(t, err)
	return token
}

func (f fixtureServer) do(t *testing.T, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	payload := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&payload)
	return res, payload
}

func TestUsersEndpointsRequireAuth(t *testing.T) {
	f := newServer(t)

	res, _ := f.do(t, http.MethodGet, "/api/v1/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestListUsersAdminOnly(t *testing.T) {
	f := newServer(t)

	res, payload := f.do(t, http.MethodGet, "/api/v1/users", f.tokenFor(t, 1), "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, payload["users"], 3)

	res, _ = f.do(t, http.MethodGet, "/api/v1/users", f.tokenFor(t, 3), "")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestChangeRoleEndpoint(t *testing.T) {
	f := newServer(t)
	adminToken := f.tokenFor(t, 1)

	res, payload := f.do(t, http.MethodPatch, "/api/v1/users/3/change_role", adminToken, `{"role":"editor"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	user := payload["user"].(map[string]any)
	assert.Equal(t, "editor", user["role"])

	res, _ = f.do(t, http.MethodPatch, "/api/v1/users/1/change_role", adminToken, `{"role":"user"}`)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = f.do(t, http.MethodPatch, "/api/v1/users/3/change_role", adminToken, `{"role":"overlord"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
}

func TestDeleteInvalidatesOutstandingTokens(t *testing.T) {
	f := newServer(t)
	adminToken := f.tokenFor(t, 1)
	memberToken := f.tokenFor(t, 3)

	// The member's token works before deletion.
	res, _ := f.do(t, http.MethodGet, "/api/v1/users/3", memberToken, "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = f.do(t, http.MethodDelete, "/api/v1/users/3", adminToken, "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	// The still-unexpired token now fails resolution with the unified outcome.
	res, _ = f.do(t, http.MethodGet, "/api/v1/users/3", memberToken, "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	f := newServer(t)

	res, _ := f.do(t, http.MethodDelete, "/api/v1/users/1", f.tokenFor(t, 1), "")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
