package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aegis-id/aegis/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	CreateUser(ctx context.Context, user *User) (*User, error)
	TouchLastSignIn(ctx context.Context, id int64, at time.Time) error
}

// Service wraps authentication business rules. It performs the three stages
// of the request pipeline in strict order: credential verification or token
// decode, then principal resolution, then whatever the caller decides with
// the resolved principal. A failed stage short-circuits the rest.
type Service struct {
	logger *slog.Logger
	repo   Repository
	codec  *TokenCodec
}

// NewService constructs a new Service.
func NewService(logger *slog.Logger, repo Repository, codec *TokenCodec) *Service {
	return &Service{logger: logger, repo: repo, codec: codec}
}

// RegisterParams carries the attributes a caller may set at registration.
// Role is absent on purpose: self-registration always yields the default
// role, only an admin may assign roles through user management.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Authenticate validates email/password credentials. Unknown email, wrong
// password and malformed stored digest all return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, shared.NormalizeEmail(email))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login verifies credentials and mints a fresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *User, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	if err := s.repo.TouchLastSignIn(ctx, user.ID, now); err != nil {
		// Best effort; a failed timestamp update must not block login.
		if s.logger != nil {
			s.logger.Warn("touch last sign in", slog.Int64("user_id", user.ID), slog.Any("error", err))
		}
	} else {
		user.LastSignedInAt = &now
	}
	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Register creates an account with the default role and logs it in.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*TokenPair, *User, error) {
	if len(params.Password) < MinPasswordLength {
		return nil, nil, fmt.Errorf("%w: password must be at least %d characters", shared.ErrValidation, MinPasswordLength)
	}
	digest, err := HashPassword(params.Password)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.repo.CreateUser(ctx, &User{
		Email:        shared.NormalizeEmail(params.Email),
		PasswordHash: digest,
		Role:         shared.DefaultRole,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
	})
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh redeems a refresh token for a fresh pair. The role is re-read from
// the store, never taken from the presented token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.DecodeKind(refreshToken, TokenRefresh)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}
	return s.issuePair(user)
}

// Resolve maps verified claims back to a live principal. A principal deleted
// after issuance is indistinguishable from a bad token: both fail closed with
// ErrUnauthorized. Resolution is performed on every request and never cached.
func (s *Service) Resolve(ctx context.Context, claims *Claims) (shared.Principal, error) {
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return shared.Principal{}, shared.ErrUnauthorized
	}
	return user.Principal(), nil
}

// ResolveAccessToken decodes an access token and resolves its principal.
func (s *Service) ResolveAccessToken(ctx context.Context, tokenString string) (shared.Principal, error) {
	claims, err := s.codec.DecodeKind(tokenString, TokenAccess)
	if err != nil {
		return shared.Principal{}, err
	}
	return s.Resolve(ctx, claims)
}

func (s *Service) issuePair(user *User) (*TokenPair, error) {
	access, err := s.codec.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.IssueRefresh(user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
