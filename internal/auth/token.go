package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aegis-id/aegis/internal/shared"
)

// TokenKind separates short-lived access tokens from long-lived refresh
// tokens. Every token carries exactly one kind; presenting one where the
// other is required fails like any other invalid token.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Claims is the signed payload of both token kinds. Access tokens snapshot
// the role at issuance; refresh tokens omit it so the role is re-read fresh
// when the token is redeemed.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	Type   string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// Kind returns the token class encoded in the claims.
func (c *Claims) Kind() TokenKind {
	if c.Type == string(TokenRefresh) {
		return TokenRefresh
	}
	return TokenAccess
}

// TokenCodec signs and verifies session tokens with a process-wide HMAC-SHA-256
// secret. The secret is loaded once at startup and never mutated; rotating it
// invalidates every outstanding token.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenCodec builds a codec. The secret must be non-empty.
func NewTokenCodec(secret string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret must be provided")
	}
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenCodec{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// IssueAccess mints an access token carrying the user's identity and current role.
func (c *TokenCodec) IssueAccess(user *User) (string, error) {
	now := time.Now()
	return c.sign(&Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	})
}

// IssueRefresh mints a refresh token. It deliberately carries no role.
func (c *TokenCodec) IssueRefresh(user *User) (string, error) {
	now := time.Now()
	return c.sign(&Claims{
		UserID: user.ID,
		Type:   string(TokenRefresh),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
		},
	})
}

// Decode verifies signature and expiry atomically. Malformed structure, a
// signature mismatch, an unexpected algorithm and expiry all collapse into
// shared.ErrInvalidToken so callers cannot probe why a token was rejected.
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, shared.ErrInvalidToken
	}
	return claims, nil
}

// DecodeKind verifies the token and additionally requires the given class.
func (c *TokenCodec) DecodeKind(tokenString string, kind TokenKind) (*Claims, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind() != kind {
		return nil, shared.ErrInvalidToken
	}
	return claims, nil
}

func (c *TokenCodec) sign(claims *Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

func (c *TokenCodec) keyFunc(token *jwt.Token) (any, error) {
	if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("auth: unexpected signing method: %s", token.Method.Alg())
	}
	return c.secret, nil
}
