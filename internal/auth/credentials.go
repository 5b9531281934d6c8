package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to registration and password changes, never to
// verification of an existing credential.
const MinPasswordLength = 8

// HashPassword derives a salted bcrypt digest from a plaintext secret. The
// plaintext is never stored or logged.
func HashPassword(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword checks a plaintext secret against a stored digest. A
// malformed digest and a wrong secret both report false; callers get no
// oracle to tell them apart.
func VerifyPassword(digest, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
