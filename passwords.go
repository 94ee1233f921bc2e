package authkit

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies at registration time only; login accepts
// whatever was stored.
const MinPasswordLength = 8

// HashPassword hashes a raw password with bcrypt. Each call salts
// independently, so equal inputs produce different hashes. Empty
// passwords are rejected before hashing.
func HashPassword(raw string) (string, error) {
	if raw == "" {
		return "", NewAuthError(ErrCodeMissingField, "Password is required", "password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether raw matches the stored hash. A
// malformed or empty stored hash fails closed rather than erroring.
func CheckPassword(raw, hash string) bool {
	if raw == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
