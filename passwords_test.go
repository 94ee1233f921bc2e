package authkit_test

import (
	"errors"
	"testing"

	authkit "github.com/foresteye/authkit"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := authkit.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the raw password")
	}

	if !authkit.CheckPassword("correct horse battery staple", hash) {
		t.Error("expected matching password to verify")
	}
	if authkit.CheckPassword("wrong password", hash) {
		t.Error("expected non-matching password to fail")
	}
}

func TestHashPasswordSaltsPerCall(t *testing.T) {
	h1, err := authkit.HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	h2, err := authkit.HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if h1 == h2 {
		t.Error("expected per-call salts to produce distinct hashes")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := authkit.HashPassword("")
	if err == nil {
		t.Fatal("expected an error for empty password")
	}
	var authErr *authkit.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T", err)
	}
	if authErr.Code != authkit.ErrCodeMissingField {
		t.Errorf("expected code %q, got %q", authkit.ErrCodeMissingField, authErr.Code)
	}
}

func TestCheckPasswordFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		hash string
	}{
		{"empty hash", "password123", ""},
		{"malformed hash", "password123", "not-a-bcrypt-hash"},
		{"truncated hash", "password123", "$2a$10$short"},
		{"empty password", "", "$2a$10$N9qo8uLOickgx2ZMRZoMye"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if authkit.CheckPassword(tt.raw, tt.hash) {
				t.Error("expected verification to fail closed")
			}
		})
	}
}
