package authkit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a registered account. The raw password never appears here,
// only its bcrypt hash.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserStore is the persistence collaborator for user records. Emails
// are unique and compared exactly as stored.
type UserStore interface {
	// CreateUser creates a user with a fresh ID. Returns ErrEmailExists
	// if the email is already registered.
	CreateUser(ctx context.Context, email, passwordHash string) (*User, error)

	// GetUserByEmail returns ErrUserNotFound when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserById returns ErrUserNotFound when the id is unknown.
	GetUserById(ctx context.Context, id string) (*User, error)
}

// IdentityClaim is a provider-verified assertion about a user. It only
// exists for the duration of a federated login call.
type IdentityClaim struct {
	Subject       string
	Email         string
	EmailVerified bool
}

// IdentityVerifier validates a federated identity token and extracts
// the verified claim. Implementations must reject unverified emails
// before the claim reaches any user lookup.
type IdentityVerifier interface {
	Verify(ctx context.Context, providerToken string) (*IdentityClaim, error)
}

// NewUserID generates an id for a new user record.
func NewUserID() string {
	return uuid.NewString()
}
