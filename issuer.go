package authkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// LoginResult is the outcome of a successful login flow.
type LoginResult struct {
	User  *User
	Token string

	// EncryptedEmail is set when a ResponseEncrypter is configured.
	EncryptedEmail string
}

// SessionIssuer orchestrates the registration, login and verification
// flows. Each call is self-contained; the issuer holds only read-only
// collaborators and is safe for concurrent use.
type SessionIssuer struct {
	Users  UserStore
	Signer *Signer

	// Cookies is applied to every session cookie the boundary sets.
	Cookies CookieConfig

	// Google validates federated identity tokens. Optional; federated
	// login fails closed when unset.
	Google IdentityVerifier

	// Encrypter, when set, encrypts the email field of local login
	// responses.
	Encrypter *ResponseEncrypter

	Logger *slog.Logger
}

func (si *SessionIssuer) logger() *slog.Logger {
	if si.Logger != nil {
		return si.Logger
	}
	return slog.Default()
}

// Register validates and creates a new account. Duplicate emails map
// to ErrEmailExists, malformed input to *AuthError.
func (si *SessionIssuer) Register(ctx context.Context, email, password string) (*User, error) {
	if email == "" {
		return nil, NewAuthError(ErrCodeMissingField, "Email is required", "email")
	}
	if !emailRegex.MatchString(email) {
		return nil, NewAuthError(ErrCodeInvalidEmail, "Invalid email format", "email")
	}
	if password == "" {
		return nil, NewAuthError(ErrCodeMissingField, "Password is required", "password")
	}
	if len(password) < MinPasswordLength {
		return nil, NewAuthError(ErrCodeWeakPassword,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength), "password")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user, err := si.Users.CreateUser(ctx, email, hash)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies local credentials and issues a session token. Every
// failure surfaces as ErrUnauthorized; the cause is logged so the
// response cannot reveal which check failed.
func (si *SessionIssuer) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := si.Users.GetUserByEmail(ctx, email)
	if err != nil {
		si.logger().Warn("login rejected", "reason", "user lookup failed", "err", err)
		return nil, ErrUnauthorized
	}
	if !CheckPassword(password, user.PasswordHash) {
		si.logger().Warn("login rejected", "reason", "password mismatch", "user", user.ID)
		return nil, ErrUnauthorized
	}

	token, err := si.Signer.Issue(user.ID)
	if err != nil {
		si.logger().Error("login failed", "reason", "token issuance", "err", err)
		return nil, ErrUnauthorized
	}

	result := &LoginResult{User: user, Token: token}
	if si.Encrypter != nil {
		encrypted, err := si.Encrypter.Encrypt(user.Email)
		if err != nil {
			si.logger().Error("login failed", "reason", "payload encryption", "err", err)
			return nil, ErrUnauthorized
		}
		result.EncryptedEmail = encrypted
	}
	return result, nil
}

// GoogleLogin verifies a federated identity token and issues a session
// for the matching pre-existing account. Unknown verified emails are
// not auto-provisioned; they fail exactly like bad credentials.
func (si *SessionIssuer) GoogleLogin(ctx context.Context, providerToken string) (*LoginResult, error) {
	if si.Google == nil {
		si.logger().Error("google login rejected", "reason", "no identity verifier configured")
		return nil, ErrInvalidAssertion
	}

	claim, err := si.Google.Verify(ctx, providerToken)
	if err != nil {
		si.logger().Warn("google login rejected", "reason", "claim verification failed", "err", err)
		return nil, err
	}

	user, err := si.Users.GetUserByEmail(ctx, claim.Email)
	if err != nil {
		si.logger().Warn("google login rejected", "reason", "no account for verified email", "err", err)
		return nil, ErrUnauthorized
	}

	token, err := si.Signer.Issue(user.ID)
	if err != nil {
		si.logger().Error("google login failed", "reason", "token issuance", "err", err)
		return nil, ErrUnauthorized
	}
	return &LoginResult{User: user, Token: token}, nil
}

// EmailLogin issues a session for an email the caller has already
// provider-verified (the redirect-flow OAuth callback). Same policy as
// GoogleLogin: unknown emails are not auto-provisioned.
func (si *SessionIssuer) EmailLogin(ctx context.Context, email string) (*LoginResult, error) {
	user, err := si.Users.GetUserByEmail(ctx, email)
	if err != nil {
		si.logger().Warn("oauth login rejected", "reason", "no account for verified email", "err", err)
		return nil, ErrUnauthorized
	}
	token, err := si.Signer.Issue(user.ID)
	if err != nil {
		si.logger().Error("oauth login failed", "reason", "token issuance", "err", err)
		return nil, ErrUnauthorized
	}
	return &LoginResult{User: user, Token: token}, nil
}

// Lookup resolves an already-verified subject id to its user record.
// Used by the verify flow after middleware has validated the token.
func (si *SessionIssuer) Lookup(ctx context.Context, subjectID string) (*User, error) {
	user, err := si.Users.GetUserById(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", subjectID, err)
	}
	return user, nil
}
