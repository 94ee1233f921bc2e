package authkit

import (
	"errors"
	"fmt"
)

// Error codes attached to AuthError values returned from validation.
const (
	ErrCodeMissingField = "missing_field"
	ErrCodeInvalidEmail = "invalid_email"
	ErrCodeWeakPassword = "weak_password"
	ErrCodeInvalidCreds = "invalid_credentials"
	ErrCodeEmailExists  = "email_exists"
)

// Sentinel errors for flow outcomes. Handlers dispatch on these with
// errors.Is and collapse everything auth-related to a uniform 401 so
// the response never reveals which check failed.
var (
	// ErrUnauthorized covers bad credentials and any internal failure
	// mid-login. The underlying cause is logged, never returned.
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrUserNotFound is returned by UserStore lookups.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when registering an email that is
	// already taken.
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidToken is returned for a session token whose signature,
	// algorithm or claims do not check out.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned for a well-formed, correctly signed
	// token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrUnverifiedEmail is returned when a federated identity claim
	// carries email_verified=false or omits the flag entirely.
	ErrUnverifiedEmail = errors.New("provider email not verified")

	// ErrInvalidAssertion is returned when a federated identity token
	// fails signature or audience validation.
	ErrInvalidAssertion = errors.New("invalid identity assertion")

	// ErrNoSecret is returned when no signing secret is configured.
	// Callers must treat this as fatal at startup.
	ErrNoSecret = errors.New("signing secret not configured")
)

// AuthError is a validation failure with enough structure for clients
// to highlight the offending field.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

func (e *AuthError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
