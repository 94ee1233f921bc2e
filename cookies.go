package authkit

import (
	"fmt"
	"net/http"
	"time"
)

// SessionCookieName matches what the frontend and middleware expect.
const SessionCookieName = "jwt"

// CookieConfig is the canonical set of attributes applied to every
// session cookie the service issues. It is built once at startup.
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// DefaultCookieConfig returns attributes suitable for development.
// Production configs must pass Validate(true) before use.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:     SessionCookieName,
		Path:     "/",
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   24 * time.Hour,
	}
}

// Validate enforces the invariants every session cookie must carry:
// http-only, an explicit expiry, and in production no silent downgrade
// to an insecure transport.
func (c CookieConfig) Validate(production bool) error {
	if c.Name == "" {
		return fmt.Errorf("cookie name required")
	}
	if !c.HTTPOnly {
		return fmt.Errorf("session cookie %q must be http-only", c.Name)
	}
	if c.MaxAge <= 0 {
		return fmt.Errorf("session cookie %q must have an explicit max age", c.Name)
	}
	if c.SameSite == http.SameSiteNoneMode && !c.Secure {
		return fmt.Errorf("session cookie %q uses SameSite=None without Secure", c.Name)
	}
	if production && !c.Secure {
		return fmt.Errorf("session cookie %q must be Secure in production", c.Name)
	}
	return nil
}

// NewCookie builds the session cookie carrying token.
func (c CookieConfig) NewCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: c.SameSite,
		MaxAge:   int(c.MaxAge.Seconds()),
		Expires:  time.Now().Add(c.MaxAge),
	}
}

// ExpiredCookie builds a cookie that clears the session on the client.
func (c CookieConfig) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: c.SameSite,
		MaxAge:   -1,
		Expires:  time.Now(),
	}
}
