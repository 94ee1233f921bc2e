package authkit_test

import (
	"net/http"
	"testing"
	"time"

	authkit "github.com/foresteye/authkit"
)

func TestCookieConfigValidate(t *testing.T) {
	base := authkit.DefaultCookieConfig()

	tests := []struct {
		name       string
		mutate     func(*authkit.CookieConfig)
		production bool
		wantErr    bool
	}{
		{"default dev config is valid", func(c *authkit.CookieConfig) {}, false, false},
		{"secure config valid in production", func(c *authkit.CookieConfig) { c.Secure = true }, true, false},
		{"insecure rejected in production", func(c *authkit.CookieConfig) {}, true, true},
		{"http-only may not be disabled", func(c *authkit.CookieConfig) { c.HTTPOnly = false }, false, true},
		{"explicit expiry required", func(c *authkit.CookieConfig) { c.MaxAge = 0 }, false, true},
		{"samesite none requires secure", func(c *authkit.CookieConfig) { c.SameSite = http.SameSiteNoneMode }, false, true},
		{"samesite none with secure ok", func(c *authkit.CookieConfig) {
			c.SameSite = http.SameSiteNoneMode
			c.Secure = true
		}, false, false},
		{"name required", func(c *authkit.CookieConfig) { c.Name = "" }, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate(tt.production)
			if tt.wantErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestNewCookieAttributes(t *testing.T) {
	cfg := authkit.DefaultCookieConfig()
	cfg.Domain = "example.com"
	cfg.MaxAge = time.Hour

	cookie := cfg.NewCookie("some-token")
	if cookie.Name != authkit.SessionCookieName {
		t.Errorf("expected cookie name %q, got %q", authkit.SessionCookieName, cookie.Name)
	}
	if cookie.Value != "some-token" {
		t.Errorf("unexpected cookie value %q", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be http-only")
	}
	if cookie.MaxAge != 3600 {
		t.Errorf("expected MaxAge 3600, got %d", cookie.MaxAge)
	}
	if cookie.Expires.Before(time.Now()) {
		t.Error("expected a future expiry")
	}
	if cookie.Domain != "example.com" {
		t.Errorf("unexpected domain %q", cookie.Domain)
	}
}

func TestExpiredCookieClearsSession(t *testing.T) {
	cookie := authkit.DefaultCookieConfig().ExpiredCookie()
	if cookie.Value != "" {
		t.Errorf("expected empty value, got %q", cookie.Value)
	}
	if cookie.MaxAge != -1 {
		t.Errorf("expected MaxAge -1, got %d", cookie.MaxAge)
	}
}
