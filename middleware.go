package authkit

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type userParamNameKey string

const loggedInUserKey userParamNameKey = "loggedInUserId"

// Middleware extracts and verifies the session token on protected
// routes and makes the subject id available to downstream handlers.
type Middleware struct {
	AuthTokenHeaderName string
	AuthTokenCookieName string

	// SessionGetter reads a value from the server-side session, if one
	// is configured (e.g. scs). Optional.
	SessionGetter func(r *http.Request, param string) string

	// VerifyToken validates a session token and returns the subject id.
	VerifyToken func(tokenString string) (loggedInUserId string, err error)

	Logger *slog.Logger
}

// EnsureReasonableDefaults fills in config values that were left unset.
func (a *Middleware) EnsureReasonableDefaults() {
	if a.AuthTokenHeaderName == "" {
		a.AuthTokenHeaderName = "Authorization"
	}
	if a.AuthTokenCookieName == "" {
		a.AuthTokenCookieName = SessionCookieName
	}
}

func (a *Middleware) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// GetLoggedInUserId resolves the logged in user for the request: the
// request context first, then the server session, then any presented
// token (Authorization header or session cookie).
func (a *Middleware) GetLoggedInUserId(r *http.Request) string {
	if v, ok := r.Context().Value(loggedInUserKey).(string); ok && v != "" {
		return v
	}

	if a.SessionGetter != nil {
		if userId := a.SessionGetter(r, string(loggedInUserKey)); userId != "" {
			return userId
		}
	}

	if a.VerifyToken == nil {
		a.logger().Warn("no auth token verifier configured")
		return ""
	}

	var authTokens []string
	for _, header := range r.Header.Values(a.AuthTokenHeaderName) {
		authTokens = append(authTokens, strings.TrimPrefix(header, "Bearer "))
	}
	for _, cookie := range r.CookiesNamed(a.AuthTokenCookieName) {
		if len(cookie.Value) > 0 {
			authTokens = append(authTokens, cookie.Value)
		}
	}

	for _, authToken := range authTokens {
		loggedInUserId, err := a.VerifyToken(authToken)
		if err == nil && loggedInUserId != "" {
			return loggedInUserId
		} else if err != nil {
			a.logger().Warn("token verification failed", "err", err)
		}
	}
	return ""
}

// ExtractUser loads the subject id into the request context when a
// valid token is presented. It does not reject anonymous requests; use
// EnsureUser for that.
func (a *Middleware) ExtractUser(next http.Handler) http.Handler {
	a.EnsureReasonableDefaults()
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			userId := a.GetLoggedInUserId(r)
			next.ServeHTTP(w, a.setLoggedInUserId(userId, r))
		},
	)
}

// EnsureUser rejects requests without a valid session with a uniform
// 401 body that never says why the token was refused.
func (a *Middleware) EnsureUser(next http.Handler) http.Handler {
	a.EnsureReasonableDefaults()
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			userId := a.GetLoggedInUserId(r)
			if userId == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"statusCode":401,"message":"Authentication failed"}`))
				return
			}
			next.ServeHTTP(w, a.setLoggedInUserId(userId, r))
		},
	)
}

// LoggedInUserId returns the subject id placed on the context by
// ExtractUser/EnsureUser, or "" for anonymous requests.
func LoggedInUserId(ctx context.Context) string {
	if v, ok := ctx.Value(loggedInUserKey).(string); ok {
		return v
	}
	return ""
}

func (a *Middleware) setLoggedInUserId(userId string, r *http.Request) *http.Request {
	contextWithUser := context.WithValue(r.Context(), loggedInUserKey, userId)
	return r.WithContext(contextWithUser)
}
