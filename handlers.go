package authkit

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
)

// AuthHandler is the HTTP boundary. It translates requests into calls
// against the SessionIssuer and maps outcomes to status codes. All
// auth failures collapse to a uniform 401 body; the specific cause is
// logged, never echoed to the client.
type AuthHandler struct {
	Issuer *SessionIssuer

	// Middleware guards the verify endpoint.
	Middleware *Middleware

	// Session, when set, mirrors the logged in user id into the server
	// session on login and clears it on logout.
	Session *scs.SessionManager

	Logger *slog.Logger
}

func (h *AuthHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Router mounts the auth endpoints under /user.
func (h *AuthHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.recoverPanics)
	r.HandleFunc("/user/register", h.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/user/login", h.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/user/auth/google", h.handleGoogleAuth).Methods(http.MethodPost)
	r.HandleFunc("/user/logout", h.handleLogout).Methods(http.MethodPost)
	r.Handle("/user/verify", h.Middleware.EnsureUser(http.HandlerFunc(h.handleVerify))).Methods(http.MethodGet)
	return r
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, NewAuthError("parse_error", "Invalid post body", ""))
		return
	}

	user, err := h.Issuer.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		var authErr *AuthError
		switch {
		case errors.As(err, &authErr):
			h.writeJSON(w, http.StatusBadRequest, authErr)
		case errors.Is(err, ErrEmailExists):
			h.writeJSON(w, http.StatusConflict, map[string]any{"message": "Email already registered"})
		default:
			h.logger().Error("registration failed", "err", err)
			h.writeJSON(w, http.StatusBadRequest, NewAuthError("create_failed", "Failed to create user", ""))
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered",
		"id":      user.ID,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		h.writeJSON(w, http.StatusBadRequest, NewAuthError(ErrCodeMissingField, "Email and password required", ""))
		return
	}

	result, err := h.Issuer.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.unauthorized(w, "Invalid credentials")
		return
	}

	// Whether encrypted or not, the response carries the email under
	// the same key so clients don't need to care.
	userField := result.User.Email
	if result.EncryptedEmail != "" {
		userField = result.EncryptedEmail
	}

	h.establishSession(w, r, result)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Auth Success",
		"user":    userField,
		"token":   result.Token,
	})
}

type googleAuthRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) handleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	var req googleAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		h.writeJSON(w, http.StatusBadRequest, NewAuthError(ErrCodeMissingField, "Token required", "token"))
		return
	}

	// ErrUnverifiedEmail, ErrInvalidAssertion and ErrUnauthorized all
	// collapse to the same body here.
	result, err := h.Issuer.GoogleLogin(r.Context(), req.Token)
	if err != nil {
		h.unauthorized(w, "Authentication failed")
		return
	}

	h.establishSession(w, r, result)
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Auth Success"})
}

func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	subjectID := LoggedInUserId(r.Context())
	user, err := h.Issuer.Lookup(r.Context(), subjectID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]any{"auth": false})
			return
		}
		h.logger().Error("verify failed", "subject", subjectID, "err", err)
		h.unauthorized(w, "Authentication failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Auth Success",
		"id":      user.ID,
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if h.Session != nil {
		if err := h.Session.Clear(r.Context()); err != nil {
			h.logger().Warn("error clearing session", "err", err)
		}
	}
	http.SetCookie(w, h.Issuer.Cookies.ExpiredCookie())
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

// establishSession sets the session cookie and mirrors the login into
// the server session. Only called on successful login flows.
func (h *AuthHandler) establishSession(w http.ResponseWriter, r *http.Request, result *LoginResult) {
	http.SetCookie(w, h.Issuer.Cookies.NewCookie(result.Token))
	if h.Session != nil {
		h.Session.Put(r.Context(), string(loggedInUserKey), result.User.ID)
	}
}

func (h *AuthHandler) unauthorized(w http.ResponseWriter, message string) {
	h.writeJSON(w, http.StatusUnauthorized, map[string]any{
		"statusCode": http.StatusUnauthorized,
		"message":    message,
	})
}

func (h *AuthHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger().Warn("error writing response", "err", err)
	}
}

// recoverPanics converts anything that escapes a handler into a 401
// instead of propagating a stack trace to the client.
func (h *AuthHandler) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger().Error("panic in auth handler", "path", r.URL.Path, "panic", rec)
				h.unauthorized(w, "Authentication failed")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
