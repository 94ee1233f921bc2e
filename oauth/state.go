package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"
)

const stateCookieName = "oauthstate"

// generateStateOauthCookie creates the anti-CSRF state value and sets
// it as a short-lived cookie.
func generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   300,
		Expires:  time.Now().Add(5 * time.Minute),
	})
	return state
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Path:   "/",
		MaxAge: -1,
	})
}
