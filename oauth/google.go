// Package oauth implements the browser redirect-flow Google login:
// state cookie, authorization-code exchange, and userinfo fetch. The
// terminal policy is the same as the ID-token flow — only verified
// emails proceed, and what happens to them is up to the injected
// callback.
package oauth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const oauthGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// HandleEmailFunc receives the provider-verified email after a
// successful callback. Implementations decide whether a session is
// issued (e.g. only for pre-existing accounts).
type HandleEmailFunc func(email string, w http.ResponseWriter, r *http.Request)

// Google drives the redirect-based login flow.
type Google struct {
	config      *oauth2.Config
	handleEmail HandleEmailFunc
	logger      *slog.Logger

	// FailureURL is where callback errors redirect. Defaults to "/".
	FailureURL string
}

func NewGoogle(clientID, clientSecret, callbackURL string, handleEmail HandleEmailFunc) *Google {
	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		handleEmail: handleEmail,
		FailureURL:  "/",
	}
}

func (g *Google) WithLogger(l *slog.Logger) *Google {
	g.logger = l
	return g
}

func (g *Google) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

// Handler mounts the redirect and callback endpoints on a fresh mux.
func (g *Google) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", g.HandleRedirect)
	mux.HandleFunc("/callback/", g.HandleCallback)
	return mux
}

// HandleRedirect sets the state cookie and sends the browser to
// Google's consent page.
func (g *Google) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	state := generateStateOauthCookie(w)
	http.Redirect(w, r, g.config.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback validates state, exchanges the code, fetches the
// userinfo document and hands the verified email to the callback.
func (g *Google) HandleCallback(w http.ResponseWriter, r *http.Request) {
	oauthState, _ := r.Cookie(stateCookieName)
	if oauthState == nil || r.FormValue("state") != oauthState.Value {
		clearStateCookie(w)
		g.log().Warn("oauth callback rejected", "reason", "state mismatch")
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}

	token, err := g.config.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		g.log().Warn("oauth code exchange failed", "err", err)
		http.Redirect(w, r, g.FailureURL, http.StatusTemporaryRedirect)
		return
	}

	info, err := g.fetchUserInfo(r.Context(), token)
	if err != nil {
		g.log().Warn("oauth userinfo fetch failed", "err", err)
		http.Redirect(w, r, g.FailureURL, http.StatusTemporaryRedirect)
		return
	}
	if !info.VerifiedEmail || info.Email == "" {
		g.log().Warn("oauth login rejected", "reason", "email not verified")
		http.Redirect(w, r, g.FailureURL, http.StatusTemporaryRedirect)
		return
	}

	g.handleEmail(info.Email, w, r)
}

type userInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
}

func (g *Google) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*userInfo, error) {
	client := g.config.Client(ctx, token)
	resp, err := client.Get(oauthGoogleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
