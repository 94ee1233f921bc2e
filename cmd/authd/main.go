// Command authd runs the identity and session-authentication service.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/alexedwards/scs/v2"
	gormdriver "gorm.io/driver/postgres"
	gormdb "gorm.io/gorm"

	"github.com/foresteye/authkit"
	"github.com/foresteye/authkit/config"
	"github.com/foresteye/authkit/googleid"
	"github.com/foresteye/authkit/oauth"
	gaestore "github.com/foresteye/authkit/stores/gae"
	gormstore "github.com/foresteye/authkit/stores/gorm"

	"github.com/foresteye/authkit/stores"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// All key material is loaded exactly once here and treated as
	// immutable for the process lifetime.
	signer, err := authkit.NewSigner(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	cookies := authkit.DefaultCookieConfig()
	cookies.Domain = cfg.CookieDomain
	cookies.Secure = cfg.CookieSecure
	cookies.MaxAge = cfg.CookieMaxAge
	if err := cookies.Validate(cfg.IsProduction()); err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	var encrypter *authkit.ResponseEncrypter
	if cfg.RSAPublicKeyPath != "" {
		encrypter, err = authkit.LoadPublicKey(cfg.RSAPublicKeyPath)
		if err != nil {
			log.Fatalf("configuration error: %v", err)
		}
	}

	userStore, err := openUserStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open user store: %v", err)
	}

	var verifier authkit.IdentityVerifier
	if cfg.GoogleClientID != "" {
		validator, err := googleid.NewValidator(ctx)
		if err != nil {
			log.Fatalf("failed to create google validator: %v", err)
		}
		verifier, err = googleid.New(cfg.GoogleClientID, validator)
		if err != nil {
			log.Fatalf("configuration error: %v", err)
		}
	}

	session := scs.New()
	session.Lifetime = cfg.CookieMaxAge
	session.Cookie.HttpOnly = true
	session.Cookie.Secure = cfg.CookieSecure

	issuer := &authkit.SessionIssuer{
		Users:     userStore,
		Signer:    signer,
		Cookies:   cookies,
		Google:    verifier,
		Encrypter: encrypter,
		Logger:    logger,
	}

	handler := &authkit.AuthHandler{
		Issuer: issuer,
		Middleware: &authkit.Middleware{
			VerifyToken: signer.Verify,
			SessionGetter: func(r *http.Request, param string) string {
				return session.GetString(r.Context(), param)
			},
			Logger: logger,
		},
		Session: session,
		Logger:  logger,
	}

	router := handler.Router()

	// Redirect-flow Google login for browser clients, alongside the
	// token-POST endpoint.
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		google := oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL,
			func(email string, w http.ResponseWriter, r *http.Request) {
				result, err := issuer.EmailLogin(r.Context(), email)
				if err != nil {
					http.Error(w, `{"statusCode":401,"message":"Authentication failed"}`, http.StatusUnauthorized)
					return
				}
				http.SetCookie(w, cookies.NewCookie(result.Token))
				session.Put(r.Context(), "loggedInUserId", result.User.ID)
				http.Redirect(w, r, "/", http.StatusFound)
			}).WithLogger(logger)
		router.PathPrefix("/user/oauth/google").Handler(
			http.StripPrefix("/user/oauth/google", google.Handler()))
	}

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      session.LoadAndSave(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("authd listening", "addr", cfg.Addr, "store", cfg.Store, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

func openUserStore(ctx context.Context, cfg *config.Config) (authkit.UserStore, error) {
	switch cfg.Store {
	case config.StorePostgres:
		// TranslateError maps driver duplicate-key errors onto
		// gorm.ErrDuplicatedKey, which the store relies on.
		db, err := gormdb.Open(gormdriver.Open(cfg.DatabaseDSN), &gormdb.Config{TranslateError: true})
		if err != nil {
			return nil, err
		}
		if err := gormstore.AutoMigrate(db); err != nil {
			return nil, err
		}
		return gormstore.NewUserStore(db), nil
	case config.StoreGAE:
		client, err := datastore.NewClient(ctx, cfg.GCPProject)
		if err != nil {
			return nil, err
		}
		return gaestore.NewUserStore(client), nil
	default:
		return stores.NewFSUserStore(cfg.DataDir), nil
	}
}
