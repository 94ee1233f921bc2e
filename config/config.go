// Package config loads service configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backend selectors.
const (
	StoreFS       = "fs"
	StorePostgres = "postgres"
	StoreGAE      = "gae"
)

// Config is the full authd configuration.
type Config struct {
	Addr string `env:"AUTHD_ADDR" envDefault:":8080"`
	Env  string `env:"AUTHD_ENV" envDefault:"development"`

	// JWTSecret signs session tokens. Required; startup fails without it.
	JWTSecret string        `env:"AUTHD_JWT_SECRET"`
	JWTIssuer string        `env:"AUTHD_JWT_ISSUER" envDefault:"foresteye-auth"`
	TokenTTL  time.Duration `env:"AUTHD_TOKEN_TTL" envDefault:"1h"`

	// GoogleClientID is the audience federated tokens must be minted
	// for. Federated login is disabled when empty.
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"`

	// RSAPublicKeyPath enables response-field encryption when set.
	RSAPublicKeyPath string `env:"AUTHD_RSA_PUBLIC_KEY"`

	CookieDomain string        `env:"AUTHD_COOKIE_DOMAIN"`
	CookieSecure bool          `env:"AUTHD_COOKIE_SECURE"`
	CookieMaxAge time.Duration `env:"AUTHD_COOKIE_MAX_AGE" envDefault:"24h"`

	// Store selects the user store backend: fs, postgres or gae.
	Store       string `env:"AUTHD_STORE" envDefault:"fs"`
	DataDir     string `env:"AUTHD_DATA_DIR" envDefault:"./data"`
	DatabaseDSN string `env:"AUTHD_DATABASE_DSN"`
	GCPProject  string `env:"AUTHD_GCP_PROJECT"`
}

// Load parses and validates the environment. A missing signing secret
// is a configuration error here, not a per-request failure later.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("AUTHD_JWT_SECRET is required")
	}
	switch cfg.Store {
	case StoreFS:
	case StorePostgres:
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("AUTHD_DATABASE_DSN is required for the postgres store")
		}
	case StoreGAE:
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("AUTHD_GCP_PROJECT is required for the gae store")
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production
// security requirements.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
