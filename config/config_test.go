package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foresteye/authkit/config"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTHD_JWT_SECRET", "test-secret")
	// Clear variables that may leak in from the host environment. The
	// Setenv call registers the restore, Unsetenv makes them truly
	// absent so defaults apply.
	for _, key := range []string{
		"AUTHD_ADDR", "AUTHD_ENV", "AUTHD_JWT_ISSUER", "AUTHD_TOKEN_TTL",
		"AUTHD_STORE", "AUTHD_DATABASE_DSN", "AUTHD_GCP_PROJECT",
		"AUTHD_COOKIE_MAX_AGE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "foresteye-auth", cfg.JWTIssuer)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.CookieMaxAge)
	assert.Equal(t, config.StoreFS, cfg.Store)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRequiresSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AUTHD_JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTHD_JWT_SECRET")
}

func TestLoadStoreRequirements(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "postgres needs a dsn",
			env:     map[string]string{"AUTHD_STORE": "postgres"},
			wantErr: "AUTHD_DATABASE_DSN",
		},
		{
			name: "postgres with dsn",
			env: map[string]string{
				"AUTHD_STORE":        "postgres",
				"AUTHD_DATABASE_DSN": "postgres://localhost/auth",
			},
		},
		{
			name:    "gae needs a project",
			env:     map[string]string{"AUTHD_STORE": "gae"},
			wantErr: "AUTHD_GCP_PROJECT",
		},
		{
			name: "gae with project",
			env: map[string]string{
				"AUTHD_STORE":       "gae",
				"AUTHD_GCP_PROJECT": "my-project",
			},
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"AUTHD_STORE": "dynamo"},
			wantErr: "unknown store backend",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := config.Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoadParsesDurations(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AUTHD_TOKEN_TTL", "30m")
	t.Setenv("AUTHD_COOKIE_MAX_AGE", "48h")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 48*time.Hour, cfg.CookieMaxAge)
}

func TestIsProduction(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AUTHD_ENV", "production")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
