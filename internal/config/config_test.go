package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load looks at, so the host environment
// cannot leak into a test. Viper treats empty variables as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT",
		"CLICKS_SERVER_PORT", "CLICKS_SERVER_BASE_URL",
		"CLICKS_DATABASE_DRIVER", "CLICKS_DATABASE_PATH", "CLICKS_DATABASE_URL",
		"CLICKS_SESSION_SECRET", "CLICKS_SESSION_TTL",
		"CLICKS_GITHUB_CLIENT_ID", "CLICKS_GITHUB_CLIENT_SECRET", "CLICKS_GITHUB_CALLBACK_URL",
		"CLICKS_WEB_TEMPLATE_DIR", "CLICKS_WEB_STATIC_DIR",
		"CLICKS_LOG_LEVEL", "CLICKS_LOG_FORMAT",
		"CLICKS_COUNTER_CONSISTENCY",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/clicks.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Empty(t, cfg.Session.Secret, "an unset secret is valid; the server fills it in")
	assert.Equal(t, "http://localhost:8080/auth/github/callback", cfg.GitHub.CallbackURL)
	assert.Equal(t, "web/templates", cfg.Web.TemplateDir)
	assert.Equal(t, ConsistencyRelaxed, cfg.Counter.Consistency)
	assert.False(t, cfg.GitHubEnabled())
	assert.False(t, cfg.SecureCookies())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLICKS_SERVER_BASE_URL", "https://clicks.example.com/")
	t.Setenv("CLICKS_SESSION_SECRET", "0123456789abcdef0123")
	t.Setenv("CLICKS_SESSION_TTL", "90m")
	t.Setenv("CLICKS_GITHUB_CLIENT_ID", "id")
	t.Setenv("CLICKS_GITHUB_CLIENT_SECRET", "secret")
	t.Setenv("CLICKS_COUNTER_CONSISTENCY", "Serialized")
	t.Setenv("CLICKS_LOG_LEVEL", "debug")

	cfg, err := loadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://clicks.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "https://clicks.example.com/auth/github/callback", cfg.GitHub.CallbackURL)
	assert.Equal(t, 90*time.Minute, cfg.Session.TTL)
	assert.Equal(t, ConsistencySerialized, cfg.Counter.Consistency)
	assert.True(t, cfg.GitHubEnabled())
	assert.True(t, cfg.SecureCookies())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_PortVariables(t *testing.T) {
	t.Run("bare PORT", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "3000")

		cfg, err := loadFrom(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, 3000, cfg.Server.Port)
		assert.Equal(t, "http://localhost:3000", cfg.Server.BaseURL)
	})

	t.Run("prefixed wins over PORT", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "3000")
		t.Setenv("CLICKS_SERVER_PORT", "4000")

		cfg, err := loadFrom(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, 4000, cfg.Server.Port)
	})
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
server:
  port: 9000
database:
  driver: postgres
  url: postgres://clicks@localhost/clicks
log:
  format: json
`)

	cfg, err := loadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://clicks@localhost/clicks", cfg.Database.URL)
	assert.Equal(t, "json", cfg.Log.Format)

	// Environment beats the file.
	t.Setenv("CLICKS_SERVER_PORT", "9100")
	cfg, err = loadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, ".env", "CLICKS_DATABASE_PATH=/tmp/from-dotenv.db\nCLICKS_LOG_LEVEL=warn\n")

	// A variable that is already set is not overridden by .env.
	t.Setenv("CLICKS_LOG_LEVEL", "error")

	// godotenv skips variables that are set, even to "", so this one must be
	// truly unset. clearEnv's t.Setenv restores it after the test.
	require.NoError(t, os.Unsetenv("CLICKS_DATABASE_PATH"))

	cfg, err := loadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Database.Path)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"CLICKS_DATABASE_DRIVER": "mongodb"}},
		{"postgres without url", map[string]string{"CLICKS_DATABASE_DRIVER": "postgres"}},
		{"short secret", map[string]string{"CLICKS_SESSION_SECRET": "short"}},
		{"unknown consistency", map[string]string{"CLICKS_COUNTER_CONSISTENCY": "strict"}},
		{"unknown log format", map[string]string{"CLICKS_LOG_FORMAT": "xml"}},
		{"bad log level", map[string]string{"CLICKS_LOG_LEVEL": "loud"}},
		{"port out of range", map[string]string{"CLICKS_SERVER_PORT": "70000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := loadFrom(t.TempDir())
			assert.Error(t, err)
		})
	}
}
