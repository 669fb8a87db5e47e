package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every mapped variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, m := range []map[string]string{envMappings, legacyEnvMappings} {
		for name := range m {
			if v, ok := os.LookupEnv(name); ok {
				os.Unsetenv(name)
				t.Cleanup(func() { os.Setenv(name, v) })
			}
		}
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marquee.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Zero(t, cfg.TMDB.Timeout, "requests have no timeout unless configured")
	assert.Equal(t, BackendSQLite, cfg.Trending.Backend)
	assert.Equal(t, 5, cfg.Trending.Limit)
	assert.Equal(t, 500*time.Millisecond, cfg.UI.Debounce)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "trending.db", filepath.Base(cfg.Trending.DBPath))
}

func TestFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
tmdb:
  access_token: file-token
  timeout: 5s
trending:
  backend: NONE
  limit: 10
ui:
  debounce: 250ms
server:
  addr: 127.0.0.1:9000
  cors_origins:
    - http://localhost:5173
log:
  dir: ~/marquee-logs
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.TMDB.AccessToken)
	assert.Equal(t, 5*time.Second, cfg.TMDB.Timeout)
	assert.Equal(t, BackendNone, cfg.Trending.Backend)
	assert.Equal(t, 10, cfg.Trending.Limit)
	assert.Equal(t, 250*time.Millisecond, cfg.UI.Debounce)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, filepath.Join(homeDir(), "marquee-logs"), cfg.Log.Dir)
	// untouched keys keep their defaults
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "tmdb:\n  access_token: file-token\n")

	t.Setenv("TMDB_ACCESS_TOKEN", "env-token")
	t.Setenv("MARQUEE_DEBOUNCE", "1s")
	t.Setenv("MARQUEE_TRENDING_LIMIT", "3")
	t.Setenv("MARQUEE_CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("APPWRITE_PROJECT_ID", "proj-1")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.TMDB.AccessToken)
	assert.Equal(t, time.Second, cfg.UI.Debounce)
	assert.Equal(t, 3, cfg.Trending.Limit)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "proj-1", cfg.Trending.Appwrite.ProjectID)
}

func TestLegacyEnvNames(t *testing.T) {
	clearEnv(t)
	t.Setenv("VITE_ACCESS_TOKEN", "vite-token")
	t.Setenv("VITE_API_KEY", "vite-key")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "vite-token", cfg.TMDB.AccessToken)
	assert.Equal(t, "vite-key", cfg.TMDB.APIKey)
}

func TestCanonicalEnvBeatsLegacy(t *testing.T) {
	clearEnv(t)
	t.Setenv("TMDB_ACCESS_TOKEN", "canonical")
	t.Setenv("VITE_ACCESS_TOKEN", "legacy")
	t.Setenv("VITE_API_KEY", "legacy-key")
	t.Setenv("TMDB_API_KEY", "canonical-key")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "canonical", cfg.TMDB.AccessToken)
	assert.Equal(t, "canonical-key", cfg.TMDB.APIKey)
}

func TestLegacyEnvBeatsFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "tmdb:\n  access_token: file-token\n")
	t.Setenv("VITE_ACCESS_TOKEN", "legacy")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.TMDB.AccessToken)
}

func TestUnmappedEnvIgnored(t *testing.T) {
	assert.Equal(t, "", envKey("PATH"))
	assert.Equal(t, "tmdb.access_token", envKey("tmdb_access_token"))
	assert.Equal(t, "", envKey("VITE_ACCESS_TOKEN"))
	assert.Equal(t, "tmdb.access_token", legacyEnvKey("VITE_ACCESS_TOKEN"))
}

func TestLoadFromMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestFindConfigFileEnv(t *testing.T) {
	path := writeFile(t, "ui:\n  debounce: 1s\n")
	t.Setenv(PathEnvVar, path)
	assert.Equal(t, path, findConfigFile())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.TMDB.AccessToken = "tok"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid sqlite", func(*Config) {}, ""},
		{"valid none", func(c *Config) { c.Trending.Backend = BackendNone }, ""},
		{"missing token", func(c *Config) { c.TMDB.AccessToken = " " }, "tmdb.access_token is required"},
		{"unknown backend", func(c *Config) { c.Trending.Backend = "redis" }, `unknown trending.backend "redis"`},
		{"bad debounce", func(c *Config) { c.UI.Debounce = 0 }, "ui.debounce must be positive"},
		{"bad limit", func(c *Config) { c.Trending.Limit = 0 }, "trending.limit must be positive"},
		{"negative timeout", func(c *Config) { c.TMDB.Timeout = -time.Second }, "tmdb.timeout must not be negative"},
		{"appwrite incomplete", func(c *Config) {
			c.Trending.Backend = BackendAppwrite
			c.Trending.Appwrite.ProjectID = "p"
		}, "trending.appwrite.api_key is required"},
		{"appwrite complete", func(c *Config) {
			c.Trending.Backend = BackendAppwrite
			c.Trending.Appwrite = AppwriteConfig{
				Endpoint: "https://cloud.appwrite.io/v1", ProjectID: "p", APIKey: "k",
				DatabaseID: "d", CollectionID: "c",
			}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, homeDir(), expandHome("~"))
	assert.Equal(t, filepath.Join(homeDir(), "x", "y"), expandHome("~/x/y"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}

func TestValidateTrendingIgnoresToken(t *testing.T) {
	c := Default()
	assert.Error(t, c.Validate())
	assert.NoError(t, c.ValidateTrending())
}
