// Package config loads Marquee settings.
//
// Sources are layered with koanf, later ones winning: built-in defaults,
// an optional YAML file, then environment variables. A .env file in the
// working directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "MARQUEE_CONFIG"

// Trending backends.
const (
	BackendSQLite   = "sqlite"
	BackendAppwrite = "appwrite"
	BackendNone     = "none"
)

// Config is the full application configuration.
type Config struct {
	TMDB     TMDBConfig     `koanf:"tmdb"`
	Trending TrendingConfig `koanf:"trending"`
	UI       UIConfig       `koanf:"ui"`
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
}

// TMDBConfig configures the movie metadata API.
type TMDBConfig struct {
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"` // read but not sent; requests use the bearer token
	AccessToken string        `koanf:"access_token"`
	Timeout     time.Duration `koanf:"timeout"` // 0 means no timeout
}

// TrendingConfig selects and configures the trending store.
type TrendingConfig struct {
	Backend  string         `koanf:"backend"`
	DBPath   string         `koanf:"db_path"`
	Limit    int            `koanf:"limit"`
	Appwrite AppwriteConfig `koanf:"appwrite"`
}

// AppwriteConfig locates the hosted trending collection.
type AppwriteConfig struct {
	Endpoint     string `koanf:"endpoint"`
	ProjectID    string `koanf:"project_id"`
	APIKey       string `koanf:"api_key"`
	DatabaseID   string `koanf:"database_id"`
	CollectionID string `koanf:"collection_id"`
}

// UIConfig tunes the terminal UI.
type UIConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// ServerConfig configures the JSON API.
type ServerConfig struct {
	Addr        string   `koanf:"addr"`
	CORSOrigins []string `koanf:"cors_origins"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Level string `koanf:"level"`
	Dir   string `koanf:"dir"`
}

// Default returns the built-in defaults.
func Default() *Config {
	home := homeDir()
	return &Config{
		TMDB: TMDBConfig{
			BaseURL: "https://api.themoviedb.org/3",
		},
		Trending: TrendingConfig{
			Backend: BackendSQLite,
			DBPath:  filepath.Join(home, ".marquee", "trending.db"),
			Limit:   5,
			Appwrite: AppwriteConfig{
				Endpoint: "https://cloud.appwrite.io/v1",
			},
		},
		UI: UIConfig{
			Debounce: 500 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level: "info",
			Dir:   filepath.Join(home, ".marquee", "logs"),
		},
	}
}

// Load reads .env, then defaults, the config file and the environment.
// It does not validate; call Validate once the command knows what it needs.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(findConfigFile())
}

// LoadFrom layers the file at path (skipped when "") and the environment
// over the defaults.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Legacy names first so the canonical ones win when both are set.
	if err := k.Load(env.Provider("VITE_", ".", legacyEnvKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy environment variables: %w", err)
	}
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Trending.Backend = strings.ToLower(strings.TrimSpace(cfg.Trending.Backend))
	cfg.Trending.DBPath = expandHome(cfg.Trending.DBPath)
	cfg.Log.Dir = expandHome(cfg.Log.Dir)
	return cfg, nil
}

// legacyEnvMappings are the frontend .env names, accepted so an existing
// file keeps working. They load below envMappings.
var legacyEnvMappings = map[string]string{
	"VITE_API_KEY":      "tmdb.api_key",
	"VITE_ACCESS_TOKEN": "tmdb.access_token",
}

// envMappings maps environment variables to config keys.
var envMappings = map[string]string{
	"TMDB_BASE_URL":     "tmdb.base_url",
	"TMDB_API_KEY":      "tmdb.api_key",
	"TMDB_ACCESS_TOKEN": "tmdb.access_token",
	"TMDB_TIMEOUT":      "tmdb.timeout",

	"MARQUEE_TRENDING_BACKEND": "trending.backend",
	"MARQUEE_DB_PATH":          "trending.db_path",
	"MARQUEE_TRENDING_LIMIT":   "trending.limit",
	"APPWRITE_ENDPOINT":        "trending.appwrite.endpoint",
	"APPWRITE_PROJECT_ID":      "trending.appwrite.project_id",
	"APPWRITE_API_KEY":         "trending.appwrite.api_key",
	"APPWRITE_DATABASE_ID":     "trending.appwrite.database_id",
	"APPWRITE_COLLECTION_ID":   "trending.appwrite.collection_id",

	"MARQUEE_DEBOUNCE": "ui.debounce",

	"MARQUEE_ADDR":         "server.addr",
	"MARQUEE_CORS_ORIGINS": "server.cors_origins",

	"MARQUEE_LOG_LEVEL": "log.level",
	"MARQUEE_LOG_DIR":   "log.dir",
}

// envKey returns the config key for an environment variable, or "" to
// skip it.
func envKey(name string) string {
	return envMappings[strings.ToUpper(name)]
}

func legacyEnvKey(name string) string {
	return legacyEnvMappings[strings.ToUpper(name)]
}

// splitList turns a comma-separated string at path into a string slice.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range []string{"marquee.yaml", filepath.Join(homeDir(), ".marquee", "config.yaml")} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate checks everything the TUI and the API need.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.TMDB.AccessToken) == "" {
		errs = append(errs, errors.New("tmdb.access_token is required (set TMDB_ACCESS_TOKEN)"))
	}
	if c.TMDB.Timeout < 0 {
		errs = append(errs, fmt.Errorf("tmdb.timeout must not be negative, got %s", c.TMDB.Timeout))
	}
	if c.UI.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("ui.debounce must be positive, got %s", c.UI.Debounce))
	}
	errs = append(errs, c.ValidateTrending())
	return errors.Join(errs...)
}

// ValidateTrending checks only the trending store settings.
func (c *Config) ValidateTrending() error {
	var errs []error
	if c.Trending.Limit <= 0 {
		errs = append(errs, fmt.Errorf("trending.limit must be positive, got %d", c.Trending.Limit))
	}

	switch c.Trending.Backend {
	case BackendSQLite:
		if c.Trending.DBPath == "" {
			errs = append(errs, errors.New("trending.db_path is required for the sqlite backend"))
		}
	case BackendAppwrite:
		a := c.Trending.Appwrite
		for _, f := range []struct{ key, val string }{
			{"endpoint", a.Endpoint},
			{"project_id", a.ProjectID},
			{"api_key", a.APIKey},
			{"database_id", a.DatabaseID},
			{"collection_id", a.CollectionID},
		} {
			if f.val == "" {
				errs = append(errs, fmt.Errorf("trending.appwrite.%s is required for the appwrite backend", f.key))
			}
		}
	case BackendNone:
	default:
		errs = append(errs, fmt.Errorf("unknown trending.backend %q (want sqlite, appwrite or none)", c.Trending.Backend))
	}
	return errors.Join(errs...)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func expandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}
