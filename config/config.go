// Package config loads server settings from the environment, after merging
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends selectable with STORE_BACKEND
const (
	BackendMongo     = "mongo"
	BackendPostgres  = "postgres"
	BackendDatastore = "datastore"
	BackendFS        = "fs"
)

// Config is everything the server needs at startup
type Config struct {
	Port string `env:"PORT" envDefault:"3000"`

	// SecretAccessKey signs access tokens
	SecretAccessKey string `env:"SECRET_ACCESS_KEY,required,notEmpty"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"mongo"`

	// DBLocation is the Mongo URI for the mongo backend and the DSN for postgres
	DBLocation string `env:"DB_LOCATION"`
	DBName     string `env:"DB_NAME" envDefault:"blogging"`

	StoragePath string `env:"STORAGE_PATH" envDefault:"./data"`

	DatastoreProject     string `env:"DATASTORE_PROJECT"`
	DatastoreNamespace   string `env:"DATASTORE_NAMESPACE"`
	GoogleCredentialFile string `env:"GOOGLE_CREDENTIALS_FILE"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"`

	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"0s"`
	StepTimeout time.Duration `env:"STEP_TIMEOUT" envDefault:"0s"`

	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:","`
	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"24h"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads the given .env files (or ./.env when none are given), then
// parses the environment. Missing .env files are not an error; values
// already set in the environment win over the files.
func Load(files ...string) (*Config, error) {
	for _, f := range envFiles(files) {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse()
}

// Parse builds a Config from the current environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other
func (c *Config) Validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case BackendMongo, BackendPostgres:
		if c.DBLocation == "" {
			return fmt.Errorf("DB_LOCATION is required for the %s backend", c.StoreBackend)
		}
	case BackendDatastore:
		if c.DatastoreProject == "" {
			return errors.New("DATASTORE_PROJECT is required for the datastore backend")
		}
	case BackendFS:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.TokenTTL < 0 || c.StepTimeout < 0 {
		return errors.New("TOKEN_TTL and STEP_TIMEOUT must not be negative")
	}
	return nil
}

// GoogleEnabled reports whether federated signin can be served
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

// RedirectFlowEnabled reports whether the server side Google flow can be mounted
func (c *Config) RedirectFlowEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleCallbackURL != ""
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func envFiles(files []string) []string {
	if len(files) == 0 {
		return []string{".env"}
	}
	return files
}
