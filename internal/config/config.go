// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
)

// Config is the full service configuration. Development mode (the default)
// runs embedded NATS, mock authentication and the mock analytics sink, so
// nothing beyond the binary is needed locally.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"3000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"memory"`
	SQLiteFile  string `env:"SQLITE_FILE" envDefault:"dev.sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`
	CatalogDir  string `env:"CATALOG_DIR" envDefault:"data"`

	NATSURL      string        `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSSubject  string        `env:"NATS_SUBJECT" envDefault:"ledger.events"`
	EmbeddedNATS bool          `env:"EMBEDDED_NATS"`
	NATSStoreDir string        `env:"NATS_STORE_DIR"`
	NATSMaxAge   time.Duration `env:"NATS_MAX_AGE" envDefault:"24h"`

	ClickHouseAddr     string `env:"CLICKHOUSE_ADDR"`
	ClickHouseDB       string `env:"CLICKHOUSE_DB" envDefault:"default"`
	ClickHouseUser     string `env:"CLICKHOUSE_USER" envDefault:"default"`
	ClickHousePassword string `env:"CLICKHOUSE_PASSWORD"`

	AuthentikBaseURL      string   `env:"AUTHENTIK_BASE_URL"`
	AuthentikClientID     string   `env:"AUTHENTIK_CLIENT_ID"`
	AuthentikClientSecret string   `env:"AUTHENTIK_CLIENT_SECRET"`
	AuthentikRedirectURL  string   `env:"AUTHENTIK_REDIRECT_URL" envDefault:"http://localhost:3000/auth/callback"`
	CommissionerGroups    []string `env:"COMMISSIONER_GROUPS" envSeparator:"," envDefault:"admins,commissioner"`

	ImageAllowedHost string `env:"IMAGE_ALLOWED_HOST" envDefault:"resources.premierleague.com"`

	MCPEnabled bool   `env:"MCP_ENABLED"`
	MCPPath    string `env:"MCP_PATH" envDefault:"/mcp"`
	MCPAPIKey  string `env:"MCP_API_KEY"`
}

// Load parses the environment and checks the combination of settings.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDevelopment reports whether local doubles should stand in for
// external services.
func (c Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// UseEmbeddedNATS is true in development or when forced.
func (c Config) UseEmbeddedNATS() bool {
	return c.EmbeddedNATS || c.IsDevelopment()
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "memory", "sqlite":
	case "postgres":
		// development falls back to a SQLite stand-in
		if c.DatabaseURL == "" && !c.IsDevelopment() {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return errors.Newf("unknown DB_DRIVER %q (valid: memory, sqlite, postgres)", c.DBDriver)
	}

	if !c.IsDevelopment() {
		if c.AuthentikBaseURL == "" || c.AuthentikClientID == "" || c.AuthentikClientSecret == "" {
			return errors.New("AUTHENTIK_BASE_URL, AUTHENTIK_CLIENT_ID and AUTHENTIK_CLIENT_SECRET are required outside development")
		}
	}

	if c.MCPEnabled && !strings.HasPrefix(c.MCPPath, "/") {
		return errors.Newf("MCP_PATH must start with /, got %q", c.MCPPath)
	}
	return nil
}
