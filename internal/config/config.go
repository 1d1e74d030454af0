package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// SearchMode controls what a view does when the operator edits the search term.
type SearchMode string

const (
	// SearchModeRefetch re-runs the full remote join for every search change.
	SearchModeRefetch SearchMode = "refetch"
	// SearchModeLocal re-filters the last successfully joined dataset in memory.
	SearchModeLocal SearchMode = "local"
)

// Provider is the read-only view of the configuration handed to the rest of
// the application.
type Provider interface {
	GetDBURL() string
	GetDBNs() string
	GetDBDb() string
	GetDBUser() string
	GetDBPass() string
	GetDBQueryTimeout() time.Duration
	GetDBExecuteTimeout() time.Duration
	HasStore() bool

	GetServerAddr() string
	GetSessionSecret() string
	GetSearchMode() SearchMode
	GetTracing() Tracing
}

// Tracing holds the OpenTelemetry exporter settings.
type Tracing struct {
	Enabled     bool   `env:"TRACING_ENABLED" envDefault:"false"`
	ServiceName string `env:"TRACING_SERVICE_NAME" envDefault:"profitbridge"`
	ZipkinURL   string `env:"TRACING_ZIPKIN_URL" envDefault:"http://localhost:9411/api/v2/spans"`
}

// Config holds all configuration for the application.
type Config struct {
	DBUrl            string        `env:"SURREAL_URL"`
	DBNs             string        `env:"SURREAL_NS"`
	DBDb             string        `env:"SURREAL_DB"`
	DBUser           string        `env:"SURREAL_USER"`
	DBPass           string        `env:"SURREAL_PASS"`
	DBQueryTimeout   time.Duration `env:"DB_QUERY_TIMEOUT" envDefault:"5s"`
	DBExecuteTimeout time.Duration `env:"DB_EXECUTE_TIMEOUT" envDefault:"10s"`

	ServerAddr    string     `env:"SERVER_ADDR" envDefault:":8080"`
	SessionSecret string     `env:"SESSION_SECRET" envDefault:"change-me-in-production"`
	SearchMode    SearchMode `env:"INVESTMENTS_SEARCH_MODE" envDefault:"refetch"`

	Tracing Tracing
}

// New loads configuration from an optional .env file and the environment.
// Missing database settings are not fatal: the store layer falls back to a
// client that fails every call.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// Load parses the environment without touching .env files.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.SearchMode = SearchMode(strings.ToLower(strings.TrimSpace(string(cfg.SearchMode))))
	switch cfg.SearchMode {
	case SearchModeRefetch, SearchModeLocal:
	default:
		return nil, fmt.Errorf("INVESTMENTS_SEARCH_MODE must be %q or %q, got %q", SearchModeRefetch, SearchModeLocal, cfg.SearchMode)
	}

	if cfg.DBQueryTimeout <= 0 {
		return nil, fmt.Errorf("DB_QUERY_TIMEOUT must be a positive duration")
	}
	if cfg.DBExecuteTimeout <= 0 {
		return nil, fmt.Errorf("DB_EXECUTE_TIMEOUT must be a positive duration")
	}

	return cfg, nil
}

func (c *Config) GetDBURL() string                   { return c.DBUrl }
func (c *Config) GetDBNs() string                    { return c.DBNs }
func (c *Config) GetDBDb() string                    { return c.DBDb }
func (c *Config) GetDBUser() string                  { return c.DBUser }
func (c *Config) GetDBPass() string                  { return c.DBPass }
func (c *Config) GetDBQueryTimeout() time.Duration   { return c.DBQueryTimeout }
func (c *Config) GetDBExecuteTimeout() time.Duration { return c.DBExecuteTimeout }
func (c *Config) GetServerAddr() string              { return c.ServerAddr }
func (c *Config) GetSessionSecret() string           { return c.SessionSecret }
func (c *Config) GetSearchMode() SearchMode          { return c.SearchMode }
func (c *Config) GetTracing() Tracing                { return c.Tracing }

// HasStore reports whether enough database settings are present to build a
// live store client.
func (c *Config) HasStore() bool {
	return c.DBUrl != "" && c.DBNs != "" && c.DBDb != ""
}
