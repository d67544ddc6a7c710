package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration, read from INTAKE_-prefixed
// environment variables.
type Config struct {
	Addr     string `envconfig:"INTAKE_ADDR" default:":8080"`
	Env      string `envconfig:"INTAKE_ENV" default:"development"`
	LogLevel string `envconfig:"INTAKE_LOG_LEVEL" default:"info"`

	// BaseURL is the public origin used when building shareable form links.
	BaseURL string `envconfig:"INTAKE_BASE_URL" default:"http://localhost:8080"`

	// StaticDir serves the marketing site when set (fullstack image).
	StaticDir string `envconfig:"INTAKE_STATIC_DIR"`
	// DevFrontendURL proxies / to a frontend dev server instead.
	DevFrontendURL string `envconfig:"INTAKE_DEV_FRONTEND_URL"`

	// DBPath is the sqlite file. Empty runs on the in-memory store, which
	// loses everything on restart; fine for local work only.
	DBPath string `envconfig:"INTAKE_DB_PATH"`

	JWTSecret string `envconfig:"INTAKE_JWT_SECRET" default:"intake-dev-secret"`

	// Seed credentials for the first operator account.
	AdminEmail    string `envconfig:"INTAKE_ADMIN_EMAIL"`
	AdminPassword string `envconfig:"INTAKE_ADMIN_PASSWORD"`

	RelayEndpoint  string `envconfig:"INTAKE_RELAY_ENDPOINT" default:"https://api.web3forms.com/submit"`
	RelayAccessKey string `envconfig:"INTAKE_RELAY_ACCESS_KEY"`

	// FormTTL is how long a saved form stays fetchable. 240h = 10 days.
	FormTTL time.Duration `envconfig:"INTAKE_FORM_TTL" default:"240h"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Production reports whether the process runs with production hardening
// (secure cookies, JSON logs).
func (c *Config) Production() bool { return c.Env == "production" }
