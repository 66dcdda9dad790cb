// Package config provides environment-driven configuration for antennadesk.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret   `env:"DATABASE_URL"`
	Port        string   `env:"PORT" envDefault:"3030"`
	ListenHost  string   `env:"LISTEN_HOST" envDefault:"127.0.0.1"`
	MetricsPort string   `env:"METRICS_PORT" envDefault:"9091"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	DBMaxConns  int      `env:"DB_MAX_CONNS" envDefault:"20"`

	DBStatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"30s"`

	JWTSecret Secret        `env:"JWT_SECRET"`
	JWTIssuer string        `env:"JWT_ISSUER"`
	JWTLeeway time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`

	WSMaxConnections  int           `env:"WS_MAX_CONNECTIONS" envDefault:"1000"`
	WSMaxPerPrincipal int           `env:"WS_MAX_PER_PRINCIPAL" envDefault:"10"`
	WSMaxLifetime     time.Duration `env:"WS_MAX_LIFETIME" envDefault:"4h"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// LoadEnvFiles loads the given dotenv files into the process environment.
// Missing files are skipped; it returns how many files were loaded.
// Variables already present in the environment are never overridden.
func LoadEnvFiles(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return 0, fmt.Errorf("checking %s: %w", f, err)
		}

		existing = append(existing, f)
	}

	if len(existing) == 0 {
		return 0, nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return 0, fmt.Errorf("loading env files: %w", err)
	}

	return len(existing), nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// MetricsAddr returns the metrics listen address in host:port format.
func (c *Config) MetricsAddr() string {
	return c.ListenHost + ":" + c.MetricsPort
}
