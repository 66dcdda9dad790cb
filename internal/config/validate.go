package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// minJWTSecretLen is the shortest HMAC secret accepted for token verification.
const minJWTSecretLen = 32

// listenHosts are loopback addresses plus the container wildcards.
var listenHosts = map[string]bool{
	"127.0.0.1": true,
	"::1":       true,
	"localhost": true,
	"0.0.0.0":   true,
	"::":        true,
}

// validate reports every problem at once, joined.
func (c *Config) validate() error {
	var errs []error
	for _, check := range []func() []error{
		c.checkDatabase,
		c.checkListeners,
		c.checkCORS,
		c.checkAuth,
		c.checkHub,
	} {
		errs = append(errs, check()...)
	}

	return errors.Join(errs...)
}

func (c *Config) checkDatabase() []error {
	var errs []error

	switch raw := c.DatabaseURL.Value(); {
	case raw == "":
		errs = append(errs, errors.New("DATABASE_URL is required"))
	default:
		u, err := url.Parse(raw)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("DATABASE_URL is not a valid URL: %w", err))
		case u.Scheme != "postgres" && u.Scheme != "postgresql":
			errs = append(errs, errors.New("DATABASE_URL scheme must be postgres:// or postgresql://"))
		case u.Hostname() == "":
			errs = append(errs, errors.New("DATABASE_URL must include a host"))
		case !isLoopback(u.Hostname()) && u.Query().Get("sslmode") == "disable":
			errs = append(errs, fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", u.Hostname()))
		}
	}

	if c.DBMaxConns < 2 || c.DBMaxConns > 200 {
		errs = append(errs, errors.New("DB_MAX_CONNS must be an integer between 2 and 200"))
	}

	if c.DBStatementTimeout < time.Second {
		errs = append(errs, errors.New("DB_STATEMENT_TIMEOUT must be at least 1s"))
	}

	return errs
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// parsePort validates a TCP port variable.
func parsePort(name, value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", name, err)
	}

	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 1 and 65535", name)
	}

	return port, nil
}

func (c *Config) checkListeners() []error {
	var errs []error

	api, apiErr := parsePort("PORT", c.Port)
	metrics, metricsErr := parsePort("METRICS_PORT", c.MetricsPort)

	for _, err := range []error{apiErr, metricsErr} {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if apiErr == nil && metricsErr == nil && api == metrics {
		errs = append(errs, errors.New("METRICS_PORT must differ from PORT"))
	}

	if !listenHosts[c.ListenHost] {
		errs = append(errs, fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost))
	}

	return errs
}

// checkCORS requires explicit scheme://host origins.
func (c *Config) checkCORS() []error {
	var errs []error

	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			errs = append(errs, errors.New("CORS_ORIGINS must not contain wildcard '*'"))

			continue
		}

		if strings.ContainsAny(origin, "*?[]") {
			errs = append(errs, fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin))

			continue
		}

		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin))
		}
	}

	return errs
}

func (c *Config) checkAuth() []error {
	secret := c.JWTSecret.Value()

	var errs []error

	switch {
	case secret == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case len(secret) < minJWTSecretLen:
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters, got %d", minJWTSecretLen, len(secret)))
	}

	if c.JWTLeeway < 0 {
		errs = append(errs, errors.New("JWT_LEEWAY must not be negative"))
	}

	return errs
}

func (c *Config) checkHub() []error {
	var errs []error

	if c.WSMaxConnections < 1 || c.WSMaxConnections > 100000 {
		errs = append(errs, errors.New("WS_MAX_CONNECTIONS must be an integer between 1 and 100000"))
	}

	if c.WSMaxPerPrincipal < 1 || c.WSMaxPerPrincipal > c.WSMaxConnections {
		errs = append(errs, errors.New("WS_MAX_PER_PRINCIPAL must be between 1 and WS_MAX_CONNECTIONS"))
	}

	if c.WSMaxLifetime <= 0 {
		errs = append(errs, errors.New("WS_MAX_LIFETIME must be positive"))
	}

	return errs
}
