package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Schoolbox SSO handshake configuration
//   - directory.go: Remote Schoolbox user directory configuration
//   - session.go: Session cookie configuration
//   - database.go: Database and Redis configuration
//   - http.go: HTTP server configuration
//   - observability.go: Tracing configuration
type AppConfig struct {
	// IsDev controls development mode behavior (placeholder secrets are tolerated).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// SSO handshake configuration
	SSO SSOConfig

	// Remote directory configuration
	Directory DirectoryConfig `envPrefix:"DIRECTORY_"`

	// Session cookie configuration
	Session SessionConfig `envPrefix:"SESSION_"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.SSO.Sanitize()
	c.Directory.Sanitize()
	c.Session.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// Validate enforces the fail-closed rules that cannot be fixed up by Sanitize.
// Placeholder credentials are only accepted in development mode.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.SSO.Validate(c.IsDev); err != nil {
		errs = append(errs, err)
	}
	if err := c.Directory.Validate(c.IsDev); err != nil {
		errs = append(errs, err)
	}
	if c.SSO.ReplayProtection && !c.Redis.Enabled {
		errs = append(errs, errors.New("SSO_REPLAY_PROTECTION requires REDIS_ENABLED=true"))
	}
	if !c.IsDev && !c.Session.CookieSecure {
		errs = append(errs, errors.New("SESSION_COOKIE_SECURE must be true outside development: SameSite=None cookies require Secure"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// SessionSecret returns the key material for sealing session cookies.
// It falls back to the SSO shared secret when SESSION_SECRET is not set.
func (c *AppConfig) SessionSecret() string {
	if c.Session.Secret != "" {
		return c.Session.Secret
	}
	return c.SSO.SharedSecret
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
