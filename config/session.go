package config

import "strings"

// DefaultSessionCookieName is the cookie carrying the sealed session claims.
// The session window itself is fixed at one hour and is not configurable.
const DefaultSessionCookieName = "sbx_training_session"

// SessionConfig contains session cookie configuration.
type SessionConfig struct {
	CookieName string `env:"COOKIE_NAME" envDefault:"sbx_training_session"`

	// Secret seeds the cookie sealing key. Falls back to SBX_SHARED_SECRET when empty.
	Secret string `env:"SECRET"`

	// CookieDomain is the domain for session cookies. Leave empty to use the request host.
	CookieDomain string `env:"COOKIE_DOMAIN" envDefault:""`

	// CookieSecure must stay true in any cross-site iframe deployment.
	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"true"`
}

// Sanitize fills defaults.
func (c *SessionConfig) Sanitize() {
	c.CookieName = strings.TrimSpace(c.CookieName)
	if c.CookieName == "" {
		c.CookieName = DefaultSessionCookieName
	}
	c.CookieDomain = strings.TrimSpace(c.CookieDomain)
}
