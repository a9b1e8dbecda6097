package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// PlaceholderSharedSecret is the development default for SBX_SHARED_SECRET.
// It differs from any real deployment's secret, so it never matches a genuine Schoolbox signature.
const PlaceholderSharedSecret = "dev-insecure-shared-secret"

// SSOConfig contains the Schoolbox iframe handshake configuration.
type SSOConfig struct {
	// SharedSecret is the secret Schoolbox uses to sign handshakes.
	SharedSecret string `env:"SBX_SHARED_SECRET" envDefault:"dev-insecure-shared-secret"`

	// AdminUsernames always receive the admin session flag.
	AdminUsernames []string `env:"ADMIN_USERNAMES" envSeparator:","`

	// InstitutionDomain is used to synthesize an email for remote users without one.
	InstitutionDomain string `env:"INSTITUTION_DOMAIN" envDefault:"school.example.edu"`

	// HRGrantsAdmin keeps the historical behaviour where HR membership sets the admin flag.
	HRGrantsAdmin bool `env:"SSO_HR_GRANTS_ADMIN" envDefault:"true"`

	// ReplayProtection rejects a handshake signature that was already used (requires Redis).
	ReplayProtection bool `env:"SSO_REPLAY_PROTECTION" envDefault:"false"`

	// VerifyRateLimit is the number of /api/verify requests allowed per client IP per minute.
	VerifyRateLimit int `env:"SSO_VERIFY_RATE_LIMIT" envDefault:"30"`
}

// Sanitize normalises SSO values.
func (c *SSOConfig) Sanitize() {
	c.SharedSecret = strings.TrimSpace(c.SharedSecret)
	c.InstitutionDomain = strings.ToLower(strings.TrimSpace(c.InstitutionDomain))
	if c.VerifyRateLimit < 0 {
		c.VerifyRateLimit = 0
	}

	admins := make([]string, 0, len(c.AdminUsernames))
	for _, name := range c.AdminUsernames {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			admins = append(admins, trimmed)
		}
	}
	c.AdminUsernames = admins
}

// Validate rejects configurations that would silently weaken verification.
func (c *SSOConfig) Validate(isDev bool) error {
	if c.SharedSecret == "" {
		return errors.New("SBX_SHARED_SECRET is required")
	}
	if !isDev && c.SharedSecret == PlaceholderSharedSecret {
		return errors.New("SBX_SHARED_SECRET is still the development placeholder")
	}
	if err := validateInstitutionDomain(c.InstitutionDomain); err != nil {
		return err
	}
	return nil
}

// validateInstitutionDomain requires a registrable domain (not a bare public suffix like "edu.au").
func validateInstitutionDomain(domain string) error {
	if domain == "" {
		return errors.New("INSTITUTION_DOMAIN is required")
	}
	if strings.ContainsAny(domain, "@/ ") {
		return fmt.Errorf("INSTITUTION_DOMAIN %q is not a domain name", domain)
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
		return fmt.Errorf("INSTITUTION_DOMAIN %q: %w", domain, err)
	}
	return nil
}
