package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_ParseDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.SSO.SharedSecret != PlaceholderSharedSecret {
		t.Fatalf("expected placeholder shared secret, got %q", cfg.SSO.SharedSecret)
	}
	if !cfg.SSO.HRGrantsAdmin {
		t.Fatal("expected HR to grant admin by default")
	}
	if cfg.Session.CookieName != "sbx_training_session" {
		t.Fatalf("unexpected cookie name %q", cfg.Session.CookieName)
	}
	if cfg.Directory.MaxPages != 20 {
		t.Fatalf("expected 20 max pages, got %d", cfg.Directory.MaxPages)
	}
	if cfg.Directory.Timeout != 10*time.Second {
		t.Fatalf("expected 10s directory timeout, got %v", cfg.Directory.Timeout)
	}
}

func TestAppConfig_ParseSSOFromEnv(t *testing.T) {
	t.Setenv("SBX_SHARED_SECRET", "  s3cret  ")
	t.Setenv("ADMIN_USERNAMES", "jsmith, , akhan ")
	t.Setenv("INSTITUTION_DOMAIN", " Example.EDU.au ")
	t.Setenv("SSO_HR_GRANTS_ADMIN", "false")
	t.Setenv("SSO_REPLAY_PROTECTION", "true")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	expected := SSOConfig{
		SharedSecret:      "s3cret",
		AdminUsernames:    []string{"jsmith", "akhan"},
		InstitutionDomain: "example.edu.au",
		HRGrantsAdmin:     false,
		ReplayProtection:  true,
		VerifyRateLimit:   30,
	}
	if !reflect.DeepEqual(cfg.SSO, expected) {
		t.Fatalf("unexpected sso configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.SSO)
	}
}

func TestAppConfig_SessionSecretFallback(t *testing.T) {
	cfg := AppConfig{SSO: SSOConfig{SharedSecret: "shared"}}
	if got := cfg.SessionSecret(); got != "shared" {
		t.Fatalf("expected fallback to shared secret, got %q", got)
	}

	cfg.Session.Secret = "session-only"
	if got := cfg.SessionSecret(); got != "session-only" {
		t.Fatalf("expected session secret, got %q", got)
	}
}

func TestAppConfig_Validate(t *testing.T) {
	valid := func() AppConfig {
		return AppConfig{
			SSO: SSOConfig{
				SharedSecret:      "real-secret",
				InstitutionDomain: "school.example.edu",
			},
			Directory: DirectoryConfig{
				BaseURL: "https://school.example.edu",
				Token:   "token",
			},
			Session: SessionConfig{CookieSecure: true},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{
			name:    "placeholder secret outside dev",
			mutate:  func(c *AppConfig) { c.SSO.SharedSecret = PlaceholderSharedSecret },
			wantErr: true,
		},
		{
			name: "placeholder secret in dev",
			mutate: func(c *AppConfig) {
				c.IsDev = true
				c.SSO.SharedSecret = PlaceholderSharedSecret
			},
		},
		{
			name:    "empty secret",
			mutate:  func(c *AppConfig) { c.SSO.SharedSecret = "" },
			wantErr: true,
		},
		{
			name:    "bare public suffix domain",
			mutate:  func(c *AppConfig) { c.SSO.InstitutionDomain = "edu.au" },
			wantErr: true,
		},
		{
			name:    "email as domain",
			mutate:  func(c *AppConfig) { c.SSO.InstitutionDomain = "admin@school.edu" },
			wantErr: true,
		},
		{
			name:    "relative directory url",
			mutate:  func(c *AppConfig) { c.Directory.BaseURL = "/api" },
			wantErr: true,
		},
		{
			name:    "placeholder directory token outside dev",
			mutate:  func(c *AppConfig) { c.Directory.Token = PlaceholderDirectoryToken },
			wantErr: true,
		},
		{
			name:    "replay protection without redis",
			mutate:  func(c *AppConfig) { c.SSO.ReplayProtection = true },
			wantErr: true,
		},
		{
			name: "replay protection with redis",
			mutate: func(c *AppConfig) {
				c.SSO.ReplayProtection = true
				c.Redis.Enabled = true
			},
		},
		{
			name:    "insecure cookie outside dev",
			mutate:  func(c *AppConfig) { c.Session.CookieSecure = false },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestSessionConfig_SanitizeDefaultsCookieName(t *testing.T) {
	cfg := SessionConfig{CookieName: "  "}
	cfg.Sanitize()
	if cfg.CookieName != DefaultSessionCookieName {
		t.Fatalf("expected default cookie name, got %q", cfg.CookieName)
	}

	cfg = SessionConfig{CookieName: "custom"}
	cfg.Sanitize()
	if cfg.CookieName != "custom" {
		t.Fatalf("expected custom cookie name to be kept, got %q", cfg.CookieName)
	}
}

func TestDirectoryConfig_Sanitize(t *testing.T) {
	cfg := DirectoryConfig{
		BaseURL:  " https://school.example.edu/ ",
		PageSize: -1,
	}
	cfg.Sanitize()

	if cfg.BaseURL != "https://school.example.edu" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.BaseURL)
	}
	if cfg.PageSize != 100 || cfg.MaxPages != 20 {
		t.Fatalf("expected paging defaults, got size=%d pages=%d", cfg.PageSize, cfg.MaxPages)
	}
	if cfg.ItemsPath != "data" || cfg.CursorPath != "metadata.cursor.next" {
		t.Fatalf("expected default jmespath expressions, got %q %q", cfg.ItemsPath, cfg.CursorPath)
	}
}

func TestTracingConfig_Sanitize(t *testing.T) {
	cfg := TracingConfig{Enabled: true, Endpoint: " "}
	cfg.Sanitize()
	if cfg.IsEnabled() {
		t.Fatal("expected tracing to be disabled without an endpoint")
	}
	if cfg.ServiceName != "sbx-training-portal" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}

	cfg = TracingConfig{Enabled: true, Endpoint: " otel:4317 "}
	cfg.Sanitize()
	if !cfg.IsEnabled() {
		t.Fatal("expected tracing to remain enabled")
	}
	if cfg.Endpoint != "otel:4317" {
		t.Fatalf("expected endpoint to be trimmed, got %q", cfg.Endpoint)
	}
}
