package config

import "strings"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the base URL of the application (e.g., "https://training.example.edu").
	// Used by the admin CLI when printing signed handshake links.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// FrameAncestors is the CSP frame-ancestors value; the host platform must be allowed to embed us.
	FrameAncestors string `env:"HTTP_FRAME_ANCESTORS" envDefault:"'self'"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if strings.TrimSpace(h.Addr) == "" {
		h.Addr = ":8080"
	}
	h.BaseURL = strings.TrimRight(strings.TrimSpace(h.BaseURL), "/")
	if strings.TrimSpace(h.FrameAncestors) == "" {
		h.FrameAncestors = "'self'"
	}
}
