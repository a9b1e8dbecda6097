package bootstrap

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sbx-training/portal/config"
	httpx "github.com/sbx-training/portal/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB // optional; enables the database check in /healthz
	Logger   *slog.Logger
}

// BuildHTTPHandler assembles the router and its middleware from the service container.
func BuildHTTPHandler(cfg *HTTPServerConfig) (http.Handler, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := cfg.Config

	health := &httpx.HealthHandler{Logger: logger}
	if cfg.DB != nil {
		health.DB = cfg.DB
	}

	services := httpx.RouterServices{
		Health:          health,
		VerifyRateLimit: app.SSO.VerifyRateLimit,
		FrameAncestors:  app.HTTP.FrameAncestors,
		Tracing:         app.Observability.Tracing.IsEnabled(),
		CSRF: httpx.CSRFConfig{
			CookieDomain: app.Session.CookieDomain,
			Secure:       app.Session.CookieSecure,
		},
		Logger: logger,
	}
	// Interface fields stay nil unless the concrete service exists.
	if s := cfg.Services; s.Auth != nil {
		services.Auth = s.Auth
		services.Sessions = s.Sessions
		services.StaffSync = s.StaffSync
	}
	if cfg.Services.Users != nil {
		services.Users = cfg.Services.Users
	}
	if services.Auth == nil || services.Sessions == nil {
		return nil, errors.New("sso services are required")
	}

	return httpx.NewRouter(services)
}

// NewHTTPServer creates the HTTP server without starting it.
func NewHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	handler, err := BuildHTTPHandler(cfg)
	if err != nil {
		return nil, err
	}

	addr := cfg.Config.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}, nil
}
