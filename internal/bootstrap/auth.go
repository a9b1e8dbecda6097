package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sbx-training/portal/config"
	"github.com/sbx-training/portal/internal/adapters/schoolbox"
	"github.com/sbx-training/portal/internal/ports"
	"github.com/sbx-training/portal/internal/service"
)

// AuthConfig contains configuration for building the SSO services.
type AuthConfig struct {
	Config    *config.AppConfig
	Directory ports.DirectoryClient
	Users     ports.UserRepository
	Replay    ports.ReplayGuard // nil accepts a handshake more than once within its window
	Logger    *slog.Logger
}

// SSOServices is the handshake bridge and everything it is assembled from.
type SSOServices struct {
	Auth       *service.AuthService
	Sessions   *service.SessionManager
	Directory  *service.DirectoryResolver
	Reconciler *service.Reconciler
	StaffSync  *service.StaffSyncService
}

// NewDirectoryClient builds the Schoolbox user API client.
func NewDirectoryClient(cfg config.DirectoryConfig) (*schoolbox.Client, error) {
	client, err := schoolbox.NewClient(schoolbox.Config{
		BaseURL:    cfg.BaseURL,
		Token:      cfg.Token,
		Timeout:    cfg.Timeout,
		ItemsPath:  cfg.ItemsPath,
		CursorPath: cfg.CursorPath,
	})
	if err != nil {
		return nil, fmt.Errorf("build directory client: %w", err)
	}
	return client, nil
}

// BuildSSO wires the verifier, resolver, reconciler, access policy and session manager.
func BuildSSO(cfg AuthConfig) (SSOServices, error) {
	switch {
	case cfg.Config == nil:
		return SSOServices{}, errors.New("app config is required")
	case cfg.Directory == nil:
		return SSOServices{}, errors.New("directory client is required")
	case cfg.Users == nil:
		return SSOServices{}, errors.New("user repository is required")
	}
	app := cfg.Config
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sealer, err := NewSessionSealer(app.SessionSecret(), app.Session.CookieName)
	if err != nil {
		return SSOServices{}, err
	}
	sessions := service.NewSessionManager(service.SessionManagerOptions{
		Sealer: sealer,
		Cookie: service.SessionCookieConfig{
			Name:   app.Session.CookieName,
			Domain: app.Session.CookieDomain,
			Secure: app.Session.CookieSecure,
		},
	})

	directory := service.NewDirectoryResolver(service.DirectoryResolverOptions{
		Client: cfg.Directory,
		Config: service.DirectoryResolverConfig{
			PageSize: app.Directory.PageSize,
			MaxPages: app.Directory.MaxPages,
		},
		Logger: logger,
	})
	reconciler := service.NewReconciler(service.ReconcilerOptions{
		Users:             cfg.Users,
		InstitutionDomain: app.SSO.InstitutionDomain,
		Logger:            logger,
	})

	auth := service.NewAuthService(service.AuthServiceOptions{
		Components: service.SSOComponents{
			Verifier: service.NewHandshakeVerifier(service.HandshakeVerifierOptions{
				Secret: app.SSO.SharedSecret,
				Logger: logger,
			}),
			Directory:  directory,
			Reconciler: reconciler,
			Policy: service.NewAccessPolicy(service.AccessPolicyConfig{
				AdminUsernames: app.SSO.AdminUsernames,
				HRGrantsAdmin:  app.SSO.HRGrantsAdmin,
			}),
		},
		Replay: cfg.Replay,
		Logger: logger,
	})

	return SSOServices{
		Auth:       auth,
		Sessions:   sessions,
		Directory:  directory,
		Reconciler: reconciler,
		StaffSync: service.NewStaffSyncService(service.StaffSyncServiceOptions{
			Directory:  directory,
			Reconciler: reconciler,
			Logger:     logger,
		}),
	}, nil
}
