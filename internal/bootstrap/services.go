package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbx-training/portal/config"
	redisadapter "github.com/sbx-training/portal/internal/adapters/redis"
	"github.com/sbx-training/portal/internal/data"
	"github.com/sbx-training/portal/internal/ports"
	"golang.org/x/sync/errgroup"
)

const shutdownWaitTimeout = 10 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	SSOServices
	Users *data.UserRepo
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient // optional
	Logger      *slog.Logger
}

// NewServices builds the repositories, the directory client and the SSO services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil || deps.DB == nil {
		return ServiceContainer{}, errors.New("config and database are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	users := data.NewUserRepo(deps.DB)
	directory, err := NewDirectoryClient(deps.Config.Directory)
	if err != nil {
		return ServiceContainer{}, err
	}

	var replay ports.ReplayGuard
	if deps.Config.SSO.ReplayProtection {
		if deps.RedisClient == nil {
			return ServiceContainer{}, errors.New("handshake replay protection requires redis")
		}
		replay = redisadapter.NewReplayGuard(deps.RedisClient)
		logger.Info("handshake replay protection enabled")
	}

	sso, err := BuildSSO(AuthConfig{
		Config:    deps.Config,
		Directory: directory,
		Users:     users,
		Replay:    replay,
		Logger:    logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build sso services: %w", err)
	}

	return ServiceContainer{SSOServices: sso, Users: users}, nil
}

// ServiceOrchestrationConfig contains dependencies for running the HTTP service.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Logger   *slog.Logger
}

// RunServicesWithShutdown serves HTTP until ctx is cancelled or the server fails,
// then drains in-flight requests. Callers typically pass a signal.NotifyContext.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server, err := NewHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		DB:       cfg.DB,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownWaitTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})
	return g.Wait()
}
