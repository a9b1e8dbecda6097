package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Sessions combines the cookie operations the router needs.
type Sessions interface {
	SessionReader
	SessionIssuer
}

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth      Authenticator
	Sessions  Sessions
	Users     UsersLister
	StaffSync StaffSyncer
	Health    *HealthHandler

	// Renderer is optional; the embedded views are parsed when nil.
	Renderer *TemplateRenderer

	// VerifyRateLimit caps /api/verify requests per client IP per minute. 0 disables it.
	VerifyRateLimit int
	FrameAncestors  string

	// CSRF guards the admin forms and logout. Protect defaults to those paths.
	CSRF CSRFConfig

	Tracing bool
	Logger  *slog.Logger
}

// NewRouter creates the HTTP handler: routes behind the edge gate, wrapped in
// recovery, request ids, logging and security headers.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer := services.Renderer
	if renderer == nil {
		var err error
		renderer, err = NewTemplateRenderer(TemplateRendererConfig{Logger: logger})
		if err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{Svc: services.Auth, Sessions: services.Sessions, Logger: logger}
	registerAuthRoutes(mux, authHandlers, services.VerifyRateLimit)

	ui := &UIHandlers{R: renderer, Users: services.Users, Sync: services.StaffSync, Logger: logger}
	registerUIRoutes(mux, ui)

	health := services.Health
	if health == nil {
		health = &HealthHandler{}
	}
	mux.Handle("GET "+PathHealth, health)
	mux.Handle("HEAD "+PathHealth, health)
	mux.HandleFunc("GET "+PathFavicon, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	gate := NewGate(services.Sessions, logger)
	frameAncestors := services.FrameAncestors
	if frameAncestors == "" {
		frameAncestors = "'self'"
	}

	csrf := services.CSRF
	if csrf.Protect == nil {
		csrf.Protect = func(r *http.Request) bool {
			return isAdminPath(r.URL.Path) || r.URL.Path == PathLogout
		}
	}

	handler := Chain(mux,
		Recover(logger),
		RequestID(),
		Logging(logger),
		SecurityHeaders(frameAncestors),
		gate.Middleware,
		CSRFProtection(csrf),
	)
	if services.Tracing {
		handler = otelhttp.NewHandler(handler, "portal")
	}
	return handler, nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, perMinute int) {
	var verify http.Handler = http.HandlerFunc(h.Verify)
	if perMinute > 0 {
		verify = httprate.Limit(perMinute, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				WriteError(w, ErrorParams{
					Code:    http.StatusTooManyRequests,
					ErrCode: "rate_limited",
					Message: "too many sign-in attempts; wait a minute and try again",
				})
			}),
		)(verify)
	}
	mux.Handle("GET "+PathVerify, verify)
	mux.HandleFunc("POST "+PathLogout, h.Logout)
	mux.HandleFunc("GET "+PathLogout, allowOnly(http.MethodPost))
	mux.HandleFunc("GET "+PathSession, h.Session)
}

// allowOnly answers 405 on paths whose GET would otherwise fall through to the catch-all page.
func allowOnly(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", method)
		WriteError(w, ErrorParams{Code: http.StatusMethodNotAllowed, ErrCode: "method_not_allowed"})
	}
}

func registerUIRoutes(mux *http.ServeMux, h *UIHandlers) {
	mux.HandleFunc("GET /", h.Home)
	mux.HandleFunc("GET "+PathLogin, h.Login)
	mux.HandleFunc("GET "+PathUnauthorized, h.Unauthorized)
	mux.HandleFunc("GET "+PathDashboard, h.Dashboard)
	mux.Handle("GET "+PathAdmin, http.RedirectHandler(PathAdmin+"/", http.StatusMovedPermanently))
	mux.HandleFunc("GET "+PathAdmin+"/{$}", h.AdminUsers)
	mux.HandleFunc("POST "+PathAdmin+"/sync-staff", h.AdminSyncStaff)
}
