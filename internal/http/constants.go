package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageHome         = "home"
	PageLogin        = "login"
	PageUnauthorized = "unauthorized"
	PageDashboard    = "dashboard"
	PageAdminUsers   = "admin-users"
)

// Route paths the gate and handlers redirect between.
const (
	PathHome         = "/"
	PathLogin        = "/login"
	PathUnauthorized = "/unauthorized"
	PathDashboard    = "/dashboard"
	PathAdmin        = "/admin"
	PathVerify       = "/api/verify"
	PathLogout       = "/api/logout"
	PathSession      = "/api/session"
	PathHealth       = "/healthz"
	PathFavicon      = "/favicon.ico"
	PathStaticPrefix = "/static/"
)

// Reason codes carried in the error query parameter of redirects.
const (
	ReasonExpired   = "expired"
	ReasonForbidden = "forbidden"
	ReasonLoggedOut = "logged_out"
)

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageHome:         "home-content",
	PageLogin:        "login-content",
	PageUnauthorized: "unauthorized-content",
	PageDashboard:    "dashboard-content",
	PageAdminUsers:   "admin-users-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to home-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "home-content"
}
