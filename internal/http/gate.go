package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/sbx-training/portal/internal/service"
)

// SessionReader reads the session cookie. Peek must not write to the response.
type SessionReader interface {
	Peek(r *http.Request) (*domainauth.Session, service.ReadStatus)
	Clear(w http.ResponseWriter)
}

// GateAction is the terminal state of a gate decision.
type GateAction int

const (
	GateProceed GateAction = iota
	GateRedirectVerify
	GateRedirectUnauthorized
	GateRedirectDashboard
)

func (a GateAction) String() string {
	switch a {
	case GateProceed:
		return "proceed"
	case GateRedirectVerify:
		return "redirect_verify"
	case GateRedirectUnauthorized:
		return "redirect_unauthorized"
	case GateRedirectDashboard:
		return "redirect_dashboard"
	default:
		return "unknown"
	}
}

// GateDecision is the outcome of evaluating one request.
type GateDecision struct {
	Action   GateAction
	Location string // redirect target; empty when proceeding
	Reason   string // error code carried in Location, if any

	// Session is set when the request proceeds with a valid session.
	Session *domainauth.Session

	// ClearCookie is set when the presented cookie was invalid or expired.
	ClearCookie bool
}

// Gate enforces session presence, expiry, role and admin scope on every request.
type Gate struct {
	sessions SessionReader
	logger   *slog.Logger
}

// NewGate constructs a Gate.
func NewGate(sessions SessionReader, logger *slog.Logger) *Gate {
	if sessions == nil {
		panic("SessionReader is required")
	}
	return &Gate{sessions: sessions, logger: logger}
}

// Bypassed reports whether path skips the gate entirely.
func Bypassed(path string) bool {
	switch path {
	case PathVerify, PathLogout, PathFavicon, PathHealth:
		return true
	}
	return strings.HasPrefix(path, PathStaticPrefix)
}

func isPublic(path string) bool {
	switch path {
	case PathHome, PathLogin, PathUnauthorized:
		return true
	}
	return false
}

func isAdminPath(path string) bool {
	return path == PathAdmin || strings.HasPrefix(path, PathAdmin+"/")
}

// HandshakeFromQuery extracts the four handshake parameters.
func HandshakeFromQuery(q url.Values) domainauth.Handshake {
	return domainauth.Handshake{
		Signature:  q.Get(domainauth.ParamSignature),
		IssuedAt:   q.Get(domainauth.ParamIssuedAt),
		ExternalID: q.Get(domainauth.ParamExternalID),
		Username:   q.Get(domainauth.ParamUsername),
	}
}

// VerifyLocation returns the verification URL carrying h.
func VerifyLocation(h domainauth.Handshake) string {
	q := url.Values{}
	q.Set(domainauth.ParamSignature, h.Signature)
	q.Set(domainauth.ParamIssuedAt, h.IssuedAt)
	q.Set(domainauth.ParamExternalID, h.ExternalID)
	q.Set(domainauth.ParamUsername, h.Username)
	return PathVerify + "?" + q.Encode()
}

func withReason(path, reason string) string {
	return path + "?error=" + url.QueryEscape(reason)
}

// Decide evaluates r in order: handshake, public route, session presence, validity,
// role, then admin scope. It has no side effects.
func (g *Gate) Decide(r *http.Request) GateDecision {
	path := r.URL.Path

	if h := HandshakeFromQuery(r.URL.Query()); h.Complete() {
		return GateDecision{Action: GateRedirectVerify, Location: VerifyLocation(h)}
	}

	if isPublic(path) {
		return GateDecision{Action: GateProceed}
	}

	sess, status := g.sessions.Peek(r)
	switch status {
	case service.SessionAbsent:
		return GateDecision{Action: GateRedirectUnauthorized, Location: PathUnauthorized}
	case service.SessionInvalid, service.SessionExpired:
		return GateDecision{
			Action:      GateRedirectUnauthorized,
			Location:    withReason(PathUnauthorized, ReasonExpired),
			Reason:      ReasonExpired,
			ClearCookie: true,
		}
	}

	if sess == nil || !sess.IsStaff() {
		return GateDecision{
			Action:   GateRedirectUnauthorized,
			Location: withReason(PathUnauthorized, ReasonForbidden),
			Reason:   ReasonForbidden,
		}
	}

	if isAdminPath(path) && !sess.IsAdmin {
		return GateDecision{
			Action:   GateRedirectDashboard,
			Location: withReason(PathDashboard, ReasonForbidden),
			Reason:   ReasonForbidden,
		}
	}

	return GateDecision{Action: GateProceed, Session: sess}
}

// Middleware applies Decide to every request outside the bypass set.
// Public routes still get the session in context when one is valid.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Bypassed(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		d := g.Decide(r)
		if d.ClearCookie {
			g.sessions.Clear(w)
		}

		switch d.Action {
		case GateProceed:
			sess := d.Session
			if sess == nil {
				// Public route: attach a valid session for navigation chrome, never required.
				if s, status := g.sessions.Peek(r); status == service.SessionValid && s.IsStaff() {
					sess = s
				}
			}
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), sess)))
		default:
			g.log().Debug("gate redirect",
				slog.String("path", r.URL.Path),
				slog.String("action", d.Action.String()),
				slog.String("reason", d.Reason),
			)
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, d.Location, http.StatusFound)
		}
	})
}

func (g *Gate) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
