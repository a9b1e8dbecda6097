package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/sbx-training/portal/internal/service"
)

// Authenticator runs the handshake verification flow.
type Authenticator interface {
	Authenticate(ctx context.Context, h domainauth.Handshake) (*service.AuthenticateResult, error)
}

// SessionIssuer issues and clears the session cookie.
type SessionIssuer interface {
	Issue(w http.ResponseWriter, claims domainauth.Session) (domainauth.Session, error)
	Clear(w http.ResponseWriter)
}

// AuthHandlers provides HTTP handlers for the SSO bridge.
type AuthHandlers struct {
	Svc      Authenticator
	Sessions SessionIssuer
	Logger   *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// verifyFailure is the client-facing form of a verification error.
type verifyFailure struct {
	status  int
	code    string
	message string
}

func classifyVerifyError(err error) verifyFailure {
	switch {
	case errors.Is(err, service.ErrMissingHandshake):
		return verifyFailure{http.StatusBadRequest, "missing_parameters", "key, time, id and user are required"}
	case errors.Is(err, service.ErrInvalidSignature):
		return verifyFailure{http.StatusUnauthorized, "invalid_signature", "the sign-in link is invalid or has expired"}
	case errors.Is(err, service.ErrReplayedHandshake):
		return verifyFailure{http.StatusConflict, "replayed_handshake", "the sign-in link has already been used"}
	case errors.Is(err, service.ErrNotStaff):
		return verifyFailure{http.StatusForbidden, "not_staff", "the training portal is available to staff only"}
	case errors.Is(err, service.ErrDirectoryNotFound):
		return verifyFailure{http.StatusForbidden, "user_not_found", "your account could not be found in the school directory"}
	default:
		return verifyFailure{http.StatusInternalServerError, "verification_failed", "sign-in could not be completed; please try again"}
	}
}

// Verify handles the host handshake.
// GET /api/verify?key=&time=&id=&user=.
func (h *AuthHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	hs := HandshakeFromQuery(r.URL.Query())

	res, err := h.Svc.Authenticate(r.Context(), hs)
	if err != nil {
		f := classifyVerifyError(err)
		if f.status >= http.StatusInternalServerError {
			h.logger().ErrorContext(r.Context(), "handshake verification failed",
				slog.String("username", hs.Username),
				slog.Any("error", err),
			)
		}
		WriteError(w, ErrorParams{Code: f.status, ErrCode: f.code, Message: f.message})
		return
	}

	if _, err := h.Sessions.Issue(w, res.Claims); err != nil {
		h.logger().ErrorContext(r.Context(), "issue session failed", slog.Any("error", err))
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "verification_failed",
			Message: "sign-in could not be completed; please try again",
		})
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, PathDashboard, http.StatusFound)
}

// Logout clears the session cookie.
// POST /api/logout; the router requires the CSRF token.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Clear(w)

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
		return
	}
	http.Redirect(w, r, withReason(PathUnauthorized, ReasonLoggedOut), http.StatusFound)
}

type sessionUserResponse struct {
	ID           string `json:"id"`
	RemoteUserID int64  `json:"remote_user_id"`
	ExternalID   string `json:"external_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	IsAdmin      bool   `json:"is_admin"`
	IsHR         bool   `json:"is_hr"`
}

type sessionResponse struct {
	Authenticated bool                 `json:"authenticated"`
	User          *sessionUserResponse `json:"user,omitempty"`
	IssuedAt      int64                `json:"issued_at,omitempty"`
	ExpiresAt     int64                `json:"expires_at,omitempty"`
}

// Session reports the current session. The gate guarantees one is present.
// GET /api/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		User: &sessionUserResponse{
			ID:           sess.UserID,
			RemoteUserID: sess.RemoteUserID,
			ExternalID:   sess.ExternalID,
			Username:     sess.Username,
			Email:        sess.Email,
			Name:         sess.Name,
			Role:         string(sess.Role),
			IsAdmin:      sess.IsAdmin,
			IsHR:         sess.IsHR,
		},
		IssuedAt:  sess.IssuedAt,
		ExpiresAt: sess.ExpiresAt,
	})
}
