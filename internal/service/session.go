package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/sbx-training/portal/internal/ports"
)

// ReadStatus is the result class of SessionManager.Read.
type ReadStatus int

const (
	// SessionAbsent means no session cookie was sent.
	SessionAbsent ReadStatus = iota
	// SessionValid means the cookie opened and has not expired.
	SessionValid
	// SessionInvalid means the cookie could not be opened or decoded.
	SessionInvalid
	// SessionExpired means the claims are past their expiry.
	SessionExpired
)

func (s ReadStatus) String() string {
	switch s {
	case SessionAbsent:
		return "absent"
	case SessionValid:
		return "valid"
	case SessionInvalid:
		return "invalid"
	case SessionExpired:
		return "expired"
	default:
		return fmt.Sprintf("ReadStatus(%d)", int(s))
	}
}

// SessionCookieConfig controls the session cookie attributes.
type SessionCookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Sealer ports.Sealer // Required
	Cookie SessionCookieConfig
	Now    func() time.Time
}

// SessionManager issues and reads the sealed session cookie. Sessions are a fixed
// window from issuance and are never renewed.
type SessionManager struct {
	sealer ports.Sealer
	cookie SessionCookieConfig
	now    func() time.Time
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	if opts.Sealer == nil {
		panic("Sealer is required")
	}
	cookie := opts.Cookie
	if cookie.Name == "" {
		cookie.Name = "sbx_training_session"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionManager{sealer: opts.Sealer, cookie: cookie, now: now}
}

// CookieName returns the configured cookie name.
func (m *SessionManager) CookieName() string { return m.cookie.Name }

// TTL returns the fixed session window.
func (m *SessionManager) TTL() time.Duration { return domainauth.SessionLifetime }

// Issue stamps claims with IssuedAt=now and ExpiresAt=now+TTL, seals them and sets the cookie.
func (m *SessionManager) Issue(w http.ResponseWriter, claims domainauth.Session) (domainauth.Session, error) {
	now := m.now()
	claims.IssuedAt = now.Unix()
	claims.ExpiresAt = now.Add(domainauth.SessionLifetime).Unix()

	payload, err := json.Marshal(claims)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("encode session: %w", err)
	}
	value, err := m.sealer.Seal(payload)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("seal session: %w", err)
	}

	http.SetCookie(w, m.newCookie(value, int(domainauth.SessionLifetime/time.Second), claims.ExpiresTime()))
	return claims, nil
}

// Read returns the session carried by r. Missing, malformed and expired cookies yield nil;
// malformed and expired ones are also cleared on w. Read performs no I/O.
func (m *SessionManager) Read(w http.ResponseWriter, r *http.Request) (*domainauth.Session, ReadStatus) {
	sess, status := m.Peek(r)
	if status == SessionInvalid || status == SessionExpired {
		m.Clear(w)
	}
	return sess, status
}

// Peek is Read without the cookie-clearing side effect.
func (m *SessionManager) Peek(r *http.Request) (*domainauth.Session, ReadStatus) {
	c, err := r.Cookie(m.cookie.Name)
	if errors.Is(err, http.ErrNoCookie) || (err == nil && c.Value == "") {
		return nil, SessionAbsent
	}
	if err != nil {
		return nil, SessionInvalid
	}

	sess, err := m.decode(c.Value)
	if err != nil {
		return nil, SessionInvalid
	}
	if sess.Expired(m.now()) {
		return nil, SessionExpired
	}
	return sess, SessionValid
}

// Clear deletes the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, m.newCookie("", -1, time.Unix(0, 0)))
}

func (m *SessionManager) decode(value string) (*domainauth.Session, error) {
	payload, err := m.sealer.Open(value)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	var sess domainauth.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.ExpiresAt == 0 || sess.UserID == "" {
		return nil, errors.New("decode session: incomplete claims")
	}
	return &sess, nil
}

func (m *SessionManager) newCookie(value string, maxAge int, expires time.Time) *http.Cookie {
	// Browsers drop SameSite=None cookies without Secure; plain-http dev falls back to Lax.
	sameSite := http.SameSiteNoneMode
	if !m.cookie.Secure {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     m.cookie.Name,
		Value:    value,
		Path:     "/",
		Domain:   m.cookie.Domain,
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: sameSite,
	}
}
