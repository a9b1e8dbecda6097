package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultCSRFCookieName is the default name for the CSRF cookie.
	DefaultCSRFCookieName = "sbx_training_csrf"
	// DefaultCSRFHeaderName is the default name for the CSRF header (canonical form).
	DefaultCSRFHeaderName = "X-Csrf-Token"
	// DefaultCSRFFormField is the hidden form field carrying the token.
	DefaultCSRFFormField = "csrf_token"

	csrfTokenBytes = 32
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	CookieName    string
	HeaderName    string
	FormFieldName string
	CookieDomain  string

	// Secure mirrors the session cookie: when set the token cookie is SameSite=None so
	// it survives the cross-site iframe, otherwise Lax.
	Secure bool

	// Protect selects which unsafe requests are validated. Nil validates all of them.
	Protect func(r *http.Request) bool
}

func (c *CSRFConfig) setDefaults() {
	if c.CookieName == "" {
		c.CookieName = DefaultCSRFCookieName
	}
	if c.HeaderName == "" {
		c.HeaderName = DefaultCSRFHeaderName
	}
	if c.FormFieldName == "" {
		c.FormFieldName = DefaultCSRFFormField
	}
}

// CSRFProtection returns a double-submit cookie middleware. A token is minted when the
// request has none and exposed to templates via CSRFTokenFromContext. Unsafe requests
// selected by Protect must echo it in the header or form field.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	cfg.setDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := csrfCookieValue(r, cfg.CookieName)
			if token == "" {
				var err error
				if token, err = generateCSRFToken(); err != nil {
					WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "csrf_unavailable"})
					return
				}
				http.SetCookie(w, csrfCookie(cfg, token))
			}

			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))

			if requiresCSRFValidation(r.Method) && (cfg.Protect == nil || cfg.Protect(r)) {
				if !validateCSRFToken(r, token, cfg) {
					WriteError(w, ErrorParams{
						Code:    http.StatusForbidden,
						ErrCode: "csrf_failed",
						Message: "the form has expired; reload the page and try again",
					})
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requiresCSRFValidation returns true if the HTTP method requires CSRF validation.
func requiresCSRFValidation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

func csrfCookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// generateCSRFToken fails closed; there is no predictable fallback.
func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func csrfCookie(cfg CSRFConfig, token string) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if cfg.Secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite,
	}
}

// validateCSRFToken checks the header first, then the form field for form posts.
func validateCSRFToken(r *http.Request, cookieToken string, cfg CSRFConfig) bool {
	if cookieToken == "" {
		return false
	}

	if h := r.Header.Get(cfg.HeaderName); h != "" {
		return subtle.ConstantTimeCompare([]byte(h), []byte(cookieToken)) == 1
	}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return false
		}
		if f := r.PostFormValue(cfg.FormFieldName); f != "" {
			return subtle.ConstantTimeCompare([]byte(f), []byte(cookieToken)) == 1
		}
	}
	return false
}

type csrfTokenKey struct{}

// CSRFTokenFromContext returns the request's CSRF token, or "".
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenKey{}).(string)
	return token
}
