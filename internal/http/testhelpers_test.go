package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sbx-training/portal/internal/data/cryptoutil"
	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/sbx-training/portal/internal/domain/model"
	"github.com/sbx-training/portal/internal/service"
)

var testNow = time.Unix(1_700_000_000, 0)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func newTestSessions(clock *testClock) *service.SessionManager {
	return service.NewSessionManager(service.SessionManagerOptions{
		Sealer: cryptoutil.NoopSealer{},
		Cookie: service.SessionCookieConfig{Secure: true},
		Now:    clock.Now,
	})
}

func staffClaims() domainauth.Session {
	return domainauth.Session{
		UserID:       "0b5d7c2e-7a8e-4d0b-9f3e-1c1a2b3c4d5e",
		RemoteUserID: 42,
		ExternalID:   "E-42",
		Username:     "jsmith",
		Email:        "jsmith@school.edu",
		Name:         "Jane Smith",
		Role:         domainauth.RoleStaff,
	}
}

func adminClaims() domainauth.Session {
	c := staffClaims()
	c.IsAdmin = true
	return c
}

// issueCookie mints a session cookie at the clock's current time.
func issueCookie(t *testing.T, sm *service.SessionManager, claims domainauth.Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := sm.Issue(rec, claims)
	require.NoError(t, err)
	c := findSetCookie(rec, sm.CookieName())
	require.NotNil(t, c)
	return c
}

func findSetCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func newRequest(method, target string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}

type fakeAuthenticator struct {
	mu     sync.Mutex
	result *service.AuthenticateResult
	err    error
	calls  []domainauth.Handshake
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, h domainauth.Handshake) (*service.AuthenticateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, h)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAuthenticator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeUsers struct {
	users []*model.User
	err   error
	opts  []model.UsersListOptions
}

func (f *fakeUsers) List(_ context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	end := min(opts.Offset+opts.Limit, len(f.users))
	if opts.Offset >= end {
		return nil, nil
	}
	return f.users[opts.Offset:end], nil
}

type fakeSyncer struct {
	report service.StaffSyncReport
	err    error
	calls  int
}

func (f *fakeSyncer) Sync(context.Context) (service.StaffSyncReport, error) {
	f.calls++
	return f.report, f.err
}

func newTestRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	r, err := NewTemplateRenderer(TemplateRendererConfig{})
	require.NoError(t, err)
	return r
}
