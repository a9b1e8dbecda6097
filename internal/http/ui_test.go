package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbx-training/portal/internal/domain/model"
	"github.com/sbx-training/portal/internal/ports"
	"github.com/sbx-training/portal/internal/service"
)

func withSession(req *http.Request, admin bool) *http.Request {
	claims := staffClaims()
	claims.IsAdmin = admin
	claims.IssuedAt = testNow.Unix()
	claims.ExpiresAt = testNow.Unix() + 3600
	return req.WithContext(SetSessionInContext(req.Context(), &claims))
}

func testUsers(n int) []*model.User {
	users := make([]*model.User, 0, n)
	for i := range n {
		users = append(users, &model.User{
			ID:        fmt.Sprintf("u-%d", i),
			Name:      fmt.Sprintf("Staff Member %d", i),
			Email:     fmt.Sprintf("staff%d@school.edu", i),
			Roles:     []string{"staff"},
			Active:    true,
			CreatedAt: testNow,
		})
	}
	return users
}

func TestUIHandlers_Unauthorized(t *testing.T) {
	h := &UIHandlers{R: newTestRenderer(t)}

	tests := []struct {
		reason string
		want   string
	}{
		{"expired", "Your session has expired"},
		{"forbidden", "does not have staff access"},
		{"logged_out", "You have been signed out"},
		{"", "Access Denied"},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Unauthorized(rec, httptest.NewRequest(http.MethodGet, "/unauthorized?error="+tt.reason, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestUIHandlers_HomeUnknownPathIs404(t *testing.T) {
	h := &UIHandlers{R: newTestRenderer(t)}

	rec := httptest.NewRecorder()
	h.Home(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.Home(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Staff Training")
}

func TestUIHandlers_Dashboard(t *testing.T) {
	h := &UIHandlers{R: newTestRenderer(t)}

	rec := httptest.NewRecorder()
	h.Dashboard(rec, withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), false))
	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Welcome, Jane Smith")
	assert.NotContains(t, body, `href="/admin/"`)
	assert.NotContains(t, body, "permission to open the admin area")

	rec = httptest.NewRecorder()
	h.Dashboard(rec, withSession(httptest.NewRequest(http.MethodGet, "/dashboard?error=forbidden", nil), true))
	body = rec.Body.String()
	assert.Contains(t, body, "permission to open the admin area")
	assert.Contains(t, body, `href="/admin/"`)
}

func TestUIHandlers_AdminUsersPagination(t *testing.T) {
	users := &fakeUsers{users: testUsers(5)}
	h := &UIHandlers{R: newTestRenderer(t), Users: users}

	rec := httptest.NewRecorder()
	h.AdminUsers(rec, withSession(httptest.NewRequest(http.MethodGet, "/admin/?limit=2&offset=2&q=staff", nil), true))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, users.opts, 1)
	assert.Equal(t, 3, users.opts[0].Limit, "one extra row to detect the next page")
	assert.Equal(t, 2, users.opts[0].Offset)
	require.NotNil(t, users.opts[0].Q)
	assert.Equal(t, "staff", *users.opts[0].Q)

	body := rec.Body.String()
	assert.Contains(t, body, "Staff Member 2")
	assert.Contains(t, body, "Staff Member 3")
	assert.NotContains(t, body, "Staff Member 4")
	assert.Contains(t, body, "offset=0")
	assert.Contains(t, body, "offset=4")
}

func TestUIHandlers_AdminUsersListError(t *testing.T) {
	h := &UIHandlers{R: newTestRenderer(t), Users: &fakeUsers{err: errors.New("db down")}}

	rec := httptest.NewRecorder()
	h.AdminUsers(rec, withSession(httptest.NewRequest(http.MethodGet, "/admin/", nil), true))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Users could not be loaded.")
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestUIHandlers_AdminSyncStaff(t *testing.T) {
	report := service.StaffSyncReport{Fetched: 3, Created: 1, Updated: 1, Unchanged: 1}

	t.Run("json", func(t *testing.T) {
		sync := &fakeSyncer{report: report}
		h := &UIHandlers{R: newTestRenderer(t), Users: &fakeUsers{}, Sync: sync}

		req := withSession(httptest.NewRequest(http.MethodPost, "/admin/sync-staff", nil), true)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		h.AdminSyncStaff(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got service.StaffSyncReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, report, got)
		assert.Equal(t, 1, sync.calls)
	})

	t.Run("html", func(t *testing.T) {
		h := &UIHandlers{R: newTestRenderer(t), Users: &fakeUsers{users: testUsers(1)}, Sync: &fakeSyncer{report: report}}

		rec := httptest.NewRecorder()
		h.AdminSyncStaff(rec, withSession(httptest.NewRequest(http.MethodPost, "/admin/sync-staff", nil), true))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "3 fetched, 1 created, 1 updated")
	})

	t.Run("directory failure", func(t *testing.T) {
		failure := fmt.Errorf("fetch staff: %w", ports.ErrDirectoryUnavailable)
		h := &UIHandlers{R: newTestRenderer(t), Users: &fakeUsers{}, Sync: &fakeSyncer{err: failure}}

		req := withSession(httptest.NewRequest(http.MethodPost, "/admin/sync-staff", nil), true)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		h.AdminSyncStaff(rec, req)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "directory_unavailable")

		rec = httptest.NewRecorder()
		h.AdminSyncStaff(rec, withSession(httptest.NewRequest(http.MethodPost, "/admin/sync-staff", nil), true))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Staff sync failed")
	})
}

func TestFriendlyTime(t *testing.T) {
	fn := templateFuncs(nil)["friendlyTime"].(func(any) string)

	assert.Equal(t, "14 Nov 2023 22:13 UTC", fn(testNow))
	assert.Equal(t, "14 Nov 2023 22:13 UTC", fn(testNow.Unix()))
	assert.Empty(t, fn(time.Time{}))
	assert.Empty(t, fn("nope"))
}
