package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sbx-training/portal/internal/domain/model"
	"github.com/sbx-training/portal/internal/service"
)

// UsersLister is the read side of the local user store needed by the admin page.
type UsersLister interface {
	List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error)
}

// StaffSyncer runs a bulk roster sync.
type StaffSyncer interface {
	Sync(ctx context.Context) (service.StaffSyncReport, error)
}

// UIHandlers renders the HTML pages.
type UIHandlers struct {
	R      *TemplateRenderer
	Users  UsersLister
	Sync   StaffSyncer
	Logger *slog.Logger
}

const (
	adminUsersDefaultLimit = 50
	adminUsersMaxLimit     = 200
)

func (h *UIHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *UIHandlers) render(w http.ResponseWriter, status int, data map[string]any) {
	if err := h.R.RenderStatus(w, status, data); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Home renders the landing page. GET /.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != PathHome {
		h.NotFound(w, r)
		return
	}
	h.render(w, http.StatusOK, NewTemplateData(r, PageMeta{CurrentPage: PageHome}).Build())
}

// Login explains how to sign in through the host. GET /login.
func (h *UIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, NewTemplateData(r, PageMeta{Title: "Sign in", CurrentPage: PageLogin}).Build())
}

// Unauthorized renders the Access Denied page. GET /unauthorized?error=.
func (h *UIHandlers) Unauthorized(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{Title: "Access Denied", CurrentPage: PageUnauthorized}).
		With("Reason", r.URL.Query().Get("error")).
		Build()
	h.render(w, http.StatusOK, data)
}

// NotFound renders the home page with a 404 status.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusNotFound, NewTemplateData(r, PageMeta{Title: "Not found", CurrentPage: PageHome}).Build())
}

// Dashboard renders the staff landing page. GET /dashboard.
func (h *UIHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{Title: "Dashboard", CurrentPage: PageDashboard}).
		With("Forbidden", r.URL.Query().Get("error") == ReasonForbidden).
		Build()
	h.render(w, http.StatusOK, data)
}

// AdminUsers lists local users. GET /admin/.
func (h *UIHandlers) AdminUsers(w http.ResponseWriter, r *http.Request) {
	h.renderAdminUsers(w, r, nil)
}

// AdminSyncStaff runs a roster sync and re-renders the users page with the report.
// POST /admin/sync-staff. JSON callers receive the report as JSON.
func (h *UIHandlers) AdminSyncStaff(w http.ResponseWriter, r *http.Request) {
	report, err := h.Sync.Sync(r.Context())
	if err != nil {
		h.logger().ErrorContext(r.Context(), "staff sync failed", slog.Any("error", err))
	}

	if wantsJSON(r) {
		if err != nil && report.Fetched == 0 {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, report)
		return
	}

	extra := map[string]any{"SyncReport": report}
	if err != nil && report.Fetched == 0 {
		extra["SyncReport"] = nil
		extra["Error"] = true
		extra["ErrorMessage"] = "Staff sync failed: the school directory could not be read."
	}
	h.renderAdminUsers(w, r, extra)
}

func (h *UIHandlers) renderAdminUsers(w http.ResponseWriter, r *http.Request, extra map[string]any) {
	limit, offset := ParseLimitOffset(r, adminUsersDefaultLimit, adminUsersMaxLimit)
	q := queryPtr(r, "q")

	// Fetch one extra row to learn whether a next page exists.
	users, err := h.Users.List(r.Context(), model.UsersListOptions{Limit: limit + 1, Offset: offset, Q: q})
	b := NewTemplateData(r, PageMeta{Title: "Users", CurrentPage: PageAdminUsers})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "list users failed", slog.Any("error", err))
		b.WithError("Users could not be loaded.")
		users = nil
	}

	hasNext := len(users) > limit
	if hasNext {
		users = users[:limit]
	}

	query := ""
	if q != nil {
		query = *q
	}
	b.With("Users", users).
		With("Query", query).
		With("SyncReport", nil).
		WithPagination(PaginationData{Limit: limit, Offset: offset, HasNext: hasNext, BasePath: PathAdmin + "/"})
	for k, v := range extra {
		b.With(k, v)
	}
	h.render(w, http.StatusOK, b.Build())
}
