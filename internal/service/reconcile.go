package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/sbx-training/portal/internal/domain/model"
	"github.com/sbx-training/portal/internal/ports"
)

// ErrPersistence wraps local store failures during reconciliation.
var ErrPersistence = errors.New("persistence failure")

// ReconcileOutcome describes what Reconcile did to the local store.
type ReconcileOutcome string

const (
	ReconcileCreated   ReconcileOutcome = "created"
	ReconcileUpdated   ReconcileOutcome = "updated"
	ReconcileUnchanged ReconcileOutcome = "unchanged"
)

// DefaultReconcileTimeout bounds one shared reconcile once it no longer follows a caller's context.
const DefaultReconcileTimeout = 10 * time.Second

// ReconcilerOptions groups dependencies for Reconciler.
type ReconcilerOptions struct {
	Users             ports.UserRepository // Required
	InstitutionDomain string               // used to synthesize missing emails
	Timeout           time.Duration        // defaults to DefaultReconcileTimeout
	Logger            *slog.Logger
}

// Reconciler maps remote directory profiles onto local users, matching by email.
type Reconciler struct {
	users   ports.UserRepository
	domain  string
	timeout time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

// NewReconciler constructs a Reconciler.
func NewReconciler(opts ReconcilerOptions) *Reconciler {
	if opts.Users == nil {
		panic("UserRepository is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultReconcileTimeout
	}
	return &Reconciler{
		users:   opts.Users,
		domain:  strings.TrimSpace(opts.InstitutionDomain),
		timeout: timeout,
		logger:  opts.Logger,
	}
}

type reconcileResult struct {
	user    *model.User
	outcome ReconcileOutcome
}

// Reconcile finds the local user whose email matches the profile (case-insensitive) and
// renames it when the remote full name changed, or creates it with the staff role.
// Concurrent calls for the same email within this process share one execution. The
// shared work is detached from any single caller's cancellation and bounded by the
// reconcile timeout; each caller stops waiting when its own ctx is done.
// Store errors are wrapped with ErrPersistence.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	profile domainauth.RemoteUserProfile,
) (*model.User, ReconcileOutcome, error) {
	email := r.EmailFor(profile)
	if email == "" {
		return nil, "", fmt.Errorf("reconcile %q: no email and no username: %w", profile.Username, ErrPersistence)
	}

	ch := r.group.DoChan(strings.ToLower(email), func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.reconcile(sctx, profile, email)
	})

	var out singleflight.Result
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("reconcile %q: %w: %w", profile.Username, ErrPersistence, ctx.Err())
	case out = <-ch:
	}
	if out.Err != nil {
		return nil, "", out.Err
	}
	res := out.Val.(reconcileResult)
	if out.Shared {
		r.log().DebugContext(ctx, "reconcile shared with concurrent login", "email", email)
	}

	// Callers receive their own copy; the shared result must not be mutated.
	u := *res.user
	u.Roles = append([]string(nil), res.user.Roles...)
	return &u, res.outcome, nil
}

// EmailFor returns the remote email or the synthesized {username}@{institution domain}.
func (r *Reconciler) EmailFor(profile domainauth.RemoteUserProfile) string {
	fallback := ""
	if u := strings.TrimSpace(profile.Username); u != "" && r.domain != "" {
		fallback = u + "@" + r.domain
	}
	return strings.TrimSpace(profile.EmailOr(fallback))
}

func (r *Reconciler) reconcile(
	ctx context.Context,
	profile domainauth.RemoteUserProfile,
	email string,
) (reconcileResult, error) {
	name := displayName(profile)

	existing, err := r.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return r.syncName(ctx, existing, name)
	case !errors.Is(err, ports.ErrUserNotFound):
		return reconcileResult{}, fmt.Errorf("lookup user by email: %w: %w", ErrPersistence, err)
	}

	created, err := r.users.Create(ctx, &model.CreateUserRequest{
		Name:   name,
		Email:  email,
		Roles:  []string{model.UserRoleStaff},
		Active: true,
	}, model.Initials(name))
	if errors.Is(err, ports.ErrUserEmailExists) {
		// Another process created the row between our lookup and insert.
		existing, rerr := r.users.GetByEmail(ctx, email)
		if rerr != nil {
			return reconcileResult{}, fmt.Errorf("re-read user after conflict: %w: %w", ErrPersistence, rerr)
		}
		r.log().InfoContext(ctx, "user created concurrently; using existing row", "user_id", existing.ID)
		return r.syncName(ctx, existing, name)
	}
	if err != nil {
		return reconcileResult{}, fmt.Errorf("create user: %w: %w", ErrPersistence, err)
	}

	r.log().InfoContext(ctx, "user provisioned from directory",
		"user_id", created.ID,
		"username", profile.Username,
	)
	return reconcileResult{user: created, outcome: ReconcileCreated}, nil
}

func (r *Reconciler) syncName(ctx context.Context, existing *model.User, name string) (reconcileResult, error) {
	if name == "" || existing.Name == name {
		return reconcileResult{user: existing, outcome: ReconcileUnchanged}, nil
	}

	updated, err := r.users.UpdateName(ctx, ports.UpdateUserNameInput{
		ID:       existing.ID,
		Name:     name,
		Initials: model.Initials(name),
	})
	if err != nil {
		return reconcileResult{}, fmt.Errorf("update user name: %w: %w", ErrPersistence, err)
	}
	r.log().InfoContext(ctx, "user name refreshed from directory", "user_id", updated.ID)
	return reconcileResult{user: updated, outcome: ReconcileUpdated}, nil
}

// displayName prefers the directory full name and falls back to first + last, then username.
func displayName(p domainauth.RemoteUserProfile) string {
	if n := strings.TrimSpace(p.FullName); n != "" {
		return n
	}
	if n := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName)); n != "" {
		return n
	}
	return strings.TrimSpace(p.Username)
}

func (r *Reconciler) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
