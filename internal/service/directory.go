package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/sbx-training/portal/internal/ports"
)

// ErrDirectoryNotFound is returned when no lookup strategy finds the user.
var ErrDirectoryNotFound = errors.New("directory user not found")

const (
	defaultDirectoryPageSize = 100
	defaultDirectoryMaxPages = 20
)

// DirectoryResolverConfig tunes pagination.
type DirectoryResolverConfig struct {
	PageSize int // limit sent with each list request
	MaxPages int // page-count ceiling for PageIterator
}

// DirectoryResolverOptions groups dependencies for DirectoryResolver.
type DirectoryResolverOptions struct {
	Client ports.DirectoryClient // Required
	Config DirectoryResolverConfig
	Logger *slog.Logger
}

// DirectoryResolver resolves handshake identities against the remote directory.
type DirectoryResolver struct {
	client ports.DirectoryClient
	cfg    DirectoryResolverConfig
	logger *slog.Logger
}

// NewDirectoryResolver constructs a DirectoryResolver.
func NewDirectoryResolver(opts DirectoryResolverOptions) *DirectoryResolver {
	if opts.Client == nil {
		panic("DirectoryClient is required")
	}
	cfg := opts.Config
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultDirectoryPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultDirectoryMaxPages
	}
	return &DirectoryResolver{client: opts.Client, cfg: cfg, logger: opts.Logger}
}

type lookupStrategy struct {
	name string
	run  func(ctx context.Context) (domainauth.RemoteUserProfile, bool, error)
}

// FetchUserByHandshake resolves the remote profile for a handshake. Strategies run in order and
// the first non-empty result wins:
//  1. direct lookup treating externalID as the directory's numeric id
//  2. filter by externalId
//  3. filter by username
//  4. filter by username using the externalID value
//
// It returns ErrDirectoryNotFound when nothing matched. When nothing matched and at least one
// strategy failed for another reason, the error wraps ports.ErrDirectoryUnavailable instead.
func (r *DirectoryResolver) FetchUserByHandshake(
	ctx context.Context,
	externalID, username string,
) (domainauth.RemoteUserProfile, error) {
	var failures []error

	for _, s := range r.strategies(externalID, username) {
		if err := ctx.Err(); err != nil {
			return domainauth.RemoteUserProfile{}, fmt.Errorf("resolve directory user: %w", err)
		}

		profile, found, err := s.run(ctx)
		if err != nil {
			r.log().WarnContext(ctx, "directory lookup strategy failed",
				"strategy", s.name,
				"external_id", externalID,
				"username", username,
				"error", err,
			)
			failures = append(failures, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		if found {
			r.log().DebugContext(ctx, "directory user resolved",
				"strategy", s.name,
				"remote_id", profile.InternalID,
				"username", profile.Username,
			)
			return profile, nil
		}
	}

	if len(failures) > 0 {
		return domainauth.RemoteUserProfile{}, fmt.Errorf("resolve directory user: %w", errors.Join(failures...))
	}
	return domainauth.RemoteUserProfile{}, ErrDirectoryNotFound
}

func (r *DirectoryResolver) strategies(externalID, username string) []lookupStrategy {
	var out []lookupStrategy

	if id, err := strconv.ParseInt(strings.TrimSpace(externalID), 10, 64); err == nil {
		out = append(out, lookupStrategy{
			name: "direct_id",
			run: func(ctx context.Context) (domainauth.RemoteUserProfile, bool, error) {
				p, err := r.client.GetUser(ctx, id)
				if errors.Is(err, ports.ErrRemoteUserNotFound) {
					return domainauth.RemoteUserProfile{}, false, nil
				}
				if err != nil {
					return domainauth.RemoteUserProfile{}, false, err
				}
				return p, true, nil
			},
		})
	}

	out = append(out,
		r.filterStrategy("external_id_filter", ports.UserFilter{"externalId": externalID}),
		r.filterStrategy("username_filter", ports.UserFilter{"username": username}),
		r.filterStrategy("external_id_as_username", ports.UserFilter{"username": externalID}),
	)
	return out
}

func (r *DirectoryResolver) filterStrategy(name string, filter ports.UserFilter) lookupStrategy {
	return lookupStrategy{
		name: name,
		run: func(ctx context.Context) (domainauth.RemoteUserProfile, bool, error) {
			for _, v := range filter {
				if strings.TrimSpace(v) == "" {
					return domainauth.RemoteUserProfile{}, false, nil
				}
			}
			page, err := r.FetchUsersByFilter(ctx, filter, "")
			if err != nil {
				return domainauth.RemoteUserProfile{}, false, err
			}
			if len(page.Items) == 0 {
				return domainauth.RemoteUserProfile{}, false, nil
			}
			return page.Items[0], true, nil
		},
	}
}

// FetchUsersByFilter fetches a single page of users matching filter, starting at cursor.
func (r *DirectoryResolver) FetchUsersByFilter(
	ctx context.Context,
	filter ports.UserFilter,
	cursor string,
) (ports.UserPage, error) {
	page, err := r.client.ListUsers(ctx, ports.ListUsersInput{
		Filter: filter,
		Cursor: cursor,
		Limit:  r.cfg.PageSize,
	})
	if err != nil {
		return ports.UserPage{}, fmt.Errorf("list directory users: %w", err)
	}
	return page, nil
}

// Pages returns a lazy iterator over the pages matching filter.
func (r *DirectoryResolver) Pages(filter ports.UserFilter) *PageIterator {
	return &PageIterator{resolver: r, filter: filter, maxPages: r.cfg.MaxPages}
}

// FetchAllStaff drains every page of {"role.type":"staff"} and keeps only staff profiles.
// A failed page aborts the fetch; a partial roster is never returned as complete.
func (r *DirectoryResolver) FetchAllStaff(ctx context.Context) ([]domainauth.RemoteUserProfile, error) {
	it := r.Pages(ports.UserFilter{"role.type": string(domainauth.RemoteRoleStaff)})

	var staff []domainauth.RemoteUserProfile
	for it.Next(ctx) {
		for _, p := range it.Page().Items {
			if p.IsStaff() {
				staff = append(staff, p)
			}
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("fetch all staff: %w", err)
	}
	if it.Truncated() {
		r.log().WarnContext(ctx, "directory page ceiling reached; roster may be incomplete",
			"pages", it.PagesFetched(),
			"staff", len(staff),
		)
	}
	r.log().DebugContext(ctx, "staff roster fetched", "pages", it.PagesFetched(), "staff", len(staff))
	return staff, nil
}

// PageIterator walks directory pages one request at a time, following NextCursor until it is
// empty or the page ceiling is reached. Iteration stops at the first error.
//
//	it := resolver.Pages(filter)
//	for it.Next(ctx) {
//		use(it.Page())
//	}
//	if err := it.Err(); err != nil { ... }
type PageIterator struct {
	resolver *DirectoryResolver
	filter   ports.UserFilter
	maxPages int

	cursor    string
	fetched   int
	page      ports.UserPage
	done      bool
	truncated bool
	err       error
}

// Next fetches the next page. It returns false when the pages are exhausted, the ceiling was hit,
// the context is done or a request failed.
func (it *PageIterator) Next(ctx context.Context) bool {
	if it.done {
		return false
	}
	if it.fetched >= it.maxPages {
		it.done = true
		it.truncated = true
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		it.done = true
		return false
	}

	page, err := it.resolver.FetchUsersByFilter(ctx, it.filter, it.cursor)
	if err != nil {
		it.err = fmt.Errorf("page %d: %w", it.fetched+1, err)
		it.done = true
		return false
	}

	it.fetched++
	it.page = page
	it.cursor = page.NextCursor
	if page.NextCursor == "" {
		it.done = true
	}
	return true
}

// Page returns the page fetched by the last successful Next.
func (it *PageIterator) Page() ports.UserPage { return it.page }

// Err returns the error that stopped iteration, if any.
func (it *PageIterator) Err() error { return it.err }

// PagesFetched returns how many pages have been fetched so far.
func (it *PageIterator) PagesFetched() int { return it.fetched }

// Truncated reports whether iteration stopped at the page ceiling while a cursor remained.
func (it *PageIterator) Truncated() bool { return it.truncated }

func (r *DirectoryResolver) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
