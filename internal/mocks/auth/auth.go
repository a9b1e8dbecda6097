package auth

// Package auth contains simple hand-written test doubles for the SSO ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/sbx-training/portal/internal/domain/model"
	"github.com/sbx-training/portal/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.DirectoryClient = (*FakeDirectory)(nil)
	_ ports.UserRepository  = (*MemoryUserRepository)(nil)
	_ ports.ReplayGuard     = (*MemoryReplayGuard)(nil)
)

// DirectoryCall records one request made against FakeDirectory.
type DirectoryCall struct {
	Method string // "GetUser" or "ListUsers"
	ID     int64
	Filter ports.UserFilter
	Cursor string
}

// FakeDirectory is an in-memory remote directory. Filters match by equality on
// externalId, username and role.type. Pages holds explicit pages keyed by cursor
// and takes precedence over Users for ListUsers when set.
type FakeDirectory struct {
	mu sync.Mutex

	Users []domainauth.RemoteUserProfile

	// Pages maps an incoming cursor ("" for the first page) to the page returned.
	Pages map[string]ports.UserPage

	// GetErr and ListErr, when set, are returned instead of results.
	GetErr  error
	ListErr error

	// ListErrOnCursor fails only the page requested with this cursor.
	ListErrOnCursor map[string]error

	Calls []DirectoryCall
}

// NewFakeDirectory creates a FakeDirectory seeded with users.
func NewFakeDirectory(users ...domainauth.RemoteUserProfile) *FakeDirectory {
	return &FakeDirectory{Users: users}
}

func (f *FakeDirectory) GetUser(_ context.Context, id int64) (domainauth.RemoteUserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, DirectoryCall{Method: "GetUser", ID: id})

	if f.GetErr != nil {
		return domainauth.RemoteUserProfile{}, f.GetErr
	}
	for _, u := range f.Users {
		if u.InternalID == id {
			return u, nil
		}
	}
	return domainauth.RemoteUserProfile{}, ports.ErrRemoteUserNotFound
}

func (f *FakeDirectory) ListUsers(_ context.Context, in ports.ListUsersInput) (ports.UserPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, DirectoryCall{Method: "ListUsers", Filter: in.Filter, Cursor: in.Cursor})

	if err, ok := f.ListErrOnCursor[in.Cursor]; ok {
		return ports.UserPage{}, err
	}
	if f.ListErr != nil {
		return ports.UserPage{}, f.ListErr
	}
	if f.Pages != nil {
		return f.Pages[in.Cursor], nil
	}

	var items []domainauth.RemoteUserProfile
	for _, u := range f.Users {
		if matches(u, in.Filter) {
			items = append(items, u)
		}
	}
	return ports.UserPage{Items: items}, nil
}

// CallCount returns the number of requests made for method.
func (f *FakeDirectory) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func matches(u domainauth.RemoteUserProfile, filter ports.UserFilter) bool {
	for k, v := range filter {
		switch k {
		case "externalId":
			if u.ExternalID == nil || *u.ExternalID != v {
				return false
			}
		case "username":
			if u.Username != v {
				return false
			}
		case "role.type":
			if string(u.RoleType) != v {
				return false
			}
		case "id":
			if strconv.FormatInt(u.InternalID, 10) != v {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// MemoryUserRepository is an in-memory UserRepository with case-insensitive email matching.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*model.User // keyed by lower(email)

	// Error injection.
	GetErr    error
	CreateErr error
	UpdateErr error

	// BeforeCreate runs inside Create before the uniqueness check (tests use it to simulate races).
	BeforeCreate func(req *model.CreateUserRequest)

	Creates int
	Updates int
	Now     func() time.Time
}

// NewMemoryUserRepository creates an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*model.User), Now: time.Now}
}

// Seed inserts a user directly, bypassing counters.
func (m *MemoryUserRepository) Seed(u model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := u
	m.users[strings.ToLower(u.Email)] = &cp
	out := cp
	return &out
}

func (m *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (m *MemoryUserRepository) Create(
	_ context.Context,
	req *model.CreateUserRequest,
	initials string,
) (*model.User, error) {
	if m.BeforeCreate != nil {
		m.BeforeCreate(req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	key := strings.ToLower(req.Email)
	if _, exists := m.users[key]; exists {
		return nil, ports.ErrUserEmailExists
	}

	now := m.Now()
	u := &model.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Initials:  initials,
		Roles:     append([]string(nil), req.Roles...),
		Active:    req.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.users[key] = u
	m.Creates++
	out := *u
	return &out, nil
}

func (m *MemoryUserRepository) UpdateName(_ context.Context, in ports.UpdateUserNameInput) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	for _, u := range m.users {
		if u.ID == in.ID {
			u.Name = in.Name
			u.Initials = in.Initials
			u.UpdatedAt = m.Now()
			m.Updates++
			out := *u
			return &out, nil
		}
	}
	return nil, ports.ErrUserNotFound
}

func (m *MemoryUserRepository) List(_ context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		if opts.Q != nil {
			q := strings.ToLower(*opts.Q)
			if !strings.Contains(strings.ToLower(u.Name), q) && !strings.Contains(strings.ToLower(u.Email), q) {
				continue
			}
		}
		cp := *u
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *model.User) int { return strings.Compare(a.Name, b.Name) })

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []*model.User{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Len returns the number of stored users.
func (m *MemoryUserRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// MemoryReplayGuard is an in-memory ReplayGuard. Expiry is ignored.
type MemoryReplayGuard struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	Err    error
	Claims int
}

// NewMemoryReplayGuard creates an empty guard.
func NewMemoryReplayGuard() *MemoryReplayGuard {
	return &MemoryReplayGuard{seen: make(map[string]struct{})}
}

func (g *MemoryReplayGuard) Claim(_ context.Context, signature string, _ time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Claims++
	if g.Err != nil {
		return false, g.Err
	}
	if _, ok := g.seen[signature]; ok {
		return false, nil
	}
	g.seen[signature] = struct{}{}
	return true, nil
}
