package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/sbx-training/portal/internal/domain/model"
	gomocks "github.com/sbx-training/portal/internal/mocks"
	mocks "github.com/sbx-training/portal/internal/mocks/auth"
	"github.com/sbx-training/portal/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var authNow = time.Unix(1_700_000_100, 0)

type authFixture struct {
	dir    *mocks.FakeDirectory
	users  *mocks.MemoryUserRepository
	replay *mocks.MemoryReplayGuard
	svc    *AuthService
}

func newAuthFixture(t *testing.T, withReplay bool, profiles ...domainauth.RemoteUserProfile) *authFixture {
	t.Helper()
	f := &authFixture{
		dir:   mocks.NewFakeDirectory(profiles...),
		users: mocks.NewMemoryUserRepository(),
	}
	opts := AuthServiceOptions{
		Components: SSOComponents{
			Verifier: NewHandshakeVerifier(HandshakeVerifierOptions{Secret: testSecret}).
				WithClock(func() time.Time { return authNow }),
			Directory:  NewDirectoryResolver(DirectoryResolverOptions{Client: f.dir}),
			Reconciler: NewReconciler(ReconcilerOptions{Users: f.users, InstitutionDomain: "school.edu"}),
			Policy:     NewAccessPolicy(AccessPolicyConfig{AdminUsernames: []string{"boss"}, HRGrantsAdmin: true}),
		},
	}
	if withReplay {
		f.replay = mocks.NewMemoryReplayGuard()
		opts.Replay = f.replay
	}
	f.svc = NewAuthService(opts)
	return f
}

func signedHandshake(issuedAt int64, id, user string) domainauth.Handshake {
	ts := strconv.FormatInt(issuedAt, 10)
	return domainauth.Handshake{
		Signature:  ExpectedSignature(testSecret, ts, id),
		IssuedAt:   ts,
		ExternalID: id,
		Username:   user,
	}
}

func TestNewAuthService_RequiresComponents(t *testing.T) {
	assert.Panics(t, func() { NewAuthService(AuthServiceOptions{}) })
}

func TestAuthenticate_Success(t *testing.T) {
	f := newAuthFixture(t, false, staffProfile(42, "jsmith", "T042"))

	res, err := f.svc.Authenticate(context.Background(), signedHandshake(1_700_000_000, "42", "jsmith"))
	require.NoError(t, err)
	assert.Equal(t, ReconcileCreated, res.Outcome)

	c := res.Claims
	assert.NotEmpty(t, c.UserID)
	assert.Equal(t, int64(42), c.RemoteUserID)
	assert.Equal(t, "T042", c.ExternalID)
	assert.Equal(t, "jsmith", c.Username)
	assert.Equal(t, "jsmith@school.edu", c.Email)
	assert.Equal(t, domainauth.RoleStaff, c.Role)
	assert.False(t, c.IsAdmin)
	assert.False(t, c.IsHR)
	assert.Zero(t, c.ExpiresAt, "expiry is stamped by the session manager")
}

func TestAuthenticate_AdminFlags(t *testing.T) {
	f := newAuthFixture(t, false, staffProfile(1, "boss", "T1"), staffProfile(2, "hrperson", "T2"))
	f.users.Seed(model.User{Name: "Jane Smith", Email: "hrperson@school.edu", Roles: []string{"staff", "hr"}})

	res, err := f.svc.Authenticate(context.Background(), signedHandshake(1_700_000_000, "1", "boss"))
	require.NoError(t, err)
	assert.True(t, res.Claims.IsAdmin)

	res, err = f.svc.Authenticate(context.Background(), signedHandshake(1_700_000_000, "2", "hrperson"))
	require.NoError(t, err)
	assert.True(t, res.Claims.IsAdmin)
	assert.True(t, res.Claims.IsHR)
}

func TestAuthenticate_Failures(t *testing.T) {
	student := staffProfile(7, "kid", "S7")
	student.RoleType = domainauth.RemoteRoleStudent

	tests := []struct {
		name      string
		handshake domainauth.Handshake
		setup     func(*authFixture)
		wantErr   error
	}{
		{
			name:      "missing params",
			handshake: domainauth.Handshake{Signature: "abc", IssuedAt: "1"},
			wantErr:   ErrMissingHandshake,
		},
		{
			name: "bad signature",
			handshake: func() domainauth.Handshake {
				h := signedHandshake(1_700_000_000, "42", "jsmith")
				h.Signature = h.Signature[:39] + "x"
				return h
			}(),
			wantErr: ErrInvalidSignature,
		},
		{
			name:      "stale timestamp",
			handshake: signedHandshake(1_700_000_100-400, "42", "jsmith"),
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "student",
			handshake: signedHandshake(1_700_000_000, "7", "kid"),
			wantErr:   ErrNotStaff,
		},
		{
			name:      "unknown user",
			handshake: signedHandshake(1_700_000_000, "999", "ghost"),
			wantErr:   ErrDirectoryNotFound,
		},
		{
			name:      "directory down",
			handshake: signedHandshake(1_700_000_000, "42", "jsmith"),
			setup: func(f *authFixture) {
				f.dir.GetErr = fmt.Errorf("dial: %w", ports.ErrDirectoryUnavailable)
				f.dir.ListErr = fmt.Errorf("dial: %w", ports.ErrDirectoryUnavailable)
			},
			wantErr: ports.ErrDirectoryUnavailable,
		},
		{
			name:      "database down",
			handshake: signedHandshake(1_700_000_000, "42", "jsmith"),
			setup:     func(f *authFixture) { f.users.GetErr = errors.New("conn refused") },
			wantErr:   ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, false, staffProfile(42, "jsmith", "T042"), student)
			if tt.setup != nil {
				tt.setup(f)
			}

			res, err := f.svc.Authenticate(context.Background(), tt.handshake)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
			assert.Zero(t, f.users.Creates)
			assert.Zero(t, f.users.Updates)
		})
	}
}

func TestAuthenticate_InvalidSignatureSkipsDirectory(t *testing.T) {
	f := newAuthFixture(t, false, staffProfile(42, "jsmith", "T042"))
	h := signedHandshake(1_700_000_000, "42", "jsmith")
	h.ExternalID = "43"

	_, err := f.svc.Authenticate(context.Background(), h)
	require.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, f.dir.Calls)
}

func TestAuthenticate_ReplayGuard(t *testing.T) {
	f := newAuthFixture(t, true, staffProfile(42, "jsmith", "T042"))
	h := signedHandshake(1_700_000_000, "42", "jsmith")

	_, err := f.svc.Authenticate(context.Background(), h)
	require.NoError(t, err)

	res, err := f.svc.Authenticate(context.Background(), h)
	require.ErrorIs(t, err, ErrReplayedHandshake)
	assert.Nil(t, res)
	assert.Equal(t, 1, f.users.Len())
}

func TestAuthenticate_ReplayGuardErrorFailsClosed(t *testing.T) {
	f := newAuthFixture(t, true, staffProfile(42, "jsmith", "T042"))
	f.replay.Err = errors.New("redis down")

	res, err := f.svc.Authenticate(context.Background(), signedHandshake(1_700_000_000, "42", "jsmith"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrReplayedHandshake)
	assert.Nil(t, res)
}

func TestAuthenticate_DirectoryFailureKeepsHandshakeUsable(t *testing.T) {
	f := newAuthFixture(t, true, staffProfile(42, "jsmith", "T042"))
	h := signedHandshake(1_700_000_000, "42", "jsmith")

	unavailable := fmt.Errorf("status 503: %w", ports.ErrDirectoryUnavailable)
	f.dir.GetErr, f.dir.ListErr = unavailable, unavailable
	_, err := f.svc.Authenticate(context.Background(), h)
	require.ErrorIs(t, err, ports.ErrDirectoryUnavailable)
	assert.Zero(t, f.users.Len())

	f.dir.GetErr, f.dir.ListErr = nil, nil
	res, err := f.svc.Authenticate(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "jsmith", res.Claims.Username)

	_, err = f.svc.Authenticate(context.Background(), h)
	require.ErrorIs(t, err, ErrReplayedHandshake)
}

func TestAuthenticate_PersistenceFailureKeepsHandshakeUsable(t *testing.T) {
	f := newAuthFixture(t, true, staffProfile(42, "jsmith", "T042"))
	h := signedHandshake(1_700_000_000, "42", "jsmith")

	f.users.CreateErr = errors.New("connection reset")
	_, err := f.svc.Authenticate(context.Background(), h)
	require.ErrorIs(t, err, ErrPersistence)

	f.users.CreateErr = nil
	_, err = f.svc.Authenticate(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, 1, f.users.Len())
}

func TestAuthenticate_ReplayWindowCoversBothSides(t *testing.T) {
	ctrl := gomock.NewController(t)
	guard := gomocks.NewMockReplayGuard(ctrl)

	f := newAuthFixture(t, false, staffProfile(42, "jsmith", "T042"))
	f.svc.replay = guard

	h := signedHandshake(1_700_000_000, "42", "jsmith")
	guard.EXPECT().Claim(gomock.Any(), h.Signature, 600*time.Second).Return(true, nil)

	_, err := f.svc.Authenticate(context.Background(), h)
	require.NoError(t, err)
}

func TestStaffSync(t *testing.T) {
	student := staffProfile(3, "kid", "S3")
	student.RoleType = domainauth.RemoteRoleStudent
	dir := &mocks.FakeDirectory{
		Pages: map[string]ports.UserPage{
			"":  {Items: []domainauth.RemoteUserProfile{staffProfile(1, "a", "1"), student}, NextCursor: "n"},
			"n": {Items: []domainauth.RemoteUserProfile{staffProfile(2, "b", "2")}},
		},
	}
	users := mocks.NewMemoryUserRepository()
	users.Seed(model.User{Name: "Old Name", Email: "b@school.edu"})

	resolver := NewDirectoryResolver(DirectoryResolverOptions{Client: dir})
	svc := NewStaffSyncService(StaffSyncServiceOptions{
		Directory:  resolver,
		Reconciler: NewReconciler(ReconcilerOptions{Users: users, InstitutionDomain: "school.edu"}),
	})

	report, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StaffSyncReport{Fetched: 2, Created: 1, Updated: 1}, report)

	report, err = svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StaffSyncReport{Fetched: 2, Unchanged: 2}, report)
}

func TestStaffSync_DirectoryFailureWritesNothing(t *testing.T) {
	dir := &mocks.FakeDirectory{
		Pages: map[string]ports.UserPage{
			"": {Items: []domainauth.RemoteUserProfile{staffProfile(1, "a", "1")}, NextCursor: "n"},
		},
		ListErrOnCursor: map[string]error{"n": ports.ErrDirectoryUnavailable},
	}
	users := mocks.NewMemoryUserRepository()
	svc := NewStaffSyncService(StaffSyncServiceOptions{
		Directory:  NewDirectoryResolver(DirectoryResolverOptions{Client: dir}),
		Reconciler: NewReconciler(ReconcilerOptions{Users: users}),
	})

	_, err := svc.Sync(context.Background())
	require.ErrorIs(t, err, ports.ErrDirectoryUnavailable)
	assert.Zero(t, users.Len())
}

func TestStaffSync_CountsReconcileFailures(t *testing.T) {
	dir := &mocks.FakeDirectory{
		Pages: map[string]ports.UserPage{
			"": {Items: []domainauth.RemoteUserProfile{staffProfile(1, "a", "1")}},
		},
	}
	users := mocks.NewMemoryUserRepository()
	users.CreateErr = errors.New("disk full")
	svc := NewStaffSyncService(StaffSyncServiceOptions{
		Directory:  NewDirectoryResolver(DirectoryResolverOptions{Client: dir}),
		Reconciler: NewReconciler(ReconcilerOptions{Users: users}),
	})

	report, err := svc.Sync(context.Background())
	require.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 1, report.Failed)
}
