package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/sbx-training/portal/internal/ports"
)

// Verify-flow failures. Handlers map each to a status code.
var (
	ErrMissingHandshake  = errors.New("missing handshake parameters")
	ErrInvalidSignature  = errors.New("invalid or expired handshake signature")
	ErrNotStaff          = errors.New("directory user is not staff")
	ErrReplayedHandshake = errors.New("handshake already used")
)

// SSOComponents are the collaborators of the verification flow. All are required.
type SSOComponents struct {
	Verifier   *HandshakeVerifier
	Directory  *DirectoryResolver
	Reconciler *Reconciler
	Policy     *AccessPolicy
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Components SSOComponents
	Replay     ports.ReplayGuard // Optional: one-time handshakes when set
	Logger     *slog.Logger
}

// AuthService runs the handshake verification flow: signature, directory lookup,
// staff check, local reconciliation and claim derivation.
type AuthService struct {
	verifier   *HandshakeVerifier
	directory  *DirectoryResolver
	reconciler *Reconciler
	policy     *AccessPolicy
	replay     ports.ReplayGuard
	logger     *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	c := opts.Components
	switch {
	case c.Verifier == nil:
		panic("HandshakeVerifier is required")
	case c.Directory == nil:
		panic("DirectoryResolver is required")
	case c.Reconciler == nil:
		panic("Reconciler is required")
	case c.Policy == nil:
		panic("AccessPolicy is required")
	}
	return &AuthService{
		verifier:   c.Verifier,
		directory:  c.Directory,
		reconciler: c.Reconciler,
		policy:     c.Policy,
		replay:     opts.Replay,
		logger:     opts.Logger,
	}
}

// AuthenticateResult contains the claims to issue and what happened to the local user.
type AuthenticateResult struct {
	Claims  domainauth.Session
	Outcome ReconcileOutcome
}

// Authenticate verifies h and returns the session claims for the resolved staff member.
// IssuedAt and ExpiresAt are left for the session manager to stamp.
//
// Errors: ErrMissingHandshake, ErrInvalidSignature, ErrReplayedHandshake, ErrDirectoryNotFound,
// ErrNotStaff, ports.ErrDirectoryUnavailable and ErrPersistence (possibly wrapped).
// No local user is created or modified unless the signature is valid and the user is staff.
// With a replay guard, the signature is spent only once the user is reconciled; reloading the
// iframe with the same link inside the window is then refused with ErrReplayedHandshake.
func (s *AuthService) Authenticate(ctx context.Context, h domainauth.Handshake) (*AuthenticateResult, error) {
	if !h.Complete() {
		return nil, ErrMissingHandshake
	}
	if !s.verifier.Verify(ctx, h) {
		return nil, ErrInvalidSignature
	}

	profile, err := s.directory.FetchUserByHandshake(ctx, h.ExternalID, h.Username)
	if err != nil {
		return nil, fmt.Errorf("fetch directory user: %w", err)
	}
	if !profile.IsStaff() {
		s.log().InfoContext(ctx, "non-staff handshake refused",
			"username", profile.Username,
			"role_type", profile.RoleType,
		)
		return nil, ErrNotStaff
	}

	user, outcome, err := s.reconciler.Reconcile(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("reconcile user: %w", err)
	}
	// Claimed last so a failed lookup or write leaves the link usable for a retry.
	if err := s.claimHandshake(ctx, h); err != nil {
		return nil, err
	}

	username := profile.Username
	if username == "" {
		username = h.Username
	}
	claims := domainauth.Session{
		UserID:       user.ID,
		RemoteUserID: profile.InternalID,
		ExternalID:   profile.ExternalIDOr(h.ExternalID),
		Username:     username,
		Email:        user.Email,
		Name:         user.Name,
		Role:         domainauth.RoleStaff,
		IsAdmin:      s.policy.IsAdmin(username, user),
		IsHR:         s.policy.IsHR(user),
	}

	s.log().InfoContext(ctx, "handshake verified",
		"user_id", user.ID,
		"username", username,
		"outcome", outcome,
		"is_admin", claims.IsAdmin,
	)
	return &AuthenticateResult{Claims: claims, Outcome: outcome}, nil
}

// claimHandshake marks the signature as used for the tolerance window on both sides of now.
func (s *AuthService) claimHandshake(ctx context.Context, h domainauth.Handshake) error {
	if s.replay == nil {
		return nil
	}
	fresh, err := s.replay.Claim(ctx, h.Signature, 2*s.verifier.Tolerance())
	if err != nil {
		return fmt.Errorf("claim handshake: %w", err)
	}
	if !fresh {
		s.log().WarnContext(ctx, "replayed handshake refused", "username", h.Username)
		return ErrReplayedHandshake
	}
	return nil
}

func (s *AuthService) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
