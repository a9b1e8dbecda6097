package auth

// Package auth contains domain-level types for the Schoolbox handshake and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents the session's authorization role.
// Only staff sessions are ever issued; the field exists so the gate can check it.
type Role string

const (
	RoleStaff Role = "staff"
)

// Handshake query parameter names appended by the host platform.
const (
	ParamSignature  = "key"
	ParamIssuedAt   = "time"
	ParamExternalID = "id"
	ParamUsername   = "user"
)

// SessionLifetime is the fixed session window.
const SessionLifetime = time.Hour

// Handshake is the signed parameter set the host attaches to the iframe URL.
// It is ephemeral and never stored.
type Handshake struct {
	Signature  string
	IssuedAt   string
	ExternalID string
	Username   string
}

// Complete reports whether all four handshake parameters are present.
func (h Handshake) Complete() bool {
	return h.Signature != "" && h.IssuedAt != "" && h.ExternalID != "" && h.Username != ""
}

// RemoteRoleType is the role category reported by the remote directory.
type RemoteRoleType string

const (
	RemoteRoleStaff   RemoteRoleType = "staff"
	RemoteRoleStudent RemoteRoleType = "student"
	RemoteRoleParent  RemoteRoleType = "parent"
	RemoteRoleGuest   RemoteRoleType = "guest"
)

// RemoteUserProfile is the user record as reported by the remote directory. Read-only.
type RemoteUserProfile struct {
	InternalID int64
	ExternalID *string
	Username   string
	FirstName  string
	LastName   string
	FullName   string
	Email      *string
	RoleType   RemoteRoleType
}

// IsStaff reports whether the remote role type is staff.
func (p RemoteUserProfile) IsStaff() bool { return p.RoleType == RemoteRoleStaff }

// EmailOr returns the remote email, or fallback when the directory has none.
func (p RemoteUserProfile) EmailOr(fallback string) string {
	if p.Email != nil && *p.Email != "" {
		return *p.Email
	}
	return fallback
}

// ExternalIDOr returns the remote external id, or fallback when absent.
func (p RemoteUserProfile) ExternalIDOr(fallback string) string {
	if p.ExternalID != nil && *p.ExternalID != "" {
		return *p.ExternalID
	}
	return fallback
}

// Session is the claim set carried in the sealed session cookie.
// IssuedAt and ExpiresAt are unix seconds; ExpiresAt is always IssuedAt + 3600.
type Session struct {
	UserID       string `json:"user_id"`
	RemoteUserID int64  `json:"remote_user_id"`
	ExternalID   string `json:"external_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	IsAdmin      bool   `json:"is_admin"`
	IsHR         bool   `json:"is_hr"`
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
}

// IsStaff returns true if the session role is staff.
func (s Session) IsStaff() bool { return s.Role == RoleStaff }

// Expired reports whether ExpiresAt has passed at now. The expiry second itself is still valid.
func (s Session) Expired(now time.Time) bool { return now.Unix() > s.ExpiresAt }

// ExpiresTime returns ExpiresAt as a time.Time.
func (s Session) ExpiresTime() time.Time { return time.Unix(s.ExpiresAt, 0).UTC() }
