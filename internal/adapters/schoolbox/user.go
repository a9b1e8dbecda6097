package schoolbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/sbx-training/portal/internal/ports"
)

// UpstreamError describes a directory call that failed for a reason other than "no match".
// It matches ports.ErrDirectoryUnavailable under errors.Is.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("directory %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("directory %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is reports ports.ErrDirectoryUnavailable as a match.
func (e *UpstreamError) Is(target error) bool { return target == ports.ErrDirectoryUnavailable }

// remoteUser is the wire shape of a Schoolbox user record.
type remoteUser struct {
	ID         flexString `json:"id"`
	ExternalID flexString `json:"externalId"`
	Username   string     `json:"username"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	FullName   string     `json:"fullName"`
	Email      *string    `json:"email"`
	Role       remoteRole `json:"role"`
}

// profile converts the record; an absent or non-numeric id is a malformed payload.
func (u remoteUser) profile() (domainauth.RemoteUserProfile, error) {
	internalID, err := strconv.ParseInt(strings.TrimSpace(u.ID.value), 10, 64)
	if err != nil {
		return domainauth.RemoteUserProfile{}, fmt.Errorf("invalid user id %q: %w", u.ID.value, err)
	}

	fullName := strings.TrimSpace(u.FullName)
	if fullName == "" {
		fullName = strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	}

	p := domainauth.RemoteUserProfile{
		InternalID: internalID,
		Username:   strings.TrimSpace(u.Username),
		FirstName:  strings.TrimSpace(u.FirstName),
		LastName:   strings.TrimSpace(u.LastName),
		FullName:   fullName,
		RoleType:   u.Role.kind,
	}
	if u.ExternalID.set && u.ExternalID.value != "" {
		ext := u.ExternalID.value
		p.ExternalID = &ext
	}
	if u.Email != nil {
		if email := strings.TrimSpace(*u.Email); email != "" {
			p.Email = &email
		}
	}
	return p, nil
}

// flexString accepts a JSON string, number or null.
type flexString struct {
	value string
	set   bool
}

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = flexString{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString{value: strings.TrimSpace(s), set: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString{value: n.String(), set: true}
	return nil
}

// remoteRole accepts either "staff" or {"type": "staff", ...}.
type remoteRole struct {
	kind domainauth.RemoteRoleType
}

func (r *remoteRole) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = remoteRole{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		r.kind = normalizeRole(s)
		return nil
	}
	var obj struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("decode role: %w", err)
	}
	r.kind = normalizeRole(obj.Type)
	return nil
}

func normalizeRole(s string) domainauth.RemoteRoleType {
	return domainauth.RemoteRoleType(strings.ToLower(strings.TrimSpace(s)))
}
