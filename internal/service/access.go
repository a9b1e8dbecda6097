package service

import (
	"strings"

	"github.com/sbx-training/portal/internal/domain/model"
)

// AccessPolicyConfig configures admin derivation.
type AccessPolicyConfig struct {
	AdminUsernames []string
	HRGrantsAdmin  bool
}

// AccessPolicy derives session authorization flags from the allowlist and local roles.
type AccessPolicy struct {
	admins        map[string]struct{}
	hrGrantsAdmin bool
}

// NewAccessPolicy constructs an AccessPolicy. Usernames are matched case-insensitively.
func NewAccessPolicy(cfg AccessPolicyConfig) *AccessPolicy {
	admins := make(map[string]struct{}, len(cfg.AdminUsernames))
	for _, u := range cfg.AdminUsernames {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			admins[u] = struct{}{}
		}
	}
	return &AccessPolicy{admins: admins, hrGrantsAdmin: cfg.HRGrantsAdmin}
}

// IsAdmin reports whether the login gets the admin flag: an allowlisted username,
// the admin or super_admin role, or the hr role when HRGrantsAdmin is set.
func (p *AccessPolicy) IsAdmin(username string, user *model.User) bool {
	if _, ok := p.admins[strings.ToLower(strings.TrimSpace(username))]; ok {
		return true
	}
	if user == nil {
		return false
	}
	if user.HasRole(model.UserRoleAdmin) || user.HasRole(model.UserRoleSuperAdmin) {
		return true
	}
	return p.hrGrantsAdmin && user.HasRole(model.UserRoleHR)
}

// IsHR reports whether the user carries the hr role.
func (p *AccessPolicy) IsHR(user *model.User) bool {
	return user != nil && user.HasRole(model.UserRoleHR)
}
