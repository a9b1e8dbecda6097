//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	maxUserNameLen = 255

	// UserRoleStaff is the role every SSO-provisioned user starts with.
	UserRoleStaff      = "staff"
	UserRoleHR         = "hr"
	UserRoleAdmin      = "admin"
	UserRoleSuperAdmin = "super_admin"
)

// User is a local portal account. Email is the match key against the remote directory.
type User struct {
	ID        string    `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	Email     string    `json:"email"      db:"email"`
	Initials  string    `json:"initials"   db:"initials"`
	Roles     []string  `json:"roles"      db:"roles"`
	Active    bool      `json:"active"     db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasRole reports whether the user carries role (case-insensitive).
func (u *User) HasRole(role string) bool {
	return slices.ContainsFunc(u.Roles, func(r string) bool {
		return strings.EqualFold(strings.TrimSpace(r), role)
	})
}

// CreateUserRequest represents parameters to create a User.
type CreateUserRequest struct {
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	Active bool     `json:"active"`
}

// Validate validates CreateUserRequest and normalizes its fields.
func (r *CreateUserRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(r.Name) > maxUserNameLen {
		return errors.New("name cannot exceed 255 characters")
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(r.Roles) == 0 {
		r.Roles = []string{UserRoleStaff}
	}
	return nil
}

// UsersListOptions controls paging for listing users.
type UsersListOptions struct {
	Limit  int
	Offset int
	Q      *string // substring match on name or email (ILIKE)
}

// Initials derives display initials from a full name: the first letter of the
// first and last words, upper-cased. A single word yields one letter.
func Initials(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	if len(words) == 0 {
		return ""
	}

	first := firstLetter(words[0])
	if len(words) == 1 {
		return first
	}
	return first + firstLetter(words[len(words)-1])
}

func firstLetter(word string) string {
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return string(unicode.ToUpper(r))
		}
	}
	return ""
}
