package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "two words", in: "Jane Doe", want: "JD"},
		{name: "middle names ignored", in: "mary anne de souza", want: "MS"},
		{name: "single word", in: "Cher", want: "C"},
		{name: "hyphenated surname", in: "Anna Smith-Jones", want: "AJ"},
		{name: "extra whitespace", in: "  Li   Wei ", want: "LW"},
		{name: "empty", in: "   ", want: ""},
		{name: "leading punctuation", in: "'Bob' O'Neil", want: "BO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Initials(tt.in))
		})
	}
}

func TestUser_HasRole(t *testing.T) {
	u := &User{Roles: []string{"staff", " HR "}}
	assert.True(t, u.HasRole(UserRoleStaff))
	assert.True(t, u.HasRole(UserRoleHR))
	assert.False(t, u.HasRole(UserRoleAdmin))
}

func TestCreateUserRequest_Validate(t *testing.T) {
	req := CreateUserRequest{Name: " New Colleague ", Email: " new.colleague@school.edu "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "New Colleague", req.Name)
	assert.Equal(t, "new.colleague@school.edu", req.Email)
	assert.Equal(t, []string{UserRoleStaff}, req.Roles)

	bad := CreateUserRequest{Name: "", Email: "x@y.z"}
	require.Error(t, bad.Validate())

	bad = CreateUserRequest{Name: "A", Email: "not-an-email"}
	require.Error(t, bad.Validate())
}
