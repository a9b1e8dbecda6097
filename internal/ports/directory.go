package ports

import (
	"context"
	"errors"

	domainauth "github.com/sbx-training/portal/internal/domain/auth"
)

var (
	// ErrRemoteUserNotFound is returned by DirectoryClient.GetUser when the directory answers 404.
	ErrRemoteUserNotFound = errors.New("remote user not found")

	// ErrDirectoryUnavailable marks failures talking to the directory: transport errors,
	// unexpected status codes and malformed payloads.
	ErrDirectoryUnavailable = errors.New("directory unavailable")
)

// UserFilter is the equality filter sent to the directory list endpoint, e.g. {"username": "jsmith"}.
type UserFilter map[string]string

// ListUsersInput groups parameters for a single directory page request.
type ListUsersInput struct {
	Filter UserFilter
	Cursor string
	Limit  int
}

// UserPage is one page of directory results. NextCursor is empty on the last page.
type UserPage struct {
	Items      []domainauth.RemoteUserProfile
	NextCursor string
}

// DirectoryClient talks to the remote Schoolbox user API.
type DirectoryClient interface {
	// GetUser fetches a user by the directory's internal numeric id.
	GetUser(ctx context.Context, internalID int64) (domainauth.RemoteUserProfile, error)

	// ListUsers fetches one page of users matching the filter.
	ListUsers(ctx context.Context, in ListUsersInput) (UserPage, error)
}
