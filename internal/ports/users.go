package ports

import (
	"context"
	"errors"

	"github.com/sbx-training/portal/internal/domain/model"
)

var (
	// ErrUserNotFound is returned when no local user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserEmailExists is returned when creating a user whose email (case-insensitive) is taken.
	ErrUserEmailExists = errors.New("user email already exists")
)

// UpdateUserNameInput groups parameters for renaming a local user.
type UpdateUserNameInput struct {
	ID       string
	Name     string
	Initials string
}

// UserRepository persists local portal users.
type UserRepository interface {
	// GetByEmail matches email case-insensitively. Returns ErrUserNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Create inserts a user. Returns ErrUserEmailExists when the email is already taken.
	Create(ctx context.Context, req *model.CreateUserRequest, initials string) (*model.User, error)

	// UpdateName changes only the name and initials of an existing user.
	UpdateName(ctx context.Context, in UpdateUserNameInput) (*model.User, error)

	// List returns a page of users ordered by name.
	List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error)
}
