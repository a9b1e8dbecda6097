package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sbx-training/portal/internal/data/pgxutil"
	"github.com/sbx-training/portal/internal/domain/model"
	apperrors "github.com/sbx-training/portal/internal/errors"
	"github.com/sbx-training/portal/internal/ports"
)

// User repository sentinels are shared with the port so services can match them without importing data.
var (
	ErrUserNotFound    = ports.ErrUserNotFound
	ErrUserEmailExists = ports.ErrUserEmailExists
)

var _ ports.UserRepository = (*UserRepo)(nil)

const userColumns = `id, name, email, initials, roles, active, created_at, updated_at`

// UserRepo provides database operations for local users.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrUserNotFound
	}
	u, err := r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// Create inserts a new user. A concurrent insert of the same email surfaces as ErrUserEmailExists.
func (r *UserRepo) Create(ctx context.Context, req *model.CreateUserRequest, initials string) (*model.User, error) {
	if req == nil {
		return nil, errors.New("create user request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	u, err := r.queryOne(ctx, `
		INSERT INTO users (name, email, initials, roles, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+userColumns,
		req.Name, req.Email, initials, req.Roles, req.Active, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UpdateName changes the name and initials of a user; no other column is written.
func (r *UserRepo) UpdateName(ctx context.Context, in ports.UpdateUserNameInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.ValidationField("name", "name cannot be empty")
	}
	u, err := r.queryOne(ctx, `
		UPDATE users SET name = $2, initials = $3
		WHERE id = $1
		RETURNING `+userColumns,
		in.ID, name, in.Initials,
	)
	if err != nil {
		return nil, fmt.Errorf("update user name: %w", err)
	}
	return u, nil
}

// List retrieves users ordered by name with pagination.
func (r *UserRepo) List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{limit, offset}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		query += ` WHERE name ILIKE $3 OR email ILIKE $3`
		args = append(args, "%"+strings.TrimSpace(*opts.Q)+"%")
	}
	query += ` ORDER BY name ASC, id ASC LIMIT $1 OFFSET $2`

	var rowsOut []model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list users: %w", mapUserErr(err))
	}

	res := make([]*model.User, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

func (r *UserRepo) queryOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	var out model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, mapUserErr(err)
	}
	return &out, nil
}

// mapUserErr translates driver errors into repository sentinels, keeping the AppError as cause.
func mapUserErr(err error) error {
	mapped := apperrors.MapDBError(err)
	switch {
	case apperrors.IsNotFound(mapped):
		return ErrUserNotFound
	case apperrors.IsConflict(mapped) && apperrors.GetField(mapped) == "email":
		return errors.Join(ErrUserEmailExists, mapped)
	default:
		return mapped
	}
}
