package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the key expression from a unique violation detail:
// "Key (email)=(x) already exists." or "Key (lower(email))=(x) already exists.".
var reKeyField = regexp.MustCompile(`Key \((.+?)\)=\(`)

// MapDBError maps database errors to AppError instances.
// It handles common database error patterns including:
// - pgx.ErrNoRows → NotFound
// - Unique constraint violations → Conflict
// - Check and NOT NULL violations → Validation
// - Context timeouts/cancellations → Timeout/Canceled
//
// If the error is not a recognized database error, it returns the original error.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return err
}

// mapPgError maps PostgreSQL-specific errors to AppError instances.
func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "This value already exists. Please choose a different one.",
			Field:   uniqueViolationField(pgErr),
			Cause:   pgErr,
		}
	case pgerrcode.CheckViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "This field has an invalid value.",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	case pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "This field is required.",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "A database error occurred. Please try again.",
			Cause:   pgErr,
		}
	}
}

// uniqueViolationField finds the column behind a unique violation, looking through
// expression indexes such as lower(email).
func uniqueViolationField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return stripFunctionCalls(m[1])
	}
	return inferFieldFromConstraint(pgErr.ConstraintName)
}

// stripFunctionCalls turns "lower(email::text)" into "email".
func stripFunctionCalls(expr string) string {
	for {
		open := strings.LastIndex(expr, "(")
		if open < 0 {
			break
		}
		expr = strings.TrimRight(expr[open+1:], ")")
	}
	if cast := strings.Index(expr, "::"); cast >= 0 {
		expr = expr[:cast]
	}
	if strings.Contains(expr, ",") {
		return ""
	}
	return strings.TrimSpace(expr)
}

// inferFieldFromConstraint attempts to infer the field name from a constraint or index name.
// e.g., "users_email_key" → "email"
// e.g., "users_lower_email_idx" → "email"
// Returns empty string if inference fails or is ambiguous.
func inferFieldFromConstraint(constraintName string) string {
	parts := strings.Split(constraintName, "_")
	if len(parts) == 4 && isFunctionName(parts[1]) {
		return parts[2]
	}
	if len(parts) != 3 || isFunctionName(parts[1]) {
		return ""
	}
	return parts[1]
}

// isFunctionName checks if a string looks like a common SQL function name
// used in expression indexes (e.g., lower, upper, trim, etc.)
func isFunctionName(s string) bool {
	switch strings.ToLower(s) {
	case "lower", "upper", "trim", "ltrim", "rtrim", "md5":
		return true
	default:
		return false
	}
}
