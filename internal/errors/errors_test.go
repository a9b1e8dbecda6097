package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "resource not found",
			},
			want: "resource not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to process",
				Cause:   errors.New("underlying error"),
			},
			want: "failed to process: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:    ErrCodeInternal,
		Message: "wrapped error",
		Cause:   cause,
	}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{name: "not found", err: NotFound("x"), code: ErrCodeNotFound},
		{name: "conflict", err: Conflict("x"), code: ErrCodeConflict},
		{name: "validation", err: Validation("x"), code: ErrCodeValidation},
		{name: "validation field", err: ValidationField("email", "x"), code: ErrCodeValidation},
		{name: "internal", err: Internal("x"), code: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.Message != "x" {
				t.Errorf("Message = %q, want x", tt.err.Message)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "msg") != nil {
		t.Errorf("Wrap(nil) should return nil")
	}

	cause := errors.New("dial tcp: refused")
	err := Wrapf(cause, ErrCodeUpstream, "directory %s", "unreachable")
	if err.Message != "directory unreachable" {
		t.Errorf("Wrapf() message = %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Wrapf() should preserve cause")
	}
	if !IsUpstream(fmt.Errorf("resolve: %w", err)) {
		t.Errorf("IsUpstream() should see through fmt wrapping")
	}
}

func TestGetCodeAndField(t *testing.T) {
	if GetCode(errors.New("plain")) != "" {
		t.Errorf("GetCode() on plain error should be empty")
	}
	err := fmt.Errorf("create user: %w", ValidationField("email", "bad email"))
	if GetCode(err) != ErrCodeValidation {
		t.Errorf("GetCode() = %v, want validation", GetCode(err))
	}
	if GetField(err) != "email" {
		t.Errorf("GetField() = %q, want email", GetField(err))
	}
	if GetField(errors.New("plain")) != "" {
		t.Errorf("GetField() on plain error should be empty")
	}
}
