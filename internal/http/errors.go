package httpx

import (
	"errors"
	"net/http"

	apperrors "github.com/sbx-training/portal/internal/errors"
	"github.com/sbx-training/portal/internal/ports"
)

// statusForError maps service and data errors to an HTTP status and error code.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, ports.ErrDirectoryUnavailable), apperrors.IsUpstream(err):
		return http.StatusBadGateway, "directory_unavailable"
	case apperrors.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case apperrors.IsConflict(err):
		return http.StatusConflict, "conflict"
	case apperrors.IsValidation(err):
		return http.StatusBadRequest, "validation_failed"
	case apperrors.IsAppError(err, apperrors.ErrCodeTimeout):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError writes a JSON error for err without exposing internal detail.
// AppError messages are user-facing and are passed through.
func writeServiceError(w http.ResponseWriter, err error) {
	code, errCode := statusForError(err)
	msg := ""
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && code < http.StatusInternalServerError {
		msg = appErr.Message
	}
	WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Message: msg})
}
