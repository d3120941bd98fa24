package api

import (
	"errors"
	"net/http"

	"github.com/okian/venuedraw/internal/domain/apperr"
)

// Sentinel kinds for request decoding errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrStreaming  = errors.New("streaming unsupported")
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps an error kind to its HTTP status and wire code.
func statusFor(kind error) (int, string) {
	switch kind {
	case apperr.ErrValidation:
		return http.StatusBadRequest, "validation"
	case apperr.ErrUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case apperr.ErrForbidden:
		return http.StatusForbidden, "forbidden"
	case apperr.ErrNotFound:
		return http.StatusNotFound, "not_found"
	case apperr.ErrInvalidState:
		return http.StatusConflict, "invalid_state"
	case apperr.ErrConflict:
		return http.StatusConflict, "conflict"
	case apperr.ErrCapacityExceeded:
		return http.StatusConflict, "capacity_exceeded"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
