package api

import (
	"context"
	"errors"
	"net/http"

	"audiosketch/internal/services"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusFor maps a wrapped sentinel to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, services.ErrMissingPrecondition), errors.Is(err, services.ErrDependencyUnmet):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrProvider):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
