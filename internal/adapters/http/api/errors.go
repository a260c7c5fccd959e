package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/pawmatch/internal/adapters/mq/queue"
	"github.com/okian/pawmatch/internal/domain/match"
	"github.com/okian/pawmatch/internal/domain/profile"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// statusFor maps domain errors to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, profile.ErrProfileNotFound):
		return http.StatusNotFound, "profile_not_found"
	case errors.Is(err, match.ErrPetNotFound):
		return http.StatusNotFound, "pet_not_found"
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, match.ErrClosed), errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
