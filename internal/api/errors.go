package api

import (
	"errors"
	"net/http"

	"user-control/internal/domain"
)

// httpStatusFromDomainError maps domain errors to an HTTP status and a stable
// error code.
func httpStatusFromDomainError(err error) (int, string) {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var noFallback *domain.NoFallbackControlError
	var noPolicy *domain.NoControlPolicyError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &validation):
		return http.StatusBadRequest, "invalid_request"
	case errors.As(err, &conflict):
		return http.StatusConflict, "conflict"
	case errors.As(err, &noFallback):
		return http.StatusInternalServerError, "no_fallback_control"
	case errors.As(err, &noPolicy):
		return http.StatusInternalServerError, "no_control_policy"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
