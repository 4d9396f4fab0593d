// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., illegal_transition, version_conflict) are reserved
//     for business logic errors that cannot be conveyed by status alone.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Usage:
//   - Handlers select the most specific matching code and pass it to `fail()` along
//     with the corresponding HTTP status and message.
//   - Clients are expected to branch on these codes for programmatic error handling.
//
// Example response:
//   {
//     "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//     "code": "illegal_transition",
//     "message": "order cannot move from completed to in_progress"
//   }

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-homework-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeIllegalTransition = "illegal_transition"
	ErrCodeVersionConflict   = "version_conflict"
	ErrCodeSubmitFailed      = "submit_failed"
	ErrCodeListFailed        = "list_failed"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)

// failService translates a service sentinel error into the HTTP status and
// error code the client should see. Handlers call it after exhausting their
// endpoint-specific validation, so anything unmapped is a genuine 500.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNoProposal):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrIllegalTransition):
		fail(c, http.StatusConflict, ErrCodeIllegalTransition, err.Error())
	case errors.Is(err, services.ErrVersionConflict):
		fail(c, http.StatusConflict, ErrCodeVersionConflict, err.Error())
	case errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrDuplicateCode):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrInvalidOrder),
		errors.Is(err, services.ErrUnknownStatus),
		errors.Is(err, services.ErrInvalidAssignee),
		errors.Is(err, services.ErrEmptyNotes),
		errors.Is(err, services.ErrInvalidProposal),
		errors.Is(err, services.ErrInvalidPhase),
		errors.Is(err, services.ErrNoFiles),
		errors.Is(err, services.ErrUnknownRole),
		errors.Is(err, services.ErrInvalidUser),
		errors.Is(err, services.ErrInvalidReferenceCode),
		errors.Is(err, services.ErrInvalidPricing),
		errors.Is(err, services.ErrInvalidFee),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrUnknownTemplate):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
