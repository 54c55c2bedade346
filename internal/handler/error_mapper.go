package handler

import (
	"errors"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/scheduler"
	"github.com/forgo/maestro/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return model.NewValidationError(verr.Fields)
	}

	switch {
	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrTenantNotFound):
		return model.NewNotFoundError("tenant")
	case errors.Is(err, scheduler.ErrJobNotFound):
		return model.NewNotFoundError("job")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrTenantExists),
		errors.Is(err, scheduler.ErrJobExists):
		return model.NewConflictError(err.Error())

	// ===== Credential Errors → 422 with a machine-readable code =====
	case errors.Is(err, service.ErrMissingCredentials):
		return model.NewUnprocessableError(err.Error(), model.ErrCodeMissingCredentials)
	case errors.Is(err, service.ErrExpiredCredentials):
		return model.NewUnprocessableError(err.Error(), model.ErrCodeExpiredCredentials)
	case errors.Is(err, service.ErrInvalidState):
		return model.NewUnprocessableError(err.Error(), model.ErrCodeInvalidState)
	case errors.Is(err, service.ErrInvalidGrant):
		return model.NewUnprocessableError(err.Error(), model.ErrCodeInvalidGrant)

	// ===== Input Errors → 400 =====
	case errors.Is(err, service.ErrUnknownProvider),
		errors.Is(err, scheduler.ErrInvalidSchedule):
		return model.NewBadRequestError(err.Error())

	// ===== Provider/External Errors → 502 =====
	case errors.Is(err, service.ErrTokenExchange):
		return model.NewExternalAPIError(err.Error())

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}
