package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/maestro/internal/model"
)

var (
	// ErrTenantNotFound indicates the tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantExists indicates a signup collision on email.
	ErrTenantExists = errors.New("tenant already exists")

	// ErrUnknownProvider indicates an OAuth provider outside the supported set.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrMissingCredentials indicates the tenant has no client configuration
	// (or no token) for the provider; re-upload or re-auth is required.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidState indicates an absent, mismatched or expired consent
	// state token. The flow must be restarted from BeginAuth.
	ErrInvalidState = errors.New("invalid oauth state")

	// ErrInvalidGrant indicates the provider rejected the grant itself
	// (revoked consent, bad code). Requires re-authorization.
	ErrInvalidGrant = errors.New("invalid grant")

	// ErrTokenExchange indicates a transport or provider failure during the
	// token exchange. Transient; the caller may retry.
	ErrTokenExchange = errors.New("token exchange failed")

	// ErrExpiredCredentials indicates an expired token with no refresh token
	// to renew it. Requires re-authorization.
	ErrExpiredCredentials = errors.New("expired credentials")
)

// ValidationError carries field-level failures from input validation.
// The handler layer maps it to an RFC 9457 response listing each field.
type ValidationError struct {
	Fields []model.FieldError
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []model.FieldError{{Field: field, Message: message}}}
}
