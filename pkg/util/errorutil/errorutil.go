package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spec-kit/damage-service/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// sentinelMapping binds each domain sentinel to its wire representation.
type sentinelMapping struct {
	target error
	code   string
	status int
}

var sentinelMappings = []sentinelMapping{
	{domain.ErrUnknownStatus, "UNKNOWN_STATUS", http.StatusBadRequest},
	{domain.ErrCommentRequired, "COMMENT_REQUIRED", http.StatusBadRequest},
	{domain.ErrPermissionDenied, "PERMISSION_DENIED", http.StatusForbidden},
	{domain.ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{domain.ErrInvalidTransition, "INVALID_TRANSITION", http.StatusConflict},
	{domain.ErrTicketClosed, "TICKET_CLOSED", http.StatusConflict},
	{domain.ErrConcurrentModification, "CONCURRENT_MODIFICATION", http.StatusConflict},
	{domain.ErrDuplicateDefect, "DUPLICATE_DEFECT", http.StatusConflict},
	{domain.ErrNoActiveContract, "NO_ACTIVE_CONTRACT", http.StatusConflict},
	{domain.ErrTicketDeleted, "TICKET_DELETED", http.StatusGone},
}

// ToDomainError converts any error into a DomainError, mapping the domain
// sentinels to their HTTP codes and defaulting to 500.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	for _, m := range sentinelMappings {
		if errors.Is(err, m.target) {
			return &DomainError{
				Code:       m.code,
				Message:    err.Error(),
				HTTPStatus: m.status,
				Err:        err,
			}
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
