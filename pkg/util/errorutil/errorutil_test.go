package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/damage-service/internal/domain"
)

func TestToDomainErrorSentinels(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
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
	for _, tc := range cases {
		mapped := ToDomainError(tc.err)
		require.NotNil(t, mapped, tc.code)
		assert.Equal(t, tc.code, mapped.Code)
		assert.Equal(t, tc.status, mapped.HTTPStatus)
	}
}

func TestToDomainErrorWrappedSentinel(t *testing.T) {
	err := fmt.Errorf("ticket abc: %w", domain.ErrTicketClosed)
	mapped := ToDomainError(err)
	require.NotNil(t, mapped)
	assert.Equal(t, "TICKET_CLOSED", mapped.Code)
	assert.Equal(t, http.StatusConflict, mapped.HTTPStatus)
	assert.ErrorIs(t, mapped, domain.ErrTicketClosed)
}

func TestToDomainErrorPassthrough(t *testing.T) {
	original := NewValidationError("missing field", map[string]any{"field": "comment"})
	mapped := ToDomainError(original)
	assert.Same(t, original, error(mapped))
}

func TestToDomainErrorUnknown(t *testing.T) {
	mapped := ToDomainError(errors.New("boom"))
	require.NotNil(t, mapped)
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}
