package domain

import "errors"

// Error taxonomy for the ticket lifecycle. Validation-class errors indicate
// protocol misuse and must not be retried; ErrConcurrentModification is
// retryable after a re-read.
var (
	ErrUnknownStatus          = errors.New("unknown status key")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrPermissionDenied       = errors.New("role not permitted for status")
	ErrCommentRequired        = errors.New("comment required for status")
	ErrTicketClosed           = errors.New("ticket is closed")
	ErrTicketDeleted          = errors.New("ticket is deleted")
	ErrConcurrentModification = errors.New("ticket modified concurrently")
	ErrDuplicateDefect        = errors.New("defect already recorded for ticket")
	ErrNoActiveContract       = errors.New("contract activation conflict")
	ErrNotFound               = errors.New("not found")
)

// IsRetryable reports whether the caller may re-read and re-attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
