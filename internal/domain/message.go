package domain

import "time"

// TicketMessage is a free-text comment attached to a ticket, with a
// read-receipt per recipient kept alongside. Messages of closed tickets are
// archived by a batch job after the retention window.
type TicketMessage struct {
	ID           string
	TicketID     string
	AuthorUserID string
	AuthorRole   Role
	Body         string
	Archived     bool
	CreatedAt    time.Time
}

// ReadReceipt marks that a user has seen a ticket message. The first read
// wins; repeated marks are no-ops.
type ReadReceipt struct {
	MessageID string
	UserID    string
	ReadAt    time.Time
}
