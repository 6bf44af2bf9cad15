package domain

import "time"

// LogEntryKind distinguishes regular transition entries from escalation
// reminders, which do not change the ticket status.
type LogEntryKind string

const (
	LogKindTransition LogEntryKind = "TRANSITION"
	LogKindReminder   LogEntryKind = "REMINDER"
)

// LogEntry is one immutable append in a ticket's audit trail. Entries are
// never mutated or deleted; CreatedAt is strictly increasing per ticket
// because appends happen under the ticket's transition lock.
type LogEntry struct {
	ID          string
	TicketID    string
	Kind        LogEntryKind
	Status      StatusKey
	ActorUserID string
	ActorRole   Role
	Comment     *string
	OfferID     *string
	RequestID   *string
	// Responsibles snapshots the role(s) eligible to act next at the time of
	// the entry.
	Responsibles []Role
	// AlertDay is set on reminder entries: the day offset that fired.
	AlertDay  *int
	CreatedAt time.Time
}
