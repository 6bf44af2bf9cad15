package domain

import "time"

// Defect records the underlying fault a company identified behind a damage
// report. At most one defect exists per ticket.
type Defect struct {
	ID          string
	TicketID    string
	Description string
	RaisedByID  string
	CreatedAt   time.Time
}
