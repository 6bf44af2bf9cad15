package domain

import "time"

// AppointmentStatus tracks the accept/reject state of a proposed repair date.
type AppointmentStatus string

const (
	AppointmentProposed AppointmentStatus = "PROPOSED"
	AppointmentAccepted AppointmentStatus = "ACCEPTED"
	AppointmentRejected AppointmentStatus = "REJECTED"
)

// Appointment is a proposed repair date for the ticket's current negotiation
// round, tied 1:1 to the active damage request.
type Appointment struct {
	ID            string
	TicketID      string
	RequestID     string
	ScheduledTime time.Time
	Status        AppointmentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
