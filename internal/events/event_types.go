package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/damage-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDamageReported      EventType = "damage_reported"
	EventStatusChanged       EventType = "damage_status_changed"
	EventOfferSubmitted      EventType = "offer_submitted"
	EventOfferAnswered       EventType = "offer_answered"
	EventAppointmentProposed EventType = "appointment_proposed"
	EventAppointmentAnswered EventType = "appointment_answered"
	EventDefectRaised        EventType = "defect_raised"
	EventReminderFired       EventType = "reminder_fired"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(eventType EventType, ticketID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	Status          domain.StatusKey `json:"status"`
	ResponsibleRole domain.Role      `json:"responsible_role"`
	Comment         *string          `json:"comment,omitempty"`
}

// OfferPayload payload for offer submission and answers.
type OfferPayload struct {
	OfferID     string `json:"offer_id"`
	RequestID   string `json:"request_id"`
	AmountCents int64  `json:"amount_cents,omitempty"`
	Accepted    *bool  `json:"accepted,omitempty"`
}

// AppointmentPayload payload for scheduling events.
type AppointmentPayload struct {
	AppointmentID string    `json:"appointment_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Accepted      *bool     `json:"accepted,omitempty"`
}

// ReminderPayload payload for escalation reminders.
type ReminderPayload struct {
	AlertDay int              `json:"alert_day"`
	Status   domain.StatusKey `json:"status"`
}
