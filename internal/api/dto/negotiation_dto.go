package dto

import (
	"time"

	"github.com/spec-kit/damage-service/internal/domain"
)

// RequestCompanyRequest payload for routing a ticket to a company.
type RequestCompanyRequest struct {
	CompanyID    string  `json:"company_id"`
	WithOffer    bool    `json:"with_offer"`
	CompanyEmail *string `json:"company_email"`
}

// SubmitOfferRequest payload for a company quote.
type SubmitOfferRequest struct {
	AmountCents int64                   `json:"amount_cents"`
	PriceSplit  []domain.PriceSplitItem `json:"price_split"`
}

// AnswerRequest payload for accept/reject decisions on offers and dates.
type AnswerRequest struct {
	Accept  bool   `json:"accept"`
	Comment string `json:"comment"`
}

// ProposeAppointmentRequest payload for a repair date proposal.
type ProposeAppointmentRequest struct {
	ScheduledTime time.Time `json:"scheduled_time"`
}

// RaiseDefectRequest payload.
type RaiseDefectRequest struct {
	Description string `json:"description"`
}

// DamageRequestResponse is the wire form of a company request.
type DamageRequestResponse struct {
	ID            string              `json:"id"`
	TicketID      string              `json:"ticket_id"`
	CompanyID     string              `json:"company_id"`
	State         domain.RequestState `json:"state"`
	WithOffer     bool                `json:"with_offer"`
	Active        bool                `json:"active"`
	RequestedDate time.Time           `json:"requested_date"`
}

// OfferResponse is the wire form of an offer.
type OfferResponse struct {
	ID           string                  `json:"id"`
	TicketID     string                  `json:"ticket_id"`
	RequestID    string                  `json:"request_id"`
	CompanyID    string                  `json:"company_id"`
	AmountCents  int64                   `json:"amount_cents"`
	PriceSplit   []domain.PriceSplitItem `json:"price_split"`
	Accepted     bool                    `json:"accepted"`
	Active       bool                    `json:"active"`
	AcceptedDate *time.Time              `json:"accepted_date,omitempty"`
}

// AppointmentResponse is the wire form of a repair appointment.
type AppointmentResponse struct {
	ID            string                   `json:"id"`
	TicketID      string                   `json:"ticket_id"`
	RequestID     string                   `json:"request_id"`
	ScheduledTime time.Time                `json:"scheduled_time"`
	Status        domain.AppointmentStatus `json:"status"`
}

// DefectResponse is the wire form of a defect record.
type DefectResponse struct {
	ID          string `json:"id"`
	TicketID    string `json:"ticket_id"`
	Description string `json:"description"`
	RaisedByID  string `json:"raised_by_id"`
}
