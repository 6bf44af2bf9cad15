package dto

import (
	"time"

	"github.com/spec-kit/damage-service/internal/domain"
)

// CreateTicketRequest payload for a new damage report.
type CreateTicketRequest struct {
	ApartmentID        string  `json:"apartment_id"`
	PreferredCompanyID *string `json:"preferred_company_id"`
	ParentTicketID     *string `json:"parent_ticket_id"`
	JanitorEnabled     bool    `json:"janitor_enabled"`
	Allocation         bool    `json:"allocation"`
	Comment            string  `json:"comment"`
}

// TransitionRequest payload for a manual status change.
type TransitionRequest struct {
	Status  domain.StatusKey `json:"status"`
	Comment string           `json:"comment"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID                 string           `json:"id"`
	Status             domain.StatusKey `json:"status"`
	StatusLabel        string           `json:"status_label"`
	ApartmentID        string           `json:"apartment_id"`
	CreatedByUserID    string           `json:"created_by_user_id"`
	CreatedByRole      domain.Role      `json:"created_by_role"`
	AssignedCompanyID  *string          `json:"assigned_company_id"`
	PreferredCompanyID *string          `json:"preferred_company_id"`
	ResponsibleUserID  *string          `json:"responsible_user_id"`
	ResponsibleRole    domain.Role      `json:"responsible_role"`
	ParentTicketID     *string          `json:"parent_ticket_id"`
	ChildTicketID      *string          `json:"child_ticket_id"`
	JanitorEnabled     bool             `json:"janitor_enabled"`
	Allocation         bool             `json:"allocation"`
	Closed             bool             `json:"closed"`
	Version            int64            `json:"version"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// LogEntryResponse is one audit-trail row.
type LogEntryResponse struct {
	ID           string              `json:"id"`
	Kind         domain.LogEntryKind `json:"kind"`
	Status       domain.StatusKey    `json:"status"`
	ActorUserID  string              `json:"actor_user_id,omitempty"`
	ActorRole    domain.Role         `json:"actor_role"`
	Comment      *string             `json:"comment,omitempty"`
	OfferID      *string             `json:"offer_id,omitempty"`
	RequestID    *string             `json:"request_id,omitempty"`
	Responsibles []domain.Role       `json:"responsibles,omitempty"`
	AlertDay     *int                `json:"alert_day,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}
