package domain

import "time"

// RequestState mirrors the subset of the status lifecycle a damage request
// moves through while routed to one company.
type RequestState string

const (
	RequestStateRequested         RequestState = "REQUESTED"
	RequestStateOfferGiven        RequestState = "OFFER_GIVEN"
	RequestStateAccepted          RequestState = "ACCEPTED"
	RequestStateNewOfferRequested RequestState = "NEW_OFFER_REQUESTED"
	RequestStateRejected          RequestState = "REJECTED"
	RequestStateScheduled         RequestState = "SCHEDULED"
	RequestStateDateAccepted      RequestState = "DATE_ACCEPTED"
	RequestStateDateRejected      RequestState = "DATE_REJECTED"
	RequestStateRepairConfirmed   RequestState = "REPAIR_CONFIRMED"
	RequestStateClosed            RequestState = "CLOSED"
)

// DamageRequest records that a ticket was routed to a specific company for
// quoting or repair. A ticket may accumulate several sequential requests when
// companies reject or fail to respond; only one is active at a time.
type DamageRequest struct {
	ID                    string
	TicketID              string
	CompanyID             string
	State                 RequestState
	WithOffer             bool
	CompanyEmail          *string
	RequestedDate         time.Time
	NewOfferRequestedDate *time.Time
	RequestRejectDate     *time.Time
	Active                bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Open reports whether the request still awaits a company or stakeholder
// decision.
func (r *DamageRequest) Open() bool {
	switch r.State {
	case RequestStateRejected, RequestStateRepairConfirmed, RequestStateClosed:
		return false
	}
	return true
}
