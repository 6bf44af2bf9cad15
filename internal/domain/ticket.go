package domain

import "time"

// Ticket is the aggregate for one damage report raised against a rental unit.
// Mutation goes exclusively through the transition engine; deletion is a
// soft-delete flag flip so the audit trail survives.
type Ticket struct {
	ID                 string
	Status             StatusKey
	CreatedByUserID    string
	CreatedByRole      Role
	ApartmentID        string
	AssignedCompanyID  *string
	PreferredCompanyID *string
	ResponsibleUserID  *string
	ResponsibleRole    Role
	ParentTicketID     *string
	ChildTicketID      *string
	JanitorEnabled     bool
	Allocation         bool
	Deleted            bool
	// Version implements the optimistic lock; every committed transition
	// increments it, and a stale writer fails with ErrConcurrentModification.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsClosed reports whether the ticket sits in a terminal status.
func (t *Ticket) IsClosed() bool {
	return t.Status.IsTerminal()
}

// CompanyForRouting returns the company that should receive routed
// responsibility: the assigned company when set, otherwise the preferred one.
func (t *Ticket) CompanyForRouting() *string {
	if t.AssignedCompanyID != nil {
		return t.AssignedCompanyID
	}
	return t.PreferredCompanyID
}

// ValidateLink checks that attaching parentID/childID keeps the escalation
// chain acyclic. Chains are validated on write, never traversed cyclically.
func ValidateLink(ticketID string, parentID, childID *string, parentOf func(string) *string) error {
	if parentID != nil && *parentID == ticketID {
		return ErrInvalidTransition
	}
	if childID != nil && *childID == ticketID {
		return ErrInvalidTransition
	}
	// Walk up from the proposed parent; meeting the ticket again means the
	// link would close a cycle.
	seen := map[string]bool{ticketID: true}
	for cursor := parentID; cursor != nil; cursor = parentOf(*cursor) {
		if seen[*cursor] {
			return ErrInvalidTransition
		}
		seen[*cursor] = true
	}
	return nil
}
