package domain

import "time"

// ContractStatus is the rental/ownership contract lifecycle.
type ContractStatus string

const (
	ContractFuture   ContractStatus = "FUTURE"
	ContractActive   ContractStatus = "ACTIVE"
	ContractArchived ContractStatus = "ARCHIVED"
)

// Contract binds a tenant (or owner) to a rental object for a date range.
// Steady state per object: at most one active contract, any number of future
// and archived ones.
type Contract struct {
	ID        string
	ObjectID  string
	TenantID  string
	Status    ContractStatus
	StartDate time.Time
	EndDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DueForActivation reports whether a future contract's start date has passed.
func (c *Contract) DueForActivation(now time.Time) bool {
	return c.Status == ContractFuture && !c.StartDate.After(now)
}

// DueForTermination reports whether an active contract's end date has passed.
func (c *Contract) DueForTermination(now time.Time) bool {
	return c.Status == ContractActive && c.EndDate != nil && c.EndDate.Before(now)
}
