package domain

import "time"

// PriceSplitItem is one line of an offer's itemized amount.
type PriceSplitItem struct {
	Label       string `json:"label"`
	AmountCents int64  `json:"amount_cents"`
}

// Offer is a company's priced proposal against a damage request. At most one
// offer per ticket may be accepted and active at the same time.
type Offer struct {
	ID           string
	TicketID     string
	RequestID    string
	CompanyID    string
	AmountCents  int64
	PriceSplit   []PriceSplitItem
	Accepted     bool
	Active       bool
	AcceptedDate *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SplitTotal sums the itemized amounts.
func (o *Offer) SplitTotal() int64 {
	var total int64
	for _, item := range o.PriceSplit {
		total += item.AmountCents
	}
	return total
}
