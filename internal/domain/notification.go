package domain

// Notification is the payload handed to the external dispatcher. Delivery is
// at-least-once through a durable queue; a dispatch failure never rolls back
// the transition that produced it.
type Notification struct {
	RecipientAddress string `json:"recipient_address"`
	Subject          string `json:"subject"`
	Body             string `json:"body"`
	RelatedTicketID  string `json:"related_ticket_id"`
}
