package dto

import (
	"time"

	"github.com/spec-kit/damage-service/internal/domain"
)

// PostMessageRequest is the payload for adding a comment to a ticket.
type PostMessageRequest struct {
	Body string `json:"body"`
}

// MessageResponse is the API shape of one ticket message.
type MessageResponse struct {
	ID           string      `json:"id"`
	TicketID     string      `json:"ticket_id"`
	AuthorUserID string      `json:"author_user_id"`
	AuthorRole   domain.Role `json:"author_role"`
	Body         string      `json:"body"`
	Archived     bool        `json:"archived"`
	CreatedAt    time.Time   `json:"created_at"`
}
