package repository

import (
	"context"

	"github.com/spec-kit/damage-service/internal/domain"
)

// MessageRepository encapsulates ticket comment persistence and the archive
// flag flipped by the retention batch job.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.TicketMessage) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
	// ArchiveByTicket marks every message of a ticket archived and returns
	// how many rows changed; already-archived messages are left alone so the
	// job stays idempotent.
	ArchiveByTicket(ctx context.Context, ticketID string) (int64, error)
	MarkRead(ctx context.Context, receipt *domain.ReadReceipt) error
}

type messageRepository struct {
	db DB
}

// NewMessageRepository instantiates the repository.
func NewMessageRepository(db DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.TicketMessage) error {
	const query = `
        INSERT INTO ticket_messages (ticket_id, author_user_id, author_role, body, archived)
        VALUES ($1,$2,$3,$4,false)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		message.TicketID,
		message.AuthorUserID,
		message.AuthorRole,
		message.Body,
	).Scan(&message.ID, &message.CreatedAt)
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	const query = `
        SELECT id, ticket_id, author_user_id, author_role, body, archived, created_at
        FROM ticket_messages WHERE ticket_id=$1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketMessage
	for rows.Next() {
		var message domain.TicketMessage
		if err := rows.Scan(
			&message.ID,
			&message.TicketID,
			&message.AuthorUserID,
			&message.AuthorRole,
			&message.Body,
			&message.Archived,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, message)
	}
	return result, rows.Err()
}

func (r *messageRepository) ArchiveByTicket(ctx context.Context, ticketID string) (int64, error) {
	cmd, err := r.db.Exec(ctx,
		`UPDATE ticket_messages SET archived=true WHERE ticket_id=$1 AND archived=false`,
		ticketID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *messageRepository) MarkRead(ctx context.Context, receipt *domain.ReadReceipt) error {
	// Marking twice is a no-op; the first read wins.
	const query = `
        INSERT INTO message_read_receipts (message_id, user_id, read_at)
        VALUES ($1,$2,NOW())
        ON CONFLICT (message_id, user_id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, receipt.MessageID, receipt.UserID)
	return err
}
