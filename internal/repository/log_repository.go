package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/damage-service/internal/domain"
)

// LogRepository stores the append-only audit trail. Entries are never
// updated or deleted.
type LogRepository interface {
	Append(ctx context.Context, entry *domain.LogEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.LogEntry, error)
	// LastStatusEntry returns the newest transition entry of a ticket; its
	// CreatedAt is the compare time for escalation windows.
	LastStatusEntry(ctx context.Context, ticketID string) (*domain.LogEntry, error)
	// HasReminder reports whether a reminder for the given alert day was
	// already appended since the status round began; the scheduler uses it
	// to stay idempotent even across overlapping run windows.
	HasReminder(ctx context.Context, ticketID string, alertDay int, since time.Time) (bool, error)
}

type logRepository struct {
	db DB
}

// NewLogRepository instantiates the repository.
func NewLogRepository(db DB) LogRepository {
	return &logRepository{db: db}
}

const logColumns = `id, ticket_id, kind, status, actor_user_id, actor_role, comment,
       offer_id, request_id, responsibles, alert_day, created_at`

func (r *logRepository) Append(ctx context.Context, entry *domain.LogEntry) error {
	const query = `
        INSERT INTO ticket_log (ticket_id, kind, status, actor_user_id, actor_role, comment,
            offer_id, request_id, responsibles, alert_day)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	responsibles := make([]string, len(entry.Responsibles))
	for i, role := range entry.Responsibles {
		responsibles[i] = string(role)
	}
	return r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.Kind,
		entry.Status,
		entry.ActorUserID,
		entry.ActorRole,
		entry.Comment,
		entry.OfferID,
		entry.RequestID,
		responsibles,
		entry.AlertDay,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *logRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.LogEntry, error) {
	query := `SELECT ` + logColumns + ` FROM ticket_log WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LogEntry
	for rows.Next() {
		var entry domain.LogEntry
		if err := scanLogEntry(rows, &entry); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *logRepository) LastStatusEntry(ctx context.Context, ticketID string) (*domain.LogEntry, error) {
	query := `SELECT ` + logColumns + ` FROM ticket_log
        WHERE ticket_id=$1 AND kind=$2 ORDER BY created_at DESC, id DESC LIMIT 1`
	var entry domain.LogEntry
	if err := scanLogEntry(r.db.QueryRow(ctx, query, ticketID, domain.LogKindTransition), &entry); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *logRepository) HasReminder(ctx context.Context, ticketID string, alertDay int, since time.Time) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM ticket_log
            WHERE ticket_id=$1 AND kind=$2 AND alert_day=$3 AND created_at >= $4
        )`
	var exists bool
	err := r.db.QueryRow(ctx, query, ticketID, domain.LogKindReminder, alertDay, since).Scan(&exists)
	return exists, err
}

func scanLogEntry(row pgx.Row, entry *domain.LogEntry) error {
	var responsibles []string
	if err := row.Scan(
		&entry.ID,
		&entry.TicketID,
		&entry.Kind,
		&entry.Status,
		&entry.ActorUserID,
		&entry.ActorRole,
		&entry.Comment,
		&entry.OfferID,
		&entry.RequestID,
		&responsibles,
		&entry.AlertDay,
		&entry.CreatedAt,
	); err != nil {
		return err
	}
	entry.Responsibles = make([]domain.Role, len(responsibles))
	for i, role := range responsibles {
		entry.Responsibles[i] = domain.Role(role)
	}
	return nil
}
