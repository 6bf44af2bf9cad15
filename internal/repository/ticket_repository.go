package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/damage-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes the ticket guarded by its optimistic version; a stale
	// version fails with domain.ErrConcurrentModification.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// ListByStatuses returns non-deleted tickets currently in one of the
	// given statuses; used by the escalation scans.
	ListByStatuses(ctx context.Context, statuses []domain.StatusKey) ([]domain.Ticket, error)
	// ListClosedBefore returns tickets whose last transition into a terminal
	// status happened before the cutoff.
	ListClosedBefore(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)
	SoftDelete(ctx context.Context, id string) error
	ParentOf(ctx context.Context, id string) (*string, error)
}

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, status, created_by_user_id, created_by_role, apartment_id,
       assigned_company_id, preferred_company_id, responsible_user_id, responsible_role,
       parent_ticket_id, child_ticket_id, janitor_enabled, allocation, deleted,
       version, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (status, created_by_user_id, created_by_role, apartment_id,
            assigned_company_id, preferred_company_id, responsible_user_id, responsible_role,
            parent_ticket_id, child_ticket_id, janitor_enabled, allocation, deleted, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,false,1)
        RETURNING id, version, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Status,
		ticket.CreatedByUserID,
		ticket.CreatedByRole,
		ticket.ApartmentID,
		ticket.AssignedCompanyID,
		ticket.PreferredCompanyID,
		ticket.ResponsibleUserID,
		ticket.ResponsibleRole,
		ticket.ParentTicketID,
		ticket.ChildTicketID,
		ticket.JanitorEnabled,
		ticket.Allocation,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, assigned_company_id=$2, preferred_company_id=$3,
            responsible_user_id=$4, responsible_role=$5, parent_ticket_id=$6,
            child_ticket_id=$7, janitor_enabled=$8, allocation=$9, deleted=$10,
            version=version+1, updated_at=NOW()
        WHERE id=$11 AND version=$12`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Status,
		ticket.AssignedCompanyID,
		ticket.PreferredCompanyID,
		ticket.ResponsibleUserID,
		ticket.ResponsibleRole,
		ticket.ParentTicketID,
		ticket.ChildTicketID,
		ticket.JanitorEnabled,
		ticket.Allocation,
		ticket.Deleted,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, query, id), &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByStatuses(ctx context.Context, statuses []domain.StatusKey) ([]domain.Ticket, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE deleted=false AND status IN (%s) ORDER BY created_at`,
		ticketColumns, strings.Join(placeholders, ","))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListClosedBefore(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets t
        WHERE t.deleted=false
          AND t.status LIKE '%%_CLOSE_THE_DAMAGE'
          AND t.updated_at < $1
        ORDER BY t.updated_at`, ticketColumns)
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) SoftDelete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE tickets SET deleted=true, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ticketRepository) ParentOf(ctx context.Context, id string) (*string, error) {
	var parent *string
	err := r.db.QueryRow(ctx, `SELECT parent_ticket_id FROM tickets WHERE id=$1`, id).Scan(&parent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return parent, nil
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Status,
		&ticket.CreatedByUserID,
		&ticket.CreatedByRole,
		&ticket.ApartmentID,
		&ticket.AssignedCompanyID,
		&ticket.PreferredCompanyID,
		&ticket.ResponsibleUserID,
		&ticket.ResponsibleRole,
		&ticket.ParentTicketID,
		&ticket.ChildTicketID,
		&ticket.JanitorEnabled,
		&ticket.Allocation,
		&ticket.Deleted,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
