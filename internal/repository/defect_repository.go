package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/damage-service/internal/domain"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// DefectRepository encapsulates defect persistence. A unique constraint on
// ticket_id enforces the one-defect-per-ticket rule at the database level.
type DefectRepository interface {
	// Create stores the defect; a second defect for the same ticket fails
	// with domain.ErrDuplicateDefect.
	Create(ctx context.Context, defect *domain.Defect) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.Defect, error)
}

type defectRepository struct {
	db DB
}

// NewDefectRepository instantiates the repository.
func NewDefectRepository(db DB) DefectRepository {
	return &defectRepository{db: db}
}

func (r *defectRepository) Create(ctx context.Context, defect *domain.Defect) error {
	const query = `
        INSERT INTO defects (ticket_id, description, raised_by_user_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		defect.TicketID,
		defect.Description,
		defect.RaisedByID,
	).Scan(&defect.ID, &defect.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrDuplicateDefect
		}
		return err
	}
	return nil
}

func (r *defectRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Defect, error) {
	const query = `
        SELECT id, ticket_id, description, raised_by_user_id, created_at
        FROM defects WHERE ticket_id=$1`
	var defect domain.Defect
	err := r.db.QueryRow(ctx, query, ticketID).Scan(
		&defect.ID,
		&defect.TicketID,
		&defect.Description,
		&defect.RaisedByID,
		&defect.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &defect, nil
}
