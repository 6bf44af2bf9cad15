package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/damage-service/internal/domain"
)

// RequestRepository encapsulates damage-request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.DamageRequest) error
	Update(ctx context.Context, request *domain.DamageRequest) error
	GetByID(ctx context.Context, id string) (*domain.DamageRequest, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.DamageRequest, error)
	// ActiveForTicket returns the single active request of a ticket, or
	// domain.ErrNotFound when no request is in flight.
	ActiveForTicket(ctx context.Context, ticketID string) (*domain.DamageRequest, error)
}

type requestRepository struct {
	db DB
}

// NewRequestRepository instantiates the repository.
func NewRequestRepository(db DB) RequestRepository {
	return &requestRepository{db: db}
}

const requestColumns = `id, ticket_id, company_id, state, with_offer, company_email,
       requested_date, new_offer_requested_date, request_reject_date, active, created_at, updated_at`

func (r *requestRepository) Create(ctx context.Context, request *domain.DamageRequest) error {
	const query = `
        INSERT INTO damage_requests (ticket_id, company_id, state, with_offer, company_email,
            requested_date, new_offer_requested_date, request_reject_date, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		request.TicketID,
		request.CompanyID,
		request.State,
		request.WithOffer,
		request.CompanyEmail,
		request.RequestedDate,
		request.NewOfferRequestedDate,
		request.RequestRejectDate,
		request.Active,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
}

func (r *requestRepository) Update(ctx context.Context, request *domain.DamageRequest) error {
	const query = `
        UPDATE damage_requests SET state=$1, company_email=$2, new_offer_requested_date=$3,
            request_reject_date=$4, active=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.db.Exec(ctx, query,
		request.State,
		request.CompanyEmail,
		request.NewOfferRequestedDate,
		request.RequestRejectDate,
		request.Active,
		request.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.DamageRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM damage_requests WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *requestRepository) ActiveForTicket(ctx context.Context, ticketID string) (*domain.DamageRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM damage_requests WHERE ticket_id=$1 AND active=true`
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *requestRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.DamageRequest, error) {
	var request domain.DamageRequest
	if err := scanRequest(r.db.QueryRow(ctx, query, arg), &request); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.DamageRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM damage_requests WHERE ticket_id=$1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DamageRequest
	for rows.Next() {
		var request domain.DamageRequest
		if err := scanRequest(rows, &request); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}

func scanRequest(row pgx.Row, request *domain.DamageRequest) error {
	return row.Scan(
		&request.ID,
		&request.TicketID,
		&request.CompanyID,
		&request.State,
		&request.WithOffer,
		&request.CompanyEmail,
		&request.RequestedDate,
		&request.NewOfferRequestedDate,
		&request.RequestRejectDate,
		&request.Active,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
}
