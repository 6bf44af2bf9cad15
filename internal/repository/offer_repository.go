package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/damage-service/internal/domain"
)

// OfferRepository encapsulates offer persistence. The price split is stored
// as a JSONB document.
type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	Update(ctx context.Context, offer *domain.Offer) error
	GetByID(ctx context.Context, id string) (*domain.Offer, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Offer, error)
	// ActiveAccepted returns the single accepted+active offer of a ticket,
	// or domain.ErrNotFound.
	ActiveAccepted(ctx context.Context, ticketID string) (*domain.Offer, error)
	// DeactivateRejected clears the active flag on non-accepted offers of a
	// ticket; called before a replacement offer is stored.
	DeactivateRejected(ctx context.Context, ticketID string) error
}

type offerRepository struct {
	db DB
}

// NewOfferRepository instantiates the repository.
func NewOfferRepository(db DB) OfferRepository {
	return &offerRepository{db: db}
}

const offerColumns = `id, ticket_id, request_id, company_id, amount_cents, price_split,
       accepted, active, accepted_date, created_at, updated_at`

func (r *offerRepository) Create(ctx context.Context, offer *domain.Offer) error {
	split, err := json.Marshal(offer.PriceSplit)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO offers (ticket_id, request_id, company_id, amount_cents, price_split, accepted, active, accepted_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		offer.TicketID,
		offer.RequestID,
		offer.CompanyID,
		offer.AmountCents,
		split,
		offer.Accepted,
		offer.Active,
		offer.AcceptedDate,
	).Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt)
}

func (r *offerRepository) Update(ctx context.Context, offer *domain.Offer) error {
	split, err := json.Marshal(offer.PriceSplit)
	if err != nil {
		return err
	}
	const query = `
        UPDATE offers SET amount_cents=$1, price_split=$2, accepted=$3, active=$4,
            accepted_date=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.db.Exec(ctx, query,
		offer.AmountCents,
		split,
		offer.Accepted,
		offer.Active,
		offer.AcceptedDate,
		offer.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *offerRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id=$1`
	offer, err := scanOffer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return offer, nil
}

func (r *offerRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE ticket_id=$1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *offer)
	}
	return result, rows.Err()
}

func (r *offerRepository) ActiveAccepted(ctx context.Context, ticketID string) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE ticket_id=$1 AND accepted=true AND active=true`
	offer, err := scanOffer(r.db.QueryRow(ctx, query, ticketID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return offer, nil
}

func (r *offerRepository) DeactivateRejected(ctx context.Context, ticketID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE offers SET active=false, updated_at=NOW() WHERE ticket_id=$1 AND accepted=false AND active=true`,
		ticketID)
	return err
}

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var offer domain.Offer
	var split []byte
	if err := row.Scan(
		&offer.ID,
		&offer.TicketID,
		&offer.RequestID,
		&offer.CompanyID,
		&offer.AmountCents,
		&split,
		&offer.Accepted,
		&offer.Active,
		&offer.AcceptedDate,
		&offer.CreatedAt,
		&offer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(split) > 0 {
		if err := json.Unmarshal(split, &offer.PriceSplit); err != nil {
			return nil, err
		}
	}
	return &offer, nil
}
