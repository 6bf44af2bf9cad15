package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/damage-service/internal/domain"
)

// ApartmentRepository provides read access to rental-unit master data.
type ApartmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Apartment, error)
}

type apartmentRepository struct {
	db DB
}

// NewApartmentRepository instantiates the repository.
func NewApartmentRepository(db DB) ApartmentRepository {
	return &apartmentRepository{db: db}
}

func (r *apartmentRepository) GetByID(ctx context.Context, id string) (*domain.Apartment, error) {
	const query = `
        SELECT id, object_id, label, tenant_user_id, owner_user_id, janitor_user_id,
               property_admin_user_id, created_at
        FROM apartments WHERE id=$1`
	var apartment domain.Apartment
	err := r.db.QueryRow(ctx, query, id).Scan(
		&apartment.ID,
		&apartment.ObjectID,
		&apartment.Label,
		&apartment.TenantUserID,
		&apartment.OwnerUserID,
		&apartment.JanitorUserID,
		&apartment.PropertyAdminID,
		&apartment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &apartment, nil
}
