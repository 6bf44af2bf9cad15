package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/damage-service/internal/domain"
)

// ContractRepository encapsulates rental-contract persistence for the
// contract lifecycle jobs.
type ContractRepository interface {
	Create(ctx context.Context, contract *domain.Contract) error
	Update(ctx context.Context, contract *domain.Contract) error
	// ActiveForObject returns the single active contract of an object, or
	// domain.ErrNotFound.
	ActiveForObject(ctx context.Context, objectID string) (*domain.Contract, error)
	// NextFutureForObject returns the future contract with the earliest
	// start date, or domain.ErrNotFound.
	NextFutureForObject(ctx context.Context, objectID string) (*domain.Contract, error)
	// ObjectsWithDueFuture lists object ids having a future contract whose
	// start date has passed.
	ObjectsWithDueFuture(ctx context.Context, now time.Time) ([]string, error)
	// ObjectsWithExpiredActive lists object ids having an active contract
	// whose end date has passed.
	ObjectsWithExpiredActive(ctx context.Context, now time.Time) ([]string, error)
}

type contractRepository struct {
	db DB
}

// NewContractRepository instantiates the repository.
func NewContractRepository(db DB) ContractRepository {
	return &contractRepository{db: db}
}

const contractColumns = `id, object_id, tenant_id, status, start_date, end_date, created_at, updated_at`

func (r *contractRepository) Create(ctx context.Context, contract *domain.Contract) error {
	const query = `
        INSERT INTO contracts (object_id, tenant_id, status, start_date, end_date)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		contract.ObjectID,
		contract.TenantID,
		contract.Status,
		contract.StartDate,
		contract.EndDate,
	).Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt)
}

func (r *contractRepository) Update(ctx context.Context, contract *domain.Contract) error {
	const query = `
        UPDATE contracts SET status=$1, start_date=$2, end_date=$3, updated_at=NOW() WHERE id=$4`
	cmd, err := r.db.Exec(ctx, query,
		contract.Status,
		contract.StartDate,
		contract.EndDate,
		contract.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *contractRepository) ActiveForObject(ctx context.Context, objectID string) (*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE object_id=$1 AND status=$2`
	return r.fetchSingle(ctx, query, objectID, domain.ContractActive)
}

func (r *contractRepository) NextFutureForObject(ctx context.Context, objectID string) (*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts
        WHERE object_id=$1 AND status=$2 ORDER BY start_date ASC LIMIT 1`
	return r.fetchSingle(ctx, query, objectID, domain.ContractFuture)
}

func (r *contractRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Contract, error) {
	var contract domain.Contract
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&contract.ID,
		&contract.ObjectID,
		&contract.TenantID,
		&contract.Status,
		&contract.StartDate,
		&contract.EndDate,
		&contract.CreatedAt,
		&contract.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) ObjectsWithDueFuture(ctx context.Context, now time.Time) ([]string, error) {
	const query = `
        SELECT DISTINCT object_id FROM contracts
        WHERE status=$1 AND start_date <= $2
        ORDER BY object_id`
	return r.listObjectIDs(ctx, query, domain.ContractFuture, now)
}

func (r *contractRepository) ObjectsWithExpiredActive(ctx context.Context, now time.Time) ([]string, error) {
	const query = `
        SELECT DISTINCT object_id FROM contracts
        WHERE status=$1 AND end_date IS NOT NULL AND end_date < $2
        ORDER BY object_id`
	return r.listObjectIDs(ctx, query, domain.ContractActive, now)
}

func (r *contractRepository) listObjectIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}
