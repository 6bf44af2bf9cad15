package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Stores bundles every repository bound to one database handle. Inside a
// unit of work all stores share the same transaction.
type Stores struct {
	Tickets      TicketRepository
	Offers       OfferRepository
	Requests     RequestRepository
	Appointments AppointmentRepository
	Defects      DefectRepository
	Log          LogRepository
	Messages     MessageRepository
	Contracts    ContractRepository
	Users        UserRepository
	Companies    CompanyRepository
	Apartments   ApartmentRepository
}

// NewStores builds the repository set over a pool or transaction handle.
func NewStores(db DB) Stores {
	return Stores{
		Tickets:      NewTicketRepository(db),
		Offers:       NewOfferRepository(db),
		Requests:     NewRequestRepository(db),
		Appointments: NewAppointmentRepository(db),
		Defects:      NewDefectRepository(db),
		Log:          NewLogRepository(db),
		Messages:     NewMessageRepository(db),
		Contracts:    NewContractRepository(db),
		Users:        NewUserRepository(db),
		Companies:    NewCompanyRepository(db),
		Apartments:   NewApartmentRepository(db),
	}
}

// UnitOfWork runs a function against a transactional repository set and
// commits exactly once. Any error rolls the whole operation back, so a
// transition's status change and log append are never half-applied.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

type pgxUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork builds the pgx-backed unit of work.
func NewUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return &pgxUnitOfWork{pool: pool}
}

func (u *pgxUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, NewStores(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
