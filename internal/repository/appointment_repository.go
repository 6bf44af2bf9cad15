package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/damage-service/internal/domain"
)

// AppointmentRepository encapsulates repair-appointment persistence.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *domain.Appointment) error
	Update(ctx context.Context, appointment *domain.Appointment) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	// CurrentForRequest returns the appointment of the active negotiation
	// round, or domain.ErrNotFound.
	CurrentForRequest(ctx context.Context, requestID string) (*domain.Appointment, error)
}

type appointmentRepository struct {
	db DB
}

// NewAppointmentRepository instantiates the repository.
func NewAppointmentRepository(db DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

const appointmentColumns = `id, ticket_id, request_id, scheduled_time, status, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *domain.Appointment) error {
	const query = `
        INSERT INTO appointments (ticket_id, request_id, scheduled_time, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		appointment.TicketID,
		appointment.RequestID,
		appointment.ScheduledTime,
		appointment.Status,
	).Scan(&appointment.ID, &appointment.CreatedAt, &appointment.UpdatedAt)
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *domain.Appointment) error {
	const query = `
        UPDATE appointments SET scheduled_time=$1, status=$2, updated_at=NOW() WHERE id=$3`
	cmd, err := r.db.Exec(ctx, query, appointment.ScheduledTime, appointment.Status, appointment.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *appointmentRepository) CurrentForRequest(ctx context.Context, requestID string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
        WHERE request_id=$1 ORDER BY created_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query, requestID)
}

func (r *appointmentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&appointment.ID,
		&appointment.TicketID,
		&appointment.RequestID,
		&appointment.ScheduledTime,
		&appointment.Status,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &appointment, nil
}
