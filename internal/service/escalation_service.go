package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/damage-service/internal/domain"
	"github.com/spec-kit/damage-service/internal/events"
	"github.com/spec-kit/damage-service/internal/repository"
)

// DefaultAlertDays is the shared day-offset table used by both escalation
// jobs. It is configurable but deliberately single-sourced.
var DefaultAlertDays = []int{1, 2, 4, 7, 14, 21, 28}

// EscalationConfig controls the scan cadence and the alert-day table.
type EscalationConfig struct {
	AlertDays   []int
	RunInterval time.Duration
}

// EscalationResult summarizes one scan.
type EscalationResult struct {
	Scanned   int
	Reminders int
	Failures  int
}

// EscalationService scans stalled tickets and fires reminder notifications
// at fixed day offsets, exactly once per offset. A reminder fires iff its
// alert instant falls inside the current run window (now-interval, now]; the
// audit log backstops idempotency against overlapping windows.
type EscalationService struct {
	uow           repository.UnitOfWork
	notifications *NotificationService
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	cfg           EscalationConfig

	// mu serializes scans; the scheduler must never run concurrently with
	// itself.
	mu sync.Mutex
}

// NewEscalationService constructs the service.
func NewEscalationService(uow repository.UnitOfWork, notifications *NotificationService, dispatcher events.Dispatcher, logger *zap.Logger, cfg EscalationConfig) *EscalationService {
	if len(cfg.AlertDays) == 0 {
		cfg.AlertDays = DefaultAlertDays
	}
	if cfg.RunInterval <= 0 {
		cfg.RunInterval = time.Hour
	}
	return &EscalationService{
		uow:           uow,
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
		cfg:           cfg,
	}
}

// EscalateUnresponsiveCompanies scans tickets awaiting a company response.
func (s *EscalationService) EscalateUnresponsiveCompanies(ctx context.Context, now time.Time) (EscalationResult, error) {
	return s.scan(ctx, now, domain.AwaitingCompanyStatuses())
}

// EscalateUnresponsiveDamages scans tickets awaiting a stakeholder response.
func (s *EscalationService) EscalateUnresponsiveDamages(ctx context.Context, now time.Time) (EscalationResult, error) {
	return s.scan(ctx, now, domain.AwaitingStakeholderStatuses())
}

// scan uses one `now` for the whole run so a long scan cannot straddle two
// alert-day windows. Per-ticket failures are logged and skipped; the batch
// self-heals on the next run.
func (s *EscalationService) scan(ctx context.Context, now time.Time, statuses []domain.StatusKey) (EscalationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tickets []domain.Ticket
	err := s.uow.Do(ctx, func(ctx context.Context, st repository.Stores) error {
		var err error
		tickets, err = st.Tickets.ListByStatuses(ctx, statuses)
		return err
	})
	if err != nil {
		return EscalationResult{}, err
	}

	result := EscalationResult{Scanned: len(tickets)}
	for i := range tickets {
		ticket := tickets[i]
		fired, err := s.escalateTicket(ctx, &ticket, now)
		if err != nil {
			result.Failures++
			s.logger.Error("escalation failed for ticket",
				zap.String("ticket_id", ticket.ID),
				zap.Time("scan_time", now),
				zap.Error(err))
			continue
		}
		result.Reminders += fired
	}
	return result, nil
}

func (s *EscalationService) escalateTicket(ctx context.Context, ticket *domain.Ticket, now time.Time) (int, error) {
	fired := 0
	err := s.uow.Do(ctx, func(ctx context.Context, st repository.Stores) error {
		last, err := st.Log.LastStatusEntry(ctx, ticket.ID)
		if err != nil {
			return err
		}
		compareTime := last.CreatedAt

		for _, day := range s.cfg.AlertDays {
			alertInstant := compareTime.AddDate(0, 0, day)
			if !withinRunWindow(alertInstant, now, s.cfg.RunInterval) {
				continue
			}
			exists, err := st.Log.HasReminder(ctx, ticket.ID, day, compareTime)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			alertDay := day
			entry := &domain.LogEntry{
				TicketID:     ticket.ID,
				Kind:         domain.LogKindReminder,
				Status:       ticket.Status,
				ActorUserID:  "",
				ActorRole:    domain.RoleAdmin,
				Responsibles: responsiblesSnapshot(ticket),
				AlertDay:     &alertDay,
			}
			if err := st.Log.Append(ctx, entry); err != nil {
				return err
			}

			recipient, err := resolveNotifyUser(ctx, st, ticket)
			if err != nil {
				return err
			}
			if recipient != nil {
				s.notifications.NotifyReminder(ctx, ticket, *recipient, day)
			}
			s.publishReminder(ctx, ticket, day)
			fired++
		}
		return nil
	})
	return fired, err
}

// withinRunWindow reports whether the alert instant falls in
// (now-interval, now]. With a regular, non-overlapping cadence each instant
// belongs to exactly one window, which makes the offset check idempotent.
func withinRunWindow(alertInstant, now time.Time, interval time.Duration) bool {
	return alertInstant.After(now.Add(-interval)) && !alertInstant.After(now)
}

func (s *EscalationService) publishReminder(ctx context.Context, ticket *domain.Ticket, alertDay int) {
	if s.dispatcher == nil {
		return
	}
	event := events.NewEvent(events.EventReminderFired, ticket.ID, events.Actor{Role: domain.RoleAdmin},
		events.ReminderPayload{AlertDay: alertDay, Status: ticket.Status})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}
