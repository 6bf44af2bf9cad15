package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/damage-service/internal/domain"
	"github.com/spec-kit/damage-service/internal/repository"
)

// ArchiveResult summarizes one archive batch.
type ArchiveResult struct {
	Tickets  int
	Messages int64
	Failures int
}

// ArchiveService marks the messages of long-closed tickets as archived.
// Safe to invoke repeatedly; already-archived messages are skipped.
type ArchiveService struct {
	uow       repository.UnitOfWork
	logger    *zap.Logger
	retention time.Duration
}

// NewArchiveService constructs the service.
func NewArchiveService(uow repository.UnitOfWork, logger *zap.Logger, retention time.Duration) *ArchiveService {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	return &ArchiveService{uow: uow, logger: logger, retention: retention}
}

// ArchiveClosedTicketMessages archives messages of tickets closed longer ago
// than the retention window. Per-ticket failures are logged and skipped.
func (a *ArchiveService) ArchiveClosedTicketMessages(ctx context.Context, now time.Time) (ArchiveResult, error) {
	cutoff := now.Add(-a.retention)

	var tickets []domain.Ticket
	err := a.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		var err error
		tickets, err = s.Tickets.ListClosedBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return ArchiveResult{}, err
	}

	result := ArchiveResult{Tickets: len(tickets)}
	for _, ticket := range tickets {
		var archived int64
		err := a.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
			var err error
			archived, err = s.Messages.ArchiveByTicket(ctx, ticket.ID)
			return err
		})
		if err != nil {
			result.Failures++
			a.logger.Error("message archive failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		result.Messages += archived
	}
	return result, nil
}
