package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/damage-service/internal/config"
	"github.com/spec-kit/damage-service/internal/domain"
	"github.com/spec-kit/damage-service/internal/events"
	"github.com/spec-kit/damage-service/internal/repository"
)

// NotificationQueue is the durable boundary to the external dispatcher.
type NotificationQueue interface {
	Enqueue(ctx context.Context, notification domain.Notification) error
}

// NotificationService renders ticket notifications and enqueues them for
// at-least-once delivery. Enqueue failures are logged, never propagated, so
// a committed transition is never rolled back by the dispatcher.
type NotificationService struct {
	queue  NotificationQueue
	uow    repository.UnitOfWork
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(queue NotificationQueue, uow repository.UnitOfWork, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{queue: queue, uow: uow, logger: logger, cfg: cfg}
}

// NotifyTransition renders and enqueues the message for a committed
// transition snapshot.
func (n *NotificationService) NotifyTransition(ctx context.Context, snapshot *TicketSnapshot) {
	if snapshot == nil || snapshot.NotifyUserID == nil {
		return
	}
	address, err := n.recipientAddress(ctx, *snapshot.NotifyUserID)
	if err != nil {
		n.logger.Warn("notification recipient lookup failed",
			zap.String("ticket_id", snapshot.Ticket.ID), zap.Error(err))
		return
	}

	notification := domain.Notification{
		RecipientAddress: address,
		Subject:          fmt.Sprintf("Damage ticket %s: %s", shortID(snapshot.Ticket.ID), snapshot.Status.Label),
		Body:             renderTransitionBody(snapshot),
		RelatedTicketID:  snapshot.Ticket.ID,
	}
	n.enqueue(ctx, notification)
}

// RegisterHandlers subscribes the service to negotiation events so those
// transitions notify the new responsible party without threading snapshots
// through every service.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventOfferSubmitted,
		events.EventOfferAnswered,
		events.EventAppointmentProposed,
		events.EventAppointmentAnswered,
		events.EventDefectRaised,
	} {
		dispatcher.Subscribe(eventType, n.handleNegotiationEvent)
	}
}

func (n *NotificationService) handleNegotiationEvent(ctx context.Context, event events.Event) error {
	var ticket *domain.Ticket
	var recipient *string
	err := n.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		var err error
		ticket, err = s.Tickets.GetByID(ctx, event.TicketID)
		if err != nil {
			return err
		}
		recipient, err = resolveNotifyUser(ctx, s, ticket)
		return err
	})
	if err != nil {
		n.logger.Warn("notification event lookup failed",
			zap.String("ticket_id", event.TicketID), zap.Error(err))
		return nil
	}
	if recipient == nil {
		return nil
	}

	info, err := domain.DescribeStatus(ticket.Status)
	if err != nil {
		return nil
	}
	address, err := n.recipientAddress(ctx, *recipient)
	if err != nil {
		n.logger.Warn("notification recipient lookup failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return nil
	}
	n.enqueue(ctx, domain.Notification{
		RecipientAddress: address,
		Subject:          fmt.Sprintf("Damage ticket %s: %s", shortID(ticket.ID), info.Label),
		Body: fmt.Sprintf("Ticket %s is now in state %q. Next action is expected from: %s\n",
			ticket.ID, info.Label, ticket.ResponsibleRole),
		RelatedTicketID: ticket.ID,
	})
	return nil
}

// NotifyReminder renders and enqueues an escalation reminder.
func (n *NotificationService) NotifyReminder(ctx context.Context, ticket *domain.Ticket, recipientUserID string, alertDay int) {
	address, err := n.recipientAddress(ctx, recipientUserID)
	if err != nil {
		n.logger.Warn("reminder recipient lookup failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}

	info, err := domain.DescribeStatus(ticket.Status)
	if err != nil {
		return
	}
	notification := domain.Notification{
		RecipientAddress: address,
		Subject:          fmt.Sprintf("Reminder: damage ticket %s awaits your response", shortID(ticket.ID)),
		Body: fmt.Sprintf("The damage ticket %s has been waiting in state %q for %d day(s). Please respond.",
			ticket.ID, info.Label, alertDay),
		RelatedTicketID: ticket.ID,
	}
	n.enqueue(ctx, notification)
}

func (n *NotificationService) enqueue(ctx context.Context, notification domain.Notification) {
	if n.queue == nil {
		return
	}
	if err := n.queue.Enqueue(ctx, notification); err != nil {
		n.logger.Error("notification enqueue failed",
			zap.String("ticket_id", notification.RelatedTicketID), zap.Error(err))
	}
}

// recipientAddress resolves a user id to an email address, falling back to
// the configured sink when the user has no address.
func (n *NotificationService) recipientAddress(ctx context.Context, userID string) (string, error) {
	var address string
	err := n.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		user, err := s.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		address = user.Email
		return nil
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(address) == "" {
		address = n.cfg.FallbackAddress
	}
	return address, nil
}

func renderTransitionBody(snapshot *TicketSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket %s is now in state %q.\n", snapshot.Ticket.ID, snapshot.Status.Label)
	if snapshot.Entry.Comment != nil {
		fmt.Fprintf(&b, "Comment: %s\n", *snapshot.Entry.Comment)
	}
	if snapshot.Ticket.ResponsibleRole != domain.RoleGuest && snapshot.Ticket.ResponsibleRole != "" {
		fmt.Fprintf(&b, "Next action is expected from: %s\n", snapshot.Ticket.ResponsibleRole)
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
