package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/damage-service/internal/config"
	"github.com/spec-kit/damage-service/internal/domain"
	"github.com/spec-kit/damage-service/internal/persistence"
)

// NotificationWorker drains the durable queue and delivers notifications.
// Delivery is at-least-once; a failed delivery is logged and the message is
// requeued for a later attempt.
type NotificationWorker struct {
	queue  *persistence.NotificationQueue
	sender Sender
	logger *zap.Logger
}

// Sender delivers a single rendered notification.
type Sender interface {
	Send(ctx context.Context, notification domain.Notification) error
}

// NewNotificationWorker wires the worker.
func NewNotificationWorker(queue *persistence.NotificationQueue, sender Sender, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{queue: queue, sender: sender, logger: logger}
}

// Run blocks and processes notifications until the context is cancelled.
func (w *NotificationWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		notification, err := w.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("notification dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if notification == nil {
			continue
		}

		if err := w.sender.Send(ctx, *notification); err != nil {
			w.logger.Error("notification delivery failed",
				zap.String("ticket_id", notification.RelatedTicketID),
				zap.Error(err))
			if requeueErr := w.queue.Enqueue(ctx, *notification); requeueErr != nil {
				w.logger.Error("notification requeue failed", zap.Error(requeueErr))
			}
			time.Sleep(time.Second)
			continue
		}

		w.logger.Info("notification delivered",
			zap.String("ticket_id", notification.RelatedTicketID),
			zap.String("recipient", notification.RecipientAddress))
	}
}

// LogSender is the development sink. It writes the rendered notification to
// the log instead of an external channel.
type LogSender struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewLogSender builds the sink.
func NewLogSender(logger *zap.Logger, cfg config.NotificationConfig) *LogSender {
	return &LogSender{logger: logger, cfg: cfg}
}

// Send logs the notification.
func (s *LogSender) Send(_ context.Context, notification domain.Notification) error {
	s.logger.Info("notification",
		zap.String("from", s.cfg.EmailFrom),
		zap.String("to", notification.RecipientAddress),
		zap.String("subject", notification.Subject),
		zap.String("ticket_id", notification.RelatedTicketID))
	return nil
}
