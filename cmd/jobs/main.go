package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/damage-service/internal/config"
	"github.com/spec-kit/damage-service/internal/events"
	"github.com/spec-kit/damage-service/internal/observability"
	"github.com/spec-kit/damage-service/internal/persistence"
	"github.com/spec-kit/damage-service/internal/repository"
	"github.com/spec-kit/damage-service/internal/service"
)

// jobContext bundles everything a batch command needs.
type jobContext struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *observability.Metrics
	pg         *persistence.Postgres
	contracts  *service.ContractService
	escalation *service.EscalationService
	archive    *service.ArchiveService
	shutdown   func()
}

func main() {
	root := &cobra.Command{
		Use:   "jobs",
		Short: "Batch jobs for the damage ticket service",
	}

	root.AddCommand(
		jobCommand("activate-future-contracts", "Activate future contracts whose start date has passed",
			func(ctx context.Context, jc *jobContext) error {
				result, err := jc.contracts.ActivateFutureContracts(ctx, time.Now())
				if err != nil {
					return err
				}
				jc.metrics.RecordJobRun("activate-future-contracts", result.Failures)
				jc.logger.Info("contract activation done",
					zap.Int("objects", result.Objects),
					zap.Int("changed", result.Changed),
					zap.Int("failures", result.Failures))
				return nil
			}),
		jobCommand("terminate-contracts", "Archive active contracts whose end date has passed",
			func(ctx context.Context, jc *jobContext) error {
				result, err := jc.contracts.TerminateContracts(ctx, time.Now())
				if err != nil {
					return err
				}
				jc.metrics.RecordJobRun("terminate-contracts", result.Failures)
				jc.logger.Info("contract termination done",
					zap.Int("objects", result.Objects),
					zap.Int("changed", result.Changed),
					zap.Int("failures", result.Failures))
				return nil
			}),
		jobCommand("escalate-unresponsive-companies", "Remind companies sitting on open requests",
			func(ctx context.Context, jc *jobContext) error {
				result, err := jc.escalation.EscalateUnresponsiveCompanies(ctx, time.Now())
				if err != nil {
					return err
				}
				jc.metrics.RecordJobRun("escalate-unresponsive-companies", result.Failures)
				jc.logger.Info("company escalation done",
					zap.Int("scanned", result.Scanned),
					zap.Int("reminders", result.Reminders),
					zap.Int("failures", result.Failures))
				return nil
			}),
		jobCommand("escalate-unresponsive-damages", "Remind stakeholders sitting on pending decisions",
			func(ctx context.Context, jc *jobContext) error {
				result, err := jc.escalation.EscalateUnresponsiveDamages(ctx, time.Now())
				if err != nil {
					return err
				}
				jc.metrics.RecordJobRun("escalate-unresponsive-damages", result.Failures)
				jc.logger.Info("damage escalation done",
					zap.Int("scanned", result.Scanned),
					zap.Int("reminders", result.Reminders),
					zap.Int("failures", result.Failures))
				return nil
			}),
		jobCommand("archive-closed-ticket-messages", "Archive messages of long-closed tickets",
			func(ctx context.Context, jc *jobContext) error {
				result, err := jc.archive.ArchiveClosedTicketMessages(ctx, time.Now())
				if err != nil {
					return err
				}
				jc.metrics.RecordJobRun("archive-closed-ticket-messages", result.Failures)
				jc.logger.Info("message archive done",
					zap.Int("tickets", result.Tickets),
					zap.Int64("messages", result.Messages),
					zap.Int("failures", result.Failures))
				return nil
			}),
		daemonCommand(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func jobCommand(name, short string, run func(context.Context, *jobContext) error) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jc, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer jc.shutdown()
			return run(cmd.Context(), jc)
		},
	}
}

// daemonCommand runs every job on its cron schedule until interrupted.
func daemonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run all batch jobs on their configured schedules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			jc, err := setup(ctx)
			if err != nil {
				return err
			}
			defer jc.shutdown()

			scheduler := cron.New()
			schedule := func(spec, name string, run func(context.Context, *jobContext) error) error {
				_, err := scheduler.AddFunc(spec, func() {
					if err := run(ctx, jc); err != nil {
						jc.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
					}
				})
				return err
			}

			if err := schedule(jc.cfg.Jobs.ContractSchedule, "terminate-contracts", func(ctx context.Context, jc *jobContext) error {
				if _, err := jc.contracts.TerminateContracts(ctx, time.Now()); err != nil {
					return err
				}
				_, err := jc.contracts.ActivateFutureContracts(ctx, time.Now())
				return err
			}); err != nil {
				return err
			}
			if err := schedule(jc.cfg.Jobs.EscalationSchedule, "escalation", func(ctx context.Context, jc *jobContext) error {
				if _, err := jc.escalation.EscalateUnresponsiveCompanies(ctx, time.Now()); err != nil {
					return err
				}
				_, err := jc.escalation.EscalateUnresponsiveDamages(ctx, time.Now())
				return err
			}); err != nil {
				return err
			}
			if err := schedule(jc.cfg.Jobs.ArchiveSchedule, "archive-closed-ticket-messages", func(ctx context.Context, jc *jobContext) error {
				_, err := jc.archive.ArchiveClosedTicketMessages(ctx, time.Now())
				return err
			}); err != nil {
				return err
			}

			scheduler.Start()
			jc.logger.Info("job daemon started",
				zap.String("contracts", jc.cfg.Jobs.ContractSchedule),
				zap.String("escalation", jc.cfg.Jobs.EscalationSchedule),
				zap.String("archive", jc.cfg.Jobs.ArchiveSchedule))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			jc.logger.Info("shutting down", zap.String("signal", sig.String()))

			stopCtx := scheduler.Stop()
			<-stopCtx.Done()
			return nil
		},
	}
}

func setup(ctx context.Context) (*jobContext, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, err
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}

	redis := persistence.NewRedis(cfg.Redis, logger)

	uow := repository.NewUnitOfWork(pg.PoolHandle())
	dispatcher := events.NewInMemoryDispatcher()
	queue := persistence.NewNotificationQueue(redis, cfg.Notification.QueueKey)
	notifications := service.NewNotificationService(queue, uow, logger, cfg.Notification)

	jc := &jobContext{
		cfg:       cfg,
		logger:    logger,
		metrics:   observability.NewMetrics(),
		pg:        pg,
		contracts: service.NewContractService(uow, logger),
		escalation: service.NewEscalationService(uow, notifications, dispatcher, logger, service.EscalationConfig{
			AlertDays:   cfg.Escalation.AlertDays,
			RunInterval: cfg.Escalation.RunInterval(),
		}),
		archive: service.NewArchiveService(uow, logger, cfg.Archive.Retention()),
		shutdown: func() {
			redis.Close()
			pg.Close()
			_ = logger.Sync()
		},
	}
	return jc, nil
}
