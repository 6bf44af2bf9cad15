package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/damage-service/internal/api/http"
	"github.com/spec-kit/damage-service/internal/api/http/handlers"
	"github.com/spec-kit/damage-service/internal/auth"
	"github.com/spec-kit/damage-service/internal/config"
	"github.com/spec-kit/damage-service/internal/events"
	"github.com/spec-kit/damage-service/internal/observability"
	"github.com/spec-kit/damage-service/internal/persistence"
	"github.com/spec-kit/damage-service/internal/repository"
	"github.com/spec-kit/damage-service/internal/service"
	"github.com/spec-kit/damage-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	uow := repository.NewUnitOfWork(pool)
	userRepo := repository.NewUserRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	queue := persistence.NewNotificationQueue(redis, cfg.Notification.QueueKey)
	notifications := service.NewNotificationService(queue, uow, logger, cfg.Notification)
	notifications.RegisterHandlers(dispatcher)
	engine := service.NewTransitionEngine(uow, dispatcher, logger)
	negotiation := service.NewNegotiationService(uow, dispatcher, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(userRepo, tokens),
		Tickets:        handlers.NewTicketsHandler(engine, notifications, uow),
		Negotiation:    handlers.NewNegotiationHandler(negotiation),
		Messages:       handlers.NewMessagesHandler(uow),
		AuthMiddleware: authMiddleware,
	})

	// Delivery worker drains the durable queue in-process.
	sender := worker.NewLogSender(logger, cfg.Notification)
	go worker.NewNotificationWorker(queue, sender, logger).Run(ctx)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
