package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/damage-service/internal/api/http/handlers"
	"github.com/spec-kit/damage-service/internal/auth"
	"github.com/spec-kit/damage-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Negotiation    *handlers.NegotiationHandler
	Messages       *handlers.MessagesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("", auth.RequireStakeholder(), cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/transition", cfg.Tickets.Transition)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Delete("/:id", auth.RequireRole(domain.RoleAdmin, domain.RolePropertyAdmin), cfg.Tickets.Delete)

	tickets.Post("/:id/messages", cfg.Messages.Post)
	tickets.Get("/:id/messages", cfg.Messages.List)

	tickets.Post("/:id/requests", auth.RequireStakeholder(), cfg.Negotiation.RequestCompany)
	tickets.Post("/:id/repair-confirmation", auth.RequireCompany(), cfg.Negotiation.ConfirmRepair)
	tickets.Post("/:id/defects", auth.RequireCompany(), cfg.Negotiation.RaiseDefect)

	api.Post("/requests/:id/offers", auth.RequireCompany(), cfg.Negotiation.SubmitOffer)
	api.Post("/requests/:id/appointments", auth.RequireCompany(), cfg.Negotiation.ProposeAppointment)
	api.Post("/offers/:id/answer", auth.RequireStakeholder(), cfg.Negotiation.AnswerOffer)
	api.Post("/appointments/:id/answer", auth.RequireStakeholder(), cfg.Negotiation.AnswerAppointment)
	api.Post("/messages/:id/read", cfg.Messages.MarkRead)
}
