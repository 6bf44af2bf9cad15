package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/damage-service/internal/api/dto"
	"github.com/spec-kit/damage-service/internal/auth"
	"github.com/spec-kit/damage-service/internal/domain"
	"github.com/spec-kit/damage-service/internal/repository"
	"github.com/spec-kit/damage-service/internal/service"
	apperrors "github.com/spec-kit/damage-service/pkg/util/errorutil"
)

// TicketsHandler exposes damage ticket endpoints.
type TicketsHandler struct {
	engine *service.TransitionEngine
	notify *service.NotificationService
	uow    repository.UnitOfWork
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(engine *service.TransitionEngine, notify *service.NotificationService, uow repository.UnitOfWork) *TicketsHandler {
	return &TicketsHandler{engine: engine, notify: notify, uow: uow}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ApartmentID) == "" {
		return apperrors.NewValidationError("apartment_id required", nil)
	}

	snapshot, err := h.engine.CreateTicket(c.UserContext(), service.CreateTicketInput{
		Actor:              actorOf(principal),
		ApartmentID:        req.ApartmentID,
		PreferredCompanyID: req.PreferredCompanyID,
		ParentTicketID:     req.ParentTicketID,
		JanitorEnabled:     req.JanitorEnabled,
		Allocation:         req.Allocation,
		Comment:            req.Comment,
	})
	if err != nil {
		return err
	}
	h.notify.NotifyTransition(c.UserContext(), snapshot)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(&snapshot.Ticket, snapshot.Status)})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var ticket *domain.Ticket
	err := h.uow.Do(c.UserContext(), func(ctx context.Context, s repository.Stores) error {
		var err error
		ticket, err = s.Tickets.GetByID(ctx, c.Params("id"))
		return err
	})
	if err != nil {
		return err
	}
	info, err := domain.DescribeStatus(ticket.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, info)})
}

// Transition POST /tickets/:id/transition.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	snapshot, err := h.engine.Transition(c.UserContext(), c.Params("id"), req.Status, actorOf(principal), req.Comment)
	if err != nil {
		return err
	}
	h.notify.NotifyTransition(c.UserContext(), snapshot)
	return c.JSON(fiber.Map{"data": ticketResponse(&snapshot.Ticket, snapshot.Status)})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	entries, err := h.engine.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.LogEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, logEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.engine.SoftDelete(c.UserContext(), c.Params("id"), actorOf(principal)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func actorOf(principal *auth.Principal) service.Actor {
	return service.Actor{UserID: principal.User.ID, Role: principal.Role}
}

func ticketResponse(ticket *domain.Ticket, info domain.StatusInfo) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                 ticket.ID,
		Status:             ticket.Status,
		StatusLabel:        info.Label,
		ApartmentID:        ticket.ApartmentID,
		CreatedByUserID:    ticket.CreatedByUserID,
		CreatedByRole:      ticket.CreatedByRole,
		AssignedCompanyID:  ticket.AssignedCompanyID,
		PreferredCompanyID: ticket.PreferredCompanyID,
		ResponsibleUserID:  ticket.ResponsibleUserID,
		ResponsibleRole:    ticket.ResponsibleRole,
		ParentTicketID:     ticket.ParentTicketID,
		ChildTicketID:      ticket.ChildTicketID,
		JanitorEnabled:     ticket.JanitorEnabled,
		Allocation:         ticket.Allocation,
		Closed:             ticket.IsClosed(),
		Version:            ticket.Version,
		CreatedAt:          ticket.CreatedAt,
		UpdatedAt:          ticket.UpdatedAt,
	}
}

func logEntryResponse(entry *domain.LogEntry) dto.LogEntryResponse {
	return dto.LogEntryResponse{
		ID:           entry.ID,
		Kind:         entry.Kind,
		Status:       entry.Status,
		ActorUserID:  entry.ActorUserID,
		ActorRole:    entry.ActorRole,
		Comment:      entry.Comment,
		OfferID:      entry.OfferID,
		RequestID:    entry.RequestID,
		Responsibles: entry.Responsibles,
		AlertDay:     entry.AlertDay,
		CreatedAt:    entry.CreatedAt,
	}
}
