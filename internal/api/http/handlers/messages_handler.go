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
	apperrors "github.com/spec-kit/damage-service/pkg/util/errorutil"
)

// MessagesHandler exposes the ticket comment thread.
type MessagesHandler struct {
	uow repository.UnitOfWork
}

// NewMessagesHandler constructs the handler.
func NewMessagesHandler(uow repository.UnitOfWork) *MessagesHandler {
	return &MessagesHandler{uow: uow}
}

// Post POST /tickets/:id/messages.
func (h *MessagesHandler) Post(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PostMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}

	message := &domain.TicketMessage{
		TicketID:     c.Params("id"),
		AuthorUserID: principal.User.ID,
		AuthorRole:   principal.Role,
		Body:         req.Body,
	}
	err := h.uow.Do(c.UserContext(), func(ctx context.Context, s repository.Stores) error {
		ticket, err := s.Tickets.GetByID(ctx, message.TicketID)
		if err != nil {
			return err
		}
		if ticket.Deleted {
			return domain.ErrTicketDeleted
		}
		return s.Messages.Create(ctx, message)
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(message)})
}

// List GET /tickets/:id/messages.
func (h *MessagesHandler) List(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var messages []domain.TicketMessage
	err := h.uow.Do(c.UserContext(), func(ctx context.Context, s repository.Stores) error {
		if _, err := s.Tickets.GetByID(ctx, c.Params("id")); err != nil {
			return err
		}
		var err error
		messages, err = s.Messages.ListByTicket(ctx, c.Params("id"))
		return err
	})
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, messageResponse(&messages[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkRead POST /messages/:id/read.
func (h *MessagesHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	receipt := &domain.ReadReceipt{
		MessageID: c.Params("id"),
		UserID:    principal.User.ID,
	}
	err := h.uow.Do(c.UserContext(), func(ctx context.Context, s repository.Stores) error {
		return s.Messages.MarkRead(ctx, receipt)
	})
	if err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func messageResponse(message *domain.TicketMessage) dto.MessageResponse {
	return dto.MessageResponse{
		ID:           message.ID,
		TicketID:     message.TicketID,
		AuthorUserID: message.AuthorUserID,
		AuthorRole:   message.AuthorRole,
		Body:         message.Body,
		Archived:     message.Archived,
		CreatedAt:    message.CreatedAt,
	}
}
