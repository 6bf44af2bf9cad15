package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/damage-service/internal/api/dto"
	"github.com/spec-kit/damage-service/internal/auth"
	"github.com/spec-kit/damage-service/internal/domain"
	"github.com/spec-kit/damage-service/internal/service"
	apperrors "github.com/spec-kit/damage-service/pkg/util/errorutil"
)

// NegotiationHandler exposes the offer/appointment protocol endpoints.
type NegotiationHandler struct {
	negotiation *service.NegotiationService
}

// NewNegotiationHandler constructs the handler.
func NewNegotiationHandler(negotiation *service.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{negotiation: negotiation}
}

// RequestCompany POST /tickets/:id/requests.
func (h *NegotiationHandler) RequestCompany(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RequestCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CompanyID == "" {
		return apperrors.NewValidationError("company_id required", nil)
	}

	request, err := h.negotiation.RequestCompany(c.UserContext(), c.Params("id"), req.CompanyID, actorOf(principal), req.WithOffer, req.CompanyEmail)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestResponse(request)})
}

// SubmitOffer POST /requests/:id/offers.
func (h *NegotiationHandler) SubmitOffer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SubmitOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AmountCents <= 0 {
		return apperrors.NewValidationError("amount_cents must be positive", nil)
	}

	offer, err := h.negotiation.SubmitOffer(c.UserContext(), c.Params("id"), actorOf(principal), req.AmountCents, req.PriceSplit)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": offerResponse(offer)})
}

// AnswerOffer POST /offers/:id/answer.
func (h *NegotiationHandler) AnswerOffer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	offer, err := h.negotiation.RespondToOffer(c.UserContext(), c.Params("id"), actorOf(principal), req.Accept, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": offerResponse(offer)})
}

// ProposeAppointment POST /requests/:id/appointments.
func (h *NegotiationHandler) ProposeAppointment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ProposeAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ScheduledTime.IsZero() {
		return apperrors.NewValidationError("scheduled_time required", nil)
	}

	appointment, err := h.negotiation.ProposeAppointment(c.UserContext(), c.Params("id"), actorOf(principal), req.ScheduledTime)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": appointmentResponse(appointment)})
}

// AnswerAppointment POST /appointments/:id/answer.
func (h *NegotiationHandler) AnswerAppointment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	appointment, err := h.negotiation.RespondToAppointment(c.UserContext(), c.Params("id"), actorOf(principal), req.Accept, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appointment)})
}

// ConfirmRepair POST /tickets/:id/repair-confirmation.
func (h *NegotiationHandler) ConfirmRepair(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.negotiation.ConfirmRepair(c.UserContext(), c.Params("id"), actorOf(principal)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RaiseDefect POST /tickets/:id/defects.
func (h *NegotiationHandler) RaiseDefect(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RaiseDefectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("description required", nil)
	}

	defect, err := h.negotiation.RaiseDefect(c.UserContext(), c.Params("id"), actorOf(principal), req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": defectResponse(defect)})
}

func requestResponse(request *domain.DamageRequest) dto.DamageRequestResponse {
	return dto.DamageRequestResponse{
		ID:            request.ID,
		TicketID:      request.TicketID,
		CompanyID:     request.CompanyID,
		State:         request.State,
		WithOffer:     request.WithOffer,
		Active:        request.Active,
		RequestedDate: request.RequestedDate,
	}
}

func offerResponse(offer *domain.Offer) dto.OfferResponse {
	return dto.OfferResponse{
		ID:           offer.ID,
		TicketID:     offer.TicketID,
		RequestID:    offer.RequestID,
		CompanyID:    offer.CompanyID,
		AmountCents:  offer.AmountCents,
		PriceSplit:   offer.PriceSplit,
		Accepted:     offer.Accepted,
		Active:       offer.Active,
		AcceptedDate: offer.AcceptedDate,
	}
}

func appointmentResponse(appointment *domain.Appointment) dto.AppointmentResponse {
	return dto.AppointmentResponse{
		ID:            appointment.ID,
		TicketID:      appointment.TicketID,
		RequestID:     appointment.RequestID,
		ScheduledTime: appointment.ScheduledTime,
		Status:        appointment.Status,
	}
}

func defectResponse(defect *domain.Defect) dto.DefectResponse {
	return dto.DefectResponse{
		ID:          defect.ID,
		TicketID:    defect.TicketID,
		Description: defect.Description,
		RaisedByID:  defect.RaisedByID,
	}
}
