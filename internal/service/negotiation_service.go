package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/damage-service/internal/domain"
	"github.com/spec-kit/damage-service/internal/events"
	"github.com/spec-kit/damage-service/internal/repository"
)

// NegotiationService drives the quote/accept/reject/schedule sub-protocol
// between a stakeholder and a repair company. Every operation runs inside one
// unit of work layered on the transition engine's guard chain.
type NegotiationService struct {
	uow        repository.UnitOfWork
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNegotiationService constructs the service.
func NewNegotiationService(uow repository.UnitOfWork, dispatcher events.Dispatcher, logger *zap.Logger) *NegotiationService {
	return &NegotiationService{uow: uow, dispatcher: dispatcher, logger: logger}
}

// RequestCompany routes a ticket to a company for quoting or direct repair.
// The ticket moves to the actor role's SEND_TO_COMPANY variant and the new
// request becomes the single active one.
func (n *NegotiationService) RequestCompany(ctx context.Context, ticketID, companyID string, actor Actor, withOffer bool, companyEmail *string) (*domain.DamageRequest, error) {
	action := domain.ActionSendToCompanyWithout
	if withOffer {
		action = domain.ActionSendToCompanyWith
	}
	role := stakeholderRoleOf(actor)
	target := domain.StakeholderStatus(role, action)

	var request *domain.DamageRequest
	err := n.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		ticket, err := s.Tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if _, err := s.Companies.GetByID(ctx, companyID); err != nil {
			return err
		}
		// Retire a previous round before opening the next one.
		if prior, err := s.Requests.ActiveForTicket(ctx, ticketID); err == nil {
			prior.Active = false
			if err := s.Requests.Update(ctx, prior); err != nil {
				return err
			}
		}

		request = &domain.DamageRequest{
			TicketID:      ticketID,
			CompanyID:     companyID,
			State:         domain.RequestStateRequested,
			WithOffer:     withOffer,
			CompanyEmail:  companyEmail,
			RequestedDate: time.Now(),
			Active:        true,
		}
		if err := s.Requests.Create(ctx, request); err != nil {
			return err
		}

		ticket.AssignedCompanyID = &companyID
		_, _, err = applyTransition(ctx, s, ticket, target, actor, "", entryRefs{RequestID: &request.ID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// SubmitOffer records a company's priced proposal against the active request
// and hands the ball back to the requesting stakeholder.
func (n *NegotiationService) SubmitOffer(ctx context.Context, requestID string, actor Actor, amountCents int64, split []domain.PriceSplitItem) (*domain.Offer, error) {
	var offer *domain.Offer
	err := n.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		request, err := s.Requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if request.State != domain.RequestStateRequested && request.State != domain.RequestStateNewOfferRequested {
			return fmt.Errorf("%w: request %s is %s", domain.ErrInvalidTransition, request.ID, request.State)
		}
		ticket, err := s.Tickets.GetByID(ctx, request.TicketID)
		if err != nil {
			return err
		}

		// A replacement offer deactivates a previously rejected one, never
		// an accepted one.
		if err := s.Offers.DeactivateRejected(ctx, ticket.ID); err != nil {
			return err
		}

		offer = &domain.Offer{
			TicketID:    ticket.ID,
			RequestID:   request.ID,
			CompanyID:   request.CompanyID,
			AmountCents: amountCents,
			PriceSplit:  split,
			Active:      true,
		}
		if err := s.Offers.Create(ctx, offer); err != nil {
			return err
		}

		request.State = domain.RequestStateOfferGiven
		if err := s.Requests.Update(ctx, request); err != nil {
			return err
		}

		target := domain.CompanyGiveOfferTo(stakeholderTarget(ticket))
		_, _, err = applyTransition(ctx, s, ticket, target, actor, "", entryRefs{OfferID: &offer.ID, RequestID: &request.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	n.publishOffer(ctx, events.EventOfferSubmitted, offer, nil)
	return offer, nil
}

// RespondToOffer accepts or rejects an offer. Rejection requires a comment
// and reopens the request for a new offer or re-request.
func (n *NegotiationService) RespondToOffer(ctx context.Context, offerID string, actor Actor, accept bool, comment string) (*domain.Offer, error) {
	role := stakeholderRoleOf(actor)
	var offer *domain.Offer
	err := n.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		var err error
		offer, err = s.Offers.GetByID(ctx, offerID)
		if err != nil {
			return err
		}
		ticket, err := s.Tickets.GetByID(ctx, offer.TicketID)
		if err != nil {
			return err
		}
		request, err := s.Requests.GetByID(ctx, offer.RequestID)
		if err != nil {
			return err
		}

		if accept {
			if existing, err := s.Offers.ActiveAccepted(ctx, ticket.ID); err == nil && existing.ID != offer.ID {
				return fmt.Errorf("%w: ticket %s already has accepted offer %s", domain.ErrInvalidTransition, ticket.ID, existing.ID)
			}
			now := time.Now()
			offer.Accepted = true
			offer.AcceptedDate = &now
			request.State = domain.RequestStateAccepted
			target := domain.StakeholderStatus(role, domain.ActionAcceptsTheOffer)
			if _, _, err := applyTransition(ctx, s, ticket, target, actor, comment, entryRefs{OfferID: &offer.ID, RequestID: &request.ID}); err != nil {
				return err
			}
		} else {
			now := time.Now()
			offer.Active = false
			request.State = domain.RequestStateNewOfferRequested
			request.NewOfferRequestedDate = &now
			request.RequestRejectDate = &now
			target := domain.StakeholderStatus(role, domain.ActionRejectsTheOffer)
			if _, _, err := applyTransition(ctx, s, ticket, target, actor, comment, entryRefs{OfferID: &offer.ID, RequestID: &request.ID}); err != nil {
				return err
			}
		}

		if err := s.Offers.Update(ctx, offer); err != nil {
			return err
		}
		return s.Requests.Update(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	n.publishOffer(ctx, events.EventOfferAnswered, offer, &accept)
	return offer, nil
}

// ProposeAppointment records a company's repair date for the active request.
func (n *NegotiationService) ProposeAppointment(ctx context.Context, requestID string, actor Actor, scheduledTime time.Time) (*domain.Appointment, error) {
	var appointment *domain.Appointment
	err := n.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		request, err := s.Requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		switch request.State {
		case domain.RequestStateAccepted, domain.RequestStateDateRejected, domain.RequestStateScheduled:
		default:
			return fmt.Errorf("%w: request %s is %s", domain.ErrInvalidTransition, request.ID, request.State)
		}
		ticket, err := s.Tickets.GetByID(ctx, request.TicketID)
		if err != nil {
			return err
		}

		appointment = &domain.Appointment{
			TicketID:      ticket.ID,
			RequestID:     request.ID,
			ScheduledTime: scheduledTime,
			Status:        domain.AppointmentProposed,
		}
		if err := s.Appointments.Create(ctx, appointment); err != nil {
			return err
		}

		request.State = domain.RequestStateScheduled
		if err := s.Requests.Update(ctx, request); err != nil {
			return err
		}

		target := domain.CompanyProposeDateTo(stakeholderTarget(ticket))
		_, _, err = applyTransition(ctx, s, ticket, target, actor, "", entryRefs{RequestID: &request.ID})
		return err
	})
	if err != nil {
		return nil, err
	}

	n.publishAppointment(ctx, events.EventAppointmentProposed, appointment, nil)
	return appointment, nil
}

// RespondToAppointment accepts or rejects the proposed repair date. An
// accepted date gates eligibility for REPAIR_CONFIRMED.
func (n *NegotiationService) RespondToAppointment(ctx context.Context, appointmentID string, actor Actor, accept bool, comment string) (*domain.Appointment, error) {
	role := stakeholderRoleOf(actor)
	var appointment *domain.Appointment
	err := n.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		var err error
		appointment, err = s.Appointments.GetByID(ctx, appointmentID)
		if err != nil {
			return err
		}
		if appointment.Status != domain.AppointmentProposed {
			return fmt.Errorf("%w: appointment %s already %s", domain.ErrInvalidTransition, appointment.ID, appointment.Status)
		}
		ticket, err := s.Tickets.GetByID(ctx, appointment.TicketID)
		if err != nil {
			return err
		}
		request, err := s.Requests.GetByID(ctx, appointment.RequestID)
		if err != nil {
			return err
		}

		var target domain.StatusKey
		if accept {
			appointment.Status = domain.AppointmentAccepted
			request.State = domain.RequestStateDateAccepted
			target = domain.StakeholderStatus(role, domain.ActionAcceptsTheDate)
		} else {
			appointment.Status = domain.AppointmentRejected
			request.State = domain.RequestStateDateRejected
			target = domain.StakeholderStatus(role, domain.ActionRejectsTheDate)
		}
		if _, _, err := applyTransition(ctx, s, ticket, target, actor, comment, entryRefs{RequestID: &request.ID}); err != nil {
			return err
		}
		if err := s.Appointments.Update(ctx, appointment); err != nil {
			return err
		}
		return s.Requests.Update(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	n.publishAppointment(ctx, events.EventAppointmentAnswered, appointment, &accept)
	return appointment, nil
}

// ConfirmRepair marks the repair done after an accepted appointment.
func (n *NegotiationService) ConfirmRepair(ctx context.Context, ticketID string, actor Actor) error {
	return n.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		ticket, err := s.Tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		request, err := s.Requests.ActiveForTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if request.State != domain.RequestStateDateAccepted {
			return fmt.Errorf("%w: repair confirmation needs an accepted date, request is %s", domain.ErrInvalidTransition, request.State)
		}
		request.State = domain.RequestStateRepairConfirmed
		if err := s.Requests.Update(ctx, request); err != nil {
			return err
		}
		_, _, err = applyTransition(ctx, s, ticket, domain.StatusRepairConfirmed, actor, "", entryRefs{RequestID: &request.ID})
		return err
	})
}

// RaiseDefect records the underlying defect exactly once per ticket,
// independent of the offer state.
func (n *NegotiationService) RaiseDefect(ctx context.Context, ticketID string, actor Actor, description string) (*domain.Defect, error) {
	var defect *domain.Defect
	err := n.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		ticket, err := s.Tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		defect = &domain.Defect{
			TicketID:    ticketID,
			Description: description,
			RaisedByID:  actor.UserID,
		}
		if err := s.Defects.Create(ctx, defect); err != nil {
			return err
		}
		var refs entryRefs
		if request, err := s.Requests.ActiveForTicket(ctx, ticketID); err == nil {
			refs.RequestID = &request.ID
		}
		_, _, err = applyTransition(ctx, s, ticket, domain.StatusDefectRaised, actor, description, refs)
		return err
	})
	if err != nil {
		return nil, err
	}

	if n.dispatcher != nil {
		event := events.NewEvent(events.EventDefectRaised, defect.TicketID,
			events.Actor{UserID: actor.UserID, Role: actor.Role}, nil)
		if err := n.dispatcher.Publish(ctx, event); err != nil {
			n.logger.Warn("event publish failed", zap.String("ticket_id", defect.TicketID), zap.Error(err))
		}
	}
	return defect, nil
}

// stakeholderRoleOf maps an admin actor onto the property administrator
// stakeholder lane; everyone else negotiates in their own role.
func stakeholderRoleOf(actor Actor) domain.Role {
	if actor.Role == domain.RoleAdmin {
		return domain.RolePropertyAdmin
	}
	return actor.Role
}

// stakeholderTarget picks the stakeholder a company status addresses: the
// current responsible role when it is a stakeholder, else the creator role.
func stakeholderTarget(ticket *domain.Ticket) domain.Role {
	if ticket.ResponsibleRole.IsStakeholder() {
		return ticket.ResponsibleRole
	}
	return ticket.CreatedByRole
}

func (n *NegotiationService) publishOffer(ctx context.Context, eventType events.EventType, offer *domain.Offer, accepted *bool) {
	if n.dispatcher == nil || offer == nil {
		return
	}
	event := events.NewEvent(eventType, offer.TicketID, events.Actor{}, events.OfferPayload{
		OfferID:     offer.ID,
		RequestID:   offer.RequestID,
		AmountCents: offer.AmountCents,
		Accepted:    accepted,
	})
	if err := n.dispatcher.Publish(ctx, event); err != nil {
		n.logger.Warn("event publish failed", zap.String("ticket_id", offer.TicketID), zap.Error(err))
	}
}

func (n *NegotiationService) publishAppointment(ctx context.Context, eventType events.EventType, appointment *domain.Appointment, accepted *bool) {
	if n.dispatcher == nil || appointment == nil {
		return
	}
	event := events.NewEvent(eventType, appointment.TicketID, events.Actor{}, events.AppointmentPayload{
		AppointmentID: appointment.ID,
		ScheduledTime: appointment.ScheduledTime,
		Accepted:      accepted,
	})
	if err := n.dispatcher.Publish(ctx, event); err != nil {
		n.logger.Warn("event publish failed", zap.String("ticket_id", appointment.TicketID), zap.Error(err))
	}
}
