package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/damage-service/internal/domain"
	"github.com/spec-kit/damage-service/internal/events"
	"github.com/spec-kit/damage-service/internal/repository"
)

// Actor identifies who performs a transition.
type Actor struct {
	UserID string
	Role   domain.Role
}

// TicketSnapshot is the engine's result: the committed ticket state plus the
// log entry it produced, handed to the caller for notification dispatch.
type TicketSnapshot struct {
	Ticket domain.Ticket
	Entry  domain.LogEntry
	Status domain.StatusInfo
	// NotifyUserID is the delegate-resolved notification recipient; nil when
	// no one must act next.
	NotifyUserID *string
}

// entryRefs links a log entry to the offer/request that caused it.
type entryRefs struct {
	OfferID   *string
	RequestID *string
}

// TransitionEngine validates and applies status changes. Every mutation of a
// ticket flows through it inside a single unit of work.
type TransitionEngine struct {
	uow        repository.UnitOfWork
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTransitionEngine constructs the engine.
func NewTransitionEngine(uow repository.UnitOfWork, dispatcher events.Dispatcher, logger *zap.Logger) *TransitionEngine {
	return &TransitionEngine{uow: uow, dispatcher: dispatcher, logger: logger}
}

// CreateTicketInput describes a new damage report.
type CreateTicketInput struct {
	Actor              Actor
	ApartmentID        string
	PreferredCompanyID *string
	ParentTicketID     *string
	JanitorEnabled     bool
	Allocation         bool
	Comment            string
}

// CreateTicket opens a ticket in the actor role's CREATE_DAMAGE status and
// writes the first log entry.
func (e *TransitionEngine) CreateTicket(ctx context.Context, input CreateTicketInput) (*TicketSnapshot, error) {
	role := input.Actor.Role
	if !role.IsStakeholder() {
		return nil, fmt.Errorf("%w: role %s cannot report damages", domain.ErrPermissionDenied, role)
	}
	status := domain.StakeholderStatus(role, domain.ActionCreateDamage)
	info, err := domain.DescribeStatus(status)
	if err != nil {
		return nil, err
	}

	var snapshot *TicketSnapshot
	err = e.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		if _, err := s.Apartments.GetByID(ctx, input.ApartmentID); err != nil {
			return err
		}
		if input.ParentTicketID != nil {
			parentOf := func(id string) *string {
				parent, err := s.Tickets.ParentOf(ctx, id)
				if err != nil {
					return nil
				}
				return parent
			}
			if err := domain.ValidateLink("", input.ParentTicketID, nil, parentOf); err != nil {
				return err
			}
		}

		ticket := &domain.Ticket{
			Status:             status,
			CreatedByUserID:    input.Actor.UserID,
			CreatedByRole:      role,
			ApartmentID:        input.ApartmentID,
			PreferredCompanyID: input.PreferredCompanyID,
			ResponsibleUserID:  &input.Actor.UserID,
			ResponsibleRole:    role,
			ParentTicketID:     input.ParentTicketID,
			JanitorEnabled:     input.JanitorEnabled,
			Allocation:         input.Allocation,
		}
		if err := s.Tickets.Create(ctx, ticket); err != nil {
			return err
		}
		if input.ParentTicketID != nil {
			if err := linkChild(ctx, s, *input.ParentTicketID, ticket.ID); err != nil {
				return err
			}
		}

		entry := &domain.LogEntry{
			TicketID:     ticket.ID,
			Kind:         domain.LogKindTransition,
			Status:       status,
			ActorUserID:  input.Actor.UserID,
			ActorRole:    role,
			Comment:      optionalComment(input.Comment),
			Responsibles: []domain.Role{role},
		}
		if err := s.Log.Append(ctx, entry); err != nil {
			return err
		}

		notify, err := resolveNotifyUser(ctx, s, ticket)
		if err != nil {
			return err
		}
		snapshot = &TicketSnapshot{Ticket: *ticket, Entry: *entry, Status: info, NotifyUserID: notify}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, events.EventDamageReported, snapshot)
	return snapshot, nil
}

// Transition moves a ticket to the target status after validating the role,
// comment and reachability guards, all inside one unit of work.
func (e *TransitionEngine) Transition(ctx context.Context, ticketID string, target domain.StatusKey, actor Actor, comment string) (*TicketSnapshot, error) {
	var snapshot *TicketSnapshot
	err := e.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		ticket, err := s.Tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		entry, info, err := applyTransition(ctx, s, ticket, target, actor, comment, entryRefs{})
		if err != nil {
			return err
		}
		notify, err := resolveNotifyUser(ctx, s, ticket)
		if err != nil {
			return err
		}
		snapshot = &TicketSnapshot{Ticket: *ticket, Entry: *entry, Status: info, NotifyUserID: notify}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, events.EventStatusChanged, snapshot)
	return snapshot, nil
}

// SoftDelete flips the deletion flag; the audit trail is retained.
func (e *TransitionEngine) SoftDelete(ctx context.Context, ticketID string, actor Actor) error {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RolePropertyAdmin {
		return domain.ErrPermissionDenied
	}
	return e.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		return s.Tickets.SoftDelete(ctx, ticketID)
	})
}

// History returns the ticket's audit trail, oldest first.
func (e *TransitionEngine) History(ctx context.Context, ticketID string) ([]domain.LogEntry, error) {
	var entries []domain.LogEntry
	err := e.uow.Do(ctx, func(ctx context.Context, s repository.Stores) error {
		var err error
		entries, err = s.Log.ListByTicket(ctx, ticketID)
		return err
	})
	return entries, err
}

// applyTransition runs the guard chain and mutates the ticket within the
// caller's open unit of work. Guard order: deleted, terminal, registry,
// reachability, role, comment.
func applyTransition(ctx context.Context, s repository.Stores, ticket *domain.Ticket, target domain.StatusKey, actor Actor, comment string, refs entryRefs) (*domain.LogEntry, domain.StatusInfo, error) {
	info, err := domain.DescribeStatus(target)
	if err != nil {
		return nil, info, err
	}
	if ticket.Deleted {
		return nil, info, domain.ErrTicketDeleted
	}
	if ticket.IsClosed() && !target.IsTerminal() {
		return nil, info, domain.ErrTicketClosed
	}
	if !domain.CanTransition(ticket.Status, target) {
		return nil, info, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, ticket.Status, target)
	}
	if !info.AuthorRoleAllowed(actor.Role) {
		return nil, info, fmt.Errorf("%w: role %s cannot set %s", domain.ErrPermissionDenied, actor.Role, target)
	}
	if info.CommentRequired && strings.TrimSpace(comment) == "" {
		return nil, info, fmt.Errorf("%w: %s", domain.ErrCommentRequired, target)
	}

	ticket.Status = target
	if err := routeResponsibility(ctx, s, ticket, info); err != nil {
		return nil, info, err
	}
	if err := s.Tickets.Update(ctx, ticket); err != nil {
		return nil, info, err
	}

	entry := &domain.LogEntry{
		TicketID:     ticket.ID,
		Kind:         domain.LogKindTransition,
		Status:       target,
		ActorUserID:  actor.UserID,
		ActorRole:    actor.Role,
		Comment:      optionalComment(comment),
		OfferID:      refs.OfferID,
		RequestID:    refs.RequestID,
		Responsibles: responsiblesSnapshot(ticket),
	}
	if err := s.Log.Append(ctx, entry); err != nil {
		return nil, info, err
	}
	return entry, info, nil
}

// routeResponsibility updates the ticket's responsible user and role from the
// routing metadata of the status just entered.
func routeResponsibility(ctx context.Context, s repository.Stores, ticket *domain.Ticket, info domain.StatusInfo) error {
	switch info.Responsible {
	case domain.ResponsibleCompany:
		ticket.ResponsibleRole = domain.RoleCompany
		ticket.ResponsibleUserID = nil
		if companyID := ticket.CompanyForRouting(); companyID != nil {
			company, err := s.Companies.GetByID(ctx, *companyID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if company != nil {
				ticket.ResponsibleUserID = company.ContactUserID
			}
		}
	case domain.ResponsibleStakeholder:
		role := info.StakeholderRole
		if role == "" {
			role = ticket.CreatedByRole
		}
		ticket.ResponsibleRole = role
		ticket.ResponsibleUserID = stakeholderUser(ctx, s, ticket, role)
	case domain.ResponsibleNone:
		ticket.ResponsibleRole = domain.RoleGuest
		ticket.ResponsibleUserID = nil
	}
	return nil
}

// stakeholderUser resolves the user acting in a role for the ticket's
// apartment, falling back to the ticket creator.
func stakeholderUser(ctx context.Context, s repository.Stores, ticket *domain.Ticket, role domain.Role) *string {
	apartment, err := s.Apartments.GetByID(ctx, ticket.ApartmentID)
	if err == nil {
		if userID := apartment.StakeholderFor(role); userID != nil {
			return userID
		}
	}
	creator := ticket.CreatedByUserID
	return &creator
}

// resolveNotifyUser applies the administrator-fallback rule: the transition
// is recorded against the acting role, but the notification goes to the
// responsible user's configured delegate when one exists.
func resolveNotifyUser(ctx context.Context, s repository.Stores, ticket *domain.Ticket) (*string, error) {
	if ticket.ResponsibleUserID == nil {
		return nil, nil
	}
	user, err := s.Users.GetByID(ctx, *ticket.ResponsibleUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ticket.ResponsibleUserID, nil
		}
		return nil, err
	}
	if ticket.ResponsibleRole.HasAdministratorFallback() && user.AdministratorID != nil {
		return user.AdministratorID, nil
	}
	return ticket.ResponsibleUserID, nil
}

func responsiblesSnapshot(ticket *domain.Ticket) []domain.Role {
	if ticket.ResponsibleRole == domain.RoleGuest || ticket.ResponsibleRole == "" {
		return nil
	}
	if ticket.ResponsibleRole == domain.RoleCompany {
		return []domain.Role{domain.RoleCompany, domain.RoleCompanyUser}
	}
	return []domain.Role{ticket.ResponsibleRole}
}

// linkChild records the back-pointer on the parent of an escalation chain.
func linkChild(ctx context.Context, s repository.Stores, parentID, childID string) error {
	parent, err := s.Tickets.GetByID(ctx, parentID)
	if err != nil {
		return err
	}
	parent.ChildTicketID = &childID
	return s.Tickets.Update(ctx, parent)
}

func optionalComment(comment string) *string {
	trimmed := strings.TrimSpace(comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (e *TransitionEngine) publish(ctx context.Context, eventType events.EventType, snapshot *TicketSnapshot) {
	if e.dispatcher == nil || snapshot == nil {
		return
	}
	event := events.NewEvent(eventType, snapshot.Ticket.ID, events.Actor{
		UserID: snapshot.Entry.ActorUserID,
		Role:   snapshot.Entry.ActorRole,
	}, events.StatusChangedPayload{
		Status:          snapshot.Ticket.Status,
		ResponsibleRole: snapshot.Ticket.ResponsibleRole,
		Comment:         snapshot.Entry.Comment,
	})
	if err := e.dispatcher.Publish(ctx, event); err != nil {
		e.logger.Warn("event publish failed", zap.String("ticket_id", snapshot.Ticket.ID), zap.Error(err))
	}
}
