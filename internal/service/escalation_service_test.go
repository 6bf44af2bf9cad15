package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/damage-service/internal/config"
	"github.com/spec-kit/damage-service/internal/domain"
	"github.com/spec-kit/damage-service/internal/events"
)

func newEscalation(db *memDB) (*EscalationService, *capturedQueue) {
	queue := &capturedQueue{}
	logger := zap.NewNop()
	notifications := NewNotificationService(queue, db.uow(), logger, config.NotificationConfig{
		FallbackAddress: "ops@example.com",
	})
	escalation := NewEscalationService(db.uow(), notifications, events.NewInMemoryDispatcher(), logger, EscalationConfig{
		RunInterval: time.Hour,
	})
	return escalation, queue
}

// backdateTicketLog rewrites the audit timestamps so the ticket looks stalled.
func backdateTicketLog(db *memDB, ticketID string, to time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := range db.logs {
		if db.logs[i].TicketID == ticketID {
			db.logs[i].CreatedAt = to
		}
	}
}

// stalledCompanyTicket creates a ticket, routes it to the company, and
// backdates the last transition so the given number of days have elapsed.
func stalledCompanyTicket(t *testing.T, db *memDB, daysAgo int, now time.Time) string {
	t.Helper()
	engine := newEngine(db)
	snapshot := createTenantTicket(t, engine)

	ticket := db.tickets[snapshot.Ticket.ID]
	company := "company-1"
	ticket.AssignedCompanyID = &company
	db.tickets[snapshot.Ticket.ID] = ticket

	_, err := engine.Transition(context.Background(), snapshot.Ticket.ID,
		domain.StakeholderStatus(domain.RoleTenant, domain.ActionSendToCompanyWith),
		Actor{UserID: "user-tenant", Role: domain.RoleTenant}, "")
	require.NoError(t, err)

	backdateTicketLog(db, snapshot.Ticket.ID, now.AddDate(0, 0, -daysAgo))
	return snapshot.Ticket.ID
}

func TestEscalationFiresOnAlertDay(t *testing.T) {
	db := newMemDB()
	seedFixture(db)
	escalation, queue := newEscalation(db)
	now := time.Now()
	ticketID := stalledCompanyTicket(t, db, 7, now)

	result, err := escalation.EscalateUnresponsiveCompanies(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Reminders)
	assert.Zero(t, result.Failures)

	var reminders []domain.LogEntry
	for _, entry := range db.logs {
		if entry.TicketID == ticketID && entry.Kind == domain.LogKindReminder {
			reminders = append(reminders, entry)
		}
	}
	require.Len(t, reminders, 1)
	require.NotNil(t, reminders[0].AlertDay)
	assert.Equal(t, 7, *reminders[0].AlertDay)

	// The company contact gets the reminder.
	sent := queue.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "contact@example.com", sent[0].RecipientAddress)
	assert.Equal(t, ticketID, sent[0].RelatedTicketID)
}

func TestEscalationRerunIsIdempotent(t *testing.T) {
	db := newMemDB()
	seedFixture(db)
	escalation, queue := newEscalation(db)
	now := time.Now()
	stalledCompanyTicket(t, db, 7, now)

	first, err := escalation.EscalateUnresponsiveCompanies(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, first.Reminders)

	// Same instant again, then an overlapping window half an hour later. The
	// audit log suppresses the duplicate both times.
	second, err := escalation.EscalateUnresponsiveCompanies(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, second.Reminders)

	third, err := escalation.EscalateUnresponsiveCompanies(context.Background(), now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, third.Reminders)

	assert.Len(t, queue.all(), 1)
}

func TestEscalationSkipsOutsideWindow(t *testing.T) {
	db := newMemDB()
	seedFixture(db)
	escalation, queue := newEscalation(db)
	now := time.Now()
	// Six days elapsed, so no alert day falls in this run's window.
	stalledCompanyTicket(t, db, 6, now)

	result, err := escalation.EscalateUnresponsiveCompanies(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Zero(t, result.Reminders)
	assert.Empty(t, queue.all())
}

func TestEscalationNotifiesDelegate(t *testing.T) {
	db := newMemDB()
	seedFixture(db)
	escalation, queue := newEscalation(db)
	now := time.Now()

	delegate := "user-delegate"
	tenant := db.users["user-tenant"]
	tenant.AdministratorID = &delegate
	db.users["user-tenant"] = tenant

	engine := newEngine(db)
	negotiation := NewNegotiationService(db.uow(), events.NewInMemoryDispatcher(), zap.NewNop())
	snapshot := createTenantTicket(t, engine)
	request, err := negotiation.RequestCompany(context.Background(), snapshot.Ticket.ID, "company-1",
		Actor{UserID: "user-tenant", Role: domain.RoleTenant}, true, nil)
	require.NoError(t, err)
	_, err = negotiation.SubmitOffer(context.Background(), request.ID,
		Actor{UserID: "user-company", Role: domain.RoleCompany}, 90000, nil)
	require.NoError(t, err)

	// The offer has been waiting on the tenant for a day; the reminder goes
	// to the tenant's administrator instead.
	backdateTicketLog(db, snapshot.Ticket.ID, now.AddDate(0, 0, -1))

	result, err := escalation.EscalateUnresponsiveDamages(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Reminders)

	sent := queue.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "delegate@example.com", sent[0].RecipientAddress)
}

func TestWithinRunWindow(t *testing.T) {
	now := time.Now()
	interval := time.Hour

	assert.True(t, withinRunWindow(now, now, interval))
	assert.True(t, withinRunWindow(now.Add(-59*time.Minute), now, interval))
	assert.False(t, withinRunWindow(now.Add(-time.Hour), now, interval))
	assert.False(t, withinRunWindow(now.Add(time.Second), now, interval))
}
