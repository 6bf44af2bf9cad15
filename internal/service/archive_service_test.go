package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/damage-service/internal/domain"
)

func closeTicketAt(t *testing.T, db *memDB, closedAt time.Time, messages int) string {
	t.Helper()
	engine := newEngine(db)
	snapshot := createTenantTicket(t, engine)
	ctx := context.Background()

	_, err := engine.Transition(ctx, snapshot.Ticket.ID,
		domain.StakeholderStatus(domain.RoleTenant, domain.ActionCloseTheDamage),
		Actor{UserID: "user-tenant", Role: domain.RoleTenant}, "")
	require.NoError(t, err)

	stores := db.stores()
	for i := 0; i < messages; i++ {
		require.NoError(t, stores.Messages.Create(ctx, &domain.TicketMessage{
			TicketID:     snapshot.Ticket.ID,
			AuthorUserID: "user-tenant",
			AuthorRole:   domain.RoleTenant,
			Body:         "message",
		}))
	}

	db.mu.Lock()
	ticket := db.tickets[snapshot.Ticket.ID]
	ticket.UpdatedAt = closedAt
	db.tickets[snapshot.Ticket.ID] = ticket
	db.mu.Unlock()
	return snapshot.Ticket.ID
}

func TestArchiveClosedTicketMessages(t *testing.T) {
	db := newMemDB()
	seedFixture(db)
	archive := NewArchiveService(db.uow(), zap.NewNop(), 90*24*time.Hour)
	now := time.Now()

	oldID := closeTicketAt(t, db, now.AddDate(0, 0, -100), 2)
	recentID := closeTicketAt(t, db, now.AddDate(0, 0, -10), 1)

	result, err := archive.ArchiveClosedTicketMessages(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Tickets)
	assert.Equal(t, int64(2), result.Messages)
	assert.Zero(t, result.Failures)

	for _, message := range db.messages {
		switch message.TicketID {
		case oldID:
			assert.True(t, message.Archived)
		case recentID:
			assert.False(t, message.Archived)
		}
	}
}

func TestArchiveRerunFindsNothingNew(t *testing.T) {
	db := newMemDB()
	seedFixture(db)
	archive := NewArchiveService(db.uow(), zap.NewNop(), 90*24*time.Hour)
	now := time.Now()

	closeTicketAt(t, db, now.AddDate(0, 0, -100), 2)

	first, err := archive.ArchiveClosedTicketMessages(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, int64(2), first.Messages)

	second, err := archive.ArchiveClosedTicketMessages(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Tickets)
	assert.Zero(t, second.Messages)
}

func TestArchiveIgnoresOpenTickets(t *testing.T) {
	db := newMemDB()
	seedFixture(db)
	archive := NewArchiveService(db.uow(), zap.NewNop(), 90*24*time.Hour)
	now := time.Now()

	engine := newEngine(db)
	snapshot := createTenantTicket(t, engine)
	db.mu.Lock()
	ticket := db.tickets[snapshot.Ticket.ID]
	ticket.UpdatedAt = now.AddDate(0, 0, -200)
	db.tickets[snapshot.Ticket.ID] = ticket
	db.mu.Unlock()

	result, err := archive.ArchiveClosedTicketMessages(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, result.Tickets)
}
