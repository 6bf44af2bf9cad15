package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/damage-service/internal/domain"
)

func TestDispatcherDeliversToAllHandlers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	var calls []string

	dispatcher.Subscribe(EventStatusChanged, func(_ context.Context, _ Event) error {
		calls = append(calls, "first")
		return nil
	})
	dispatcher.Subscribe(EventStatusChanged, func(_ context.Context, _ Event) error {
		calls = append(calls, "second")
		return nil
	})
	dispatcher.Subscribe(EventDamageReported, func(_ context.Context, _ Event) error {
		calls = append(calls, "unrelated")
		return nil
	})

	event := NewEvent(EventStatusChanged, "ticket-1", Actor{UserID: "u1", Role: domain.RoleTenant}, nil)
	assert.NoError(t, dispatcher.Publish(context.Background(), event))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcherFailingHandlerDoesNotStopOthers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	boom := errors.New("boom")
	var second bool

	dispatcher.Subscribe(EventReminderFired, func(_ context.Context, _ Event) error {
		return boom
	})
	dispatcher.Subscribe(EventReminderFired, func(_ context.Context, _ Event) error {
		second = true
		return nil
	})

	err := dispatcher.Publish(context.Background(), NewEvent(EventReminderFired, "ticket-1", Actor{}, nil))
	assert.ErrorIs(t, err, boom)
	assert.True(t, second)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	err := dispatcher.Publish(context.Background(), NewEvent(EventDefectRaised, "ticket-1", Actor{}, nil))
	assert.NoError(t, err)
}
