package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/damage-service/internal/domain"
)

// NotificationQueue is a durable Redis-backed queue for outgoing
// notifications. Producers LPUSH, the worker BRPOPs, so messages survive a
// process restart between commit and delivery.
type NotificationQueue struct {
	client *redis.Client
	key    string
}

// NewNotificationQueue builds a queue over the given Redis client.
func NewNotificationQueue(r *Redis, key string) *NotificationQueue {
	if key == "" {
		key = "damage:notifications"
	}
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &NotificationQueue{client: client, key: key}
}

// Enqueue pushes a notification onto the queue.
func (q *NotificationQueue) Enqueue(ctx context.Context, notification domain.Notification) error {
	if q.client == nil {
		return errors.New("redis client not configured")
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Dequeue blocks up to timeout for the next notification. A nil result with
// nil error means the timeout elapsed with an empty queue.
func (q *NotificationQueue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Notification, error) {
	if q.client == nil {
		return nil, errors.New("redis client not configured")
	}
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return nil, nil
	}
	var notification domain.Notification
	if err := json.Unmarshal([]byte(res[1]), &notification); err != nil {
		return nil, err
	}
	return &notification, nil
}

// Len reports the number of queued notifications.
func (q *NotificationQueue) Len(ctx context.Context) (int64, error) {
	if q.client == nil {
		return 0, errors.New("redis client not configured")
	}
	return q.client.LLen(ctx, q.key).Result()
}
