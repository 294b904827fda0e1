// Package notifications fans application events out to Redis pub/sub so
// downstream consumers (feed refreshers, push services) can react without
// polling.
package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"

	"tastify/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Event types published on the broadcast channel.
const (
	EventPostCreated    = "post.created"
	EventPostDeleted    = "post.deleted"
	EventLikeToggled    = "post.like_toggled"
	EventCommentCreated = "comment.created"
)

const broadcastChannel = "tastify:events"

// Notifier publishes application events into Redis channels. A nil Redis
// client turns every publish into a no-op, so callers never need to guard.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishEvent sends a typed event with payload to the broadcast channel.
// Publishing is best-effort: failures are logged, never surfaced to the
// request that triggered the event.
func (n *Notifier) PublishEvent(ctx context.Context, eventType string, payload map[string]interface{}) {
	if n == nil || n.rdb == nil {
		return
	}

	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to marshal event",
			slog.String("event", eventType), slog.String("error", err.Error()))
		return
	}

	if err := n.rdb.Publish(ctx, broadcastChannel, string(eventJSON)).Err(); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to publish event",
			slog.String("event", eventType), slog.String("error", err.Error()))
	}
}

// StartSubscriber subscribes to the broadcast channel and calls onMessage for
// each incoming payload until ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, broadcastChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in event subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
