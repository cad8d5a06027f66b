package templates

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ticket-notification-service/internal/model"
)

type invalidationMessage struct {
	Origin string          `json:"origin"`
	Type   model.EventType `json:"type,omitempty"` // empty drops everything
}

// RedisInvalidator relays cache invalidations between instances over a
// Redis channel. Messages published by this instance are ignored on receipt
// because the local cache was already invalidated.
type RedisInvalidator struct {
	client  *redis.Client
	channel string
	origin  string
	cache   *Cache
	log     *zap.SugaredLogger
}

func NewRedisInvalidator(client *redis.Client, prefix string, cache *Cache, log *zap.SugaredLogger) *RedisInvalidator {
	return &RedisInvalidator{
		client:  client,
		channel: prefix + ":templates:invalidate",
		origin:  uuid.NewString(),
		cache:   cache,
		log:     log,
	}
}

func (r *RedisInvalidator) Publish(ctx context.Context, t model.EventType) error {
	body, err := json.Marshal(invalidationMessage{Origin: r.origin, Type: t})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, body).Err()
}

// Start subscribes and returns once the subscription is confirmed. Messages
// are handled on a background goroutine until ctx is done.
func (r *RedisInvalidator) Start(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.handle(msg.Payload)
			}
		}
	}()
	r.log.Infow("template invalidation subscriber started", "channel", r.channel)
	return nil
}

func (r *RedisInvalidator) handle(payload string) {
	var m invalidationMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		r.log.Warnw("bad invalidation message", "error", err)
		return
	}
	if m.Origin == r.origin {
		return
	}
	if m.Type == "" {
		r.cache.InvalidateAll()
		return
	}
	r.cache.Invalidate(m.Type)
}
