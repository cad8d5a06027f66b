package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// envelope is the message shape on the shared Redis channel.
type envelope struct {
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sent_at"`
}

// RedisBridge fans pushes out to every instance. Each instance subscribes
// and replays received pushes into its local Hub, so a user connected to any
// instance gets them.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *zap.SugaredLogger
}

func NewRedisBridge(client *redis.Client, prefix string, h *Hub, log *zap.SugaredLogger) *RedisBridge {
	return &RedisBridge{
		client:  client,
		channel: prefix + ":push",
		hub:     h,
		log:     log,
	}
}

// Push publishes payload for userID. When the publish fails the push is
// delivered to local channels only.
func (b *RedisBridge) Push(ctx context.Context, userID string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		b.log.Errorw("encode push payload failed", "user_id", userID, "error", err)
		return
	}
	env, err := json.Marshal(envelope{UserID: userID, Payload: body, SentAt: time.Now().UTC()})
	if err != nil {
		b.log.Errorw("encode push envelope failed", "user_id", userID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, env).Err(); err != nil {
		b.log.Warnw("redis publish failed, delivering locally", "channel", b.channel, "error", err)
		b.hub.Deliver(userID, body)
	}
}

// Start subscribes and returns once the subscription is confirmed. Received
// pushes are delivered until ctx is done.
func (b *RedisBridge) Start(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
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
				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					b.log.Warnw("bad push envelope", "error", err)
					continue
				}
				b.hub.Deliver(env.UserID, env.Payload)
			}
		}
	}()
	b.log.Infow("push bridge subscriber started", "channel", b.channel)
	return nil
}
