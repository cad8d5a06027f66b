package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ticket-notification-service/internal/metrics"
	"github.com/fathima-sithara/ticket-notification-service/internal/model"
	"github.com/fathima-sithara/ticket-notification-service/internal/service"
)

// TicketNotifier is the part of the notification service driven by ticket
// events.
type TicketNotifier interface {
	NotifyTicketCreated(ctx context.Context, ev service.TicketCreated) []*service.Created
	NotifyTicketAssigned(ctx context.Context, ev service.TicketAssigned) []*service.Created
	NotifyTicketStatusUpdated(ctx context.Context, ev service.TicketStatusUpdated) []*service.Created
	NotifyTicketNoteCreated(ctx context.Context, ev service.TicketNoteCreated) []*service.Created
}

// Envelope is the message format on the ticket events topic.
type Envelope struct {
	Type    model.EventType `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

var ErrMalformedEvent = errors.New("malformed ticket event")

type Consumer struct {
	reader   *kafkago.Reader
	notifier TicketNotifier
	log      *zap.SugaredLogger
}

func NewConsumer(brokers []string, topic, groupID string, notifier TicketNotifier, log *zap.SugaredLogger) *Consumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: r, notifier: notifier, log: log}
}

// Start reads until ctx is done. Messages are handled one at a time; a
// message that cannot be handled is logged and skipped. Read errors are
// retried with exponential backoff.
func (c *Consumer) Start(ctx context.Context) error {
	retry := backoff.NewExponentialBackOff()
	retry.MaxInterval = 30 * time.Second
	retry.MaxElapsedTime = 0

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := retry.NextBackOff()
			c.log.Errorw("kafka read error", "error", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		retry.Reset()

		if err := c.HandleMessage(ctx, m.Value); err != nil {
			metrics.KafkaEventsConsumed.WithLabelValues("skipped").Inc()
			c.log.Warnw("skipping ticket event", "partition", m.Partition, "offset", m.Offset, "error", err)
			continue
		}
		metrics.KafkaEventsConsumed.WithLabelValues("handled").Inc()
	}
}

func decodeEvent[T any](payload json.RawMessage) (T, error) {
	var ev T
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, err
	}
	return ev, service.ValidateEvent(&ev)
}

// HandleMessage decodes one envelope and runs the matching notification.
func (c *Consumer) HandleMessage(ctx context.Context, value []byte) error {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if len(env.Payload) == 0 {
		return fmt.Errorf("%w: missing payload", ErrMalformedEvent)
	}

	var (
		created []*service.Created
		err     error
	)
	switch env.Type {
	case model.EventTicketCreated:
		var ev service.TicketCreated
		if ev, err = decodeEvent[service.TicketCreated](env.Payload); err == nil {
			created = c.notifier.NotifyTicketCreated(ctx, ev)
		}
	case model.EventTicketAssigned:
		var ev service.TicketAssigned
		if ev, err = decodeEvent[service.TicketAssigned](env.Payload); err == nil {
			created = c.notifier.NotifyTicketAssigned(ctx, ev)
		}
	case model.EventTicketStatusUpdated:
		var ev service.TicketStatusUpdated
		if ev, err = decodeEvent[service.TicketStatusUpdated](env.Payload); err == nil {
			created = c.notifier.NotifyTicketStatusUpdated(ctx, ev)
		}
	case model.EventTicketNoteCreated:
		var ev service.TicketNoteCreated
		if ev, err = decodeEvent[service.TicketNoteCreated](env.Payload); err == nil {
			created = c.notifier.NotifyTicketNoteCreated(ctx, ev)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, env.Type)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	c.log.Debugw("ticket event handled", "type", env.Type, "notifications", len(created))
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
