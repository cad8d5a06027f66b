package kafka

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ticket-notification-service/internal/model"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NotificationCreatedEvent is published for every stored notification so
// email and SMS senders can follow up.
type NotificationCreatedEvent struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Type         model.EventType `json:"type"`
	EntityType   string          `json:"entityType"`
	EntityID     string          `json:"entityId"`
	TicketNumber *int64          `json:"ticketNumber,omitempty"`
	Title        string          `json:"title"`
	Body         string          `json:"body"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Producer publishes notification.created events behind a circuit breaker.
// Failures are logged and dropped.
type Producer struct {
	writer  messageWriter
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	log     *zap.SugaredLogger
}

func NewProducer(brokers []string, topic string, log *zap.SugaredLogger) *Producer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		Async:        false,
	}
	return newProducer(w, log)
}

func newProducer(w messageWriter, log *zap.SugaredLogger) *Producer {
	st := gobreaker.Settings{
		Name:        "notification-producer",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Infow("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &Producer{
		writer:  w,
		cb:      gobreaker.NewCircuitBreaker(st),
		timeout: 2 * time.Second,
		log:     log,
	}
}

func (p *Producer) NotificationCreated(ctx context.Context, n *model.Notification) {
	b, err := json.Marshal(NotificationCreatedEvent{
		ID:           n.ID,
		UserID:       n.UserID,
		Type:         n.Type,
		EntityType:   n.EntityType,
		EntityID:     n.EntityID,
		TicketNumber: n.TicketNumber,
		Title:        n.Title,
		Body:         n.Body,
		CreatedAt:    n.CreatedAt,
	})
	if err != nil {
		p.log.Errorw("encode notification event failed", "id", n.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.writer.WriteMessages(ctx, kafkago.Message{
			Key:   []byte(n.UserID),
			Value: b,
			Time:  n.CreatedAt,
		})
	})
	if err != nil {
		p.log.Warnw("publish notification event dropped", "id", n.ID, "error", err)
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
