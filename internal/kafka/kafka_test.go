package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/ticket-notification-service/internal/logger"
	"github.com/fathima-sithara/ticket-notification-service/internal/model"
	"github.com/fathima-sithara/ticket-notification-service/internal/service"
)

type recordingNotifier struct {
	created  []service.TicketCreated
	assigned []service.TicketAssigned
	status   []service.TicketStatusUpdated
	notes    []service.TicketNoteCreated
}

func (r *recordingNotifier) NotifyTicketCreated(_ context.Context, ev service.TicketCreated) []*service.Created {
	r.created = append(r.created, ev)
	return nil
}

func (r *recordingNotifier) NotifyTicketAssigned(_ context.Context, ev service.TicketAssigned) []*service.Created {
	r.assigned = append(r.assigned, ev)
	return nil
}

func (r *recordingNotifier) NotifyTicketStatusUpdated(_ context.Context, ev service.TicketStatusUpdated) []*service.Created {
	r.status = append(r.status, ev)
	return nil
}

func (r *recordingNotifier) NotifyTicketNoteCreated(_ context.Context, ev service.TicketNoteCreated) []*service.Created {
	r.notes = append(r.notes, ev)
	return nil
}

func TestHandleMessageDispatches(t *testing.T) {
	n := &recordingNotifier{}
	c := &Consumer{notifier: n, log: logger.Nop()}
	ctx := context.Background()

	require.NoError(t, c.HandleMessage(ctx, []byte(`{"type":"ticket.created","payload":{"ticketId":"t1","title":"Printer","createdByUserId":"a"}}`)))
	require.NoError(t, c.HandleMessage(ctx, []byte(`{"type":"ticket.assigned","payload":{"ticketId":"t1","assigneeUserId":"b"}}`)))
	require.NoError(t, c.HandleMessage(ctx, []byte(`{"type":"ticket.status.updated","payload":{"ticketId":"t1","ticketNumber":42,"oldStatus":"NEW","newStatus":"CLOSED"}}`)))
	require.NoError(t, c.HandleMessage(ctx, []byte(`{"type":"ticket.note.created","payload":{"ticketId":"t1","notePreview":"hi"}}`)))

	require.Len(t, n.created, 1)
	assert.Equal(t, "Printer", n.created[0].Title)
	require.NotNil(t, n.created[0].CreatedByUserID)
	assert.Equal(t, "a", *n.created[0].CreatedByUserID)

	require.Len(t, n.assigned, 1)
	assert.Equal(t, "b", n.assigned[0].AssigneeUserID)

	require.Len(t, n.status, 1)
	require.NotNil(t, n.status[0].TicketNumber)
	assert.EqualValues(t, 42, *n.status[0].TicketNumber)

	require.Len(t, n.notes, 1)
	assert.Equal(t, "hi", n.notes[0].NotePreview)
}

func TestHandleMessageRejectsMalformed(t *testing.T) {
	n := &recordingNotifier{}
	c := &Consumer{notifier: n, log: logger.Nop()}

	for _, raw := range []string{
		`not json`,
		`{"type":"ticket.created"}`,
		`{"type":"ticket.deleted","payload":{}}`,
		`{"type":"ticket.assigned","payload":"oops"}`,
		`{"type":"ticket.assigned","payload":{"ticketId":"t1"}}`,
		`{"type":"ticket.status.updated","payload":{"oldStatus":"NEW","newStatus":"CLOSED"}}`,
	} {
		err := c.HandleMessage(context.Background(), []byte(raw))
		assert.ErrorIs(t, err, ErrMalformedEvent, raw)
	}
	assert.Empty(t, n.created)
	assert.Empty(t, n.assigned)
	assert.Empty(t, n.status)
}

type fakeWriter struct {
	mu    sync.Mutex
	err   error
	calls int
	msgs  []kafkago.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProducerPublishesEvent(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, logger.Nop())

	p.NotificationCreated(context.Background(), &model.Notification{
		ID: "n1", UserID: "u1", Type: model.EventTicketAssigned, Title: "Ticket #1 assigned to you",
	})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("u1"), w.msgs[0].Key)
	var ev NotificationCreatedEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "n1", ev.ID)
	assert.Equal(t, model.EventTicketAssigned, ev.Type)
}

func TestProducerBreakerOpensAfterFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducer(w, logger.Nop())
	n := &model.Notification{ID: "n1", UserID: "u1"}

	for i := 0; i < 10; i++ {
		p.NotificationCreated(context.Background(), n)
	}
	assert.Equal(t, 5, w.calls)
}
