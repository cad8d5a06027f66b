package hub

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/fathima-sithara/ticket-notification-service/internal/metrics"
)

// Channel is one live, authenticated connection of a user.
type Channel interface {
	ID() string
	// Write hands msg to the connection without blocking. An error means the
	// message was not accepted.
	Write(msg []byte) error
	// Done is closed once the channel can no longer deliver.
	Done() <-chan struct{}
}

// Hub tracks live channels per user and delivers pushes to them. Nothing is
// queued for users without a channel.
type Hub struct {
	mu             sync.RWMutex
	channelsByUser map[string]map[string]Channel
	log            *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		channelsByUser: make(map[string]map[string]Channel),
		log:            log,
	}
}

// Registration is the handle returned by Track. Close removes the channel
// from the hub; it is also called automatically when the channel's Done
// fires.
type Registration struct {
	hub       *Hub
	userID    string
	channelID string
	once      sync.Once
	stop      chan struct{}
}

func (r *Registration) Close() {
	r.once.Do(func() {
		close(r.stop)
		r.hub.remove(r.userID, r.channelID)
	})
}

// Track registers ch under userID until ch is done or the registration is
// closed.
func (h *Hub) Track(userID string, ch Channel) *Registration {
	h.mu.Lock()
	set, ok := h.channelsByUser[userID]
	if !ok {
		set = make(map[string]Channel)
		h.channelsByUser[userID] = set
	}
	if _, dup := set[ch.ID()]; !dup {
		metrics.LiveConnections.Inc()
	}
	set[ch.ID()] = ch
	h.mu.Unlock()

	reg := &Registration{hub: h, userID: userID, channelID: ch.ID(), stop: make(chan struct{})}
	go func() {
		select {
		case <-ch.Done():
			reg.Close()
		case <-reg.stop:
		}
	}()
	h.log.Debugw("channel tracked", "user_id", userID, "channel_id", ch.ID())
	return reg
}

func (h *Hub) remove(userID, channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channelsByUser[userID]
	if !ok {
		return
	}
	if _, ok := set[channelID]; !ok {
		return
	}
	delete(set, channelID)
	metrics.LiveConnections.Dec()
	if len(set) == 0 {
		delete(h.channelsByUser, userID)
	}
	h.log.Debugw("channel removed", "user_id", userID, "channel_id", channelID)
}

// Emit serializes payload once and writes it to every open channel of the
// user. It returns how many channels accepted the message.
func (h *Hub) Emit(userID string, payload any) int {
	msg, err := json.Marshal(payload)
	if err != nil {
		h.log.Errorw("encode push payload failed", "user_id", userID, "error", err)
		return 0
	}
	return h.Deliver(userID, msg)
}

// Deliver writes an already encoded message to the user's channels.
func (h *Hub) Deliver(userID string, msg []byte) int {
	h.mu.RLock()
	snapshot := make([]Channel, 0, len(h.channelsByUser[userID]))
	for _, ch := range h.channelsByUser[userID] {
		snapshot = append(snapshot, ch)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, ch := range snapshot {
		select {
		case <-ch.Done():
			continue
		default:
		}
		if err := ch.Write(msg); err != nil {
			h.log.Debugw("push dropped", "user_id", userID, "channel_id", ch.ID(), "error", err)
			continue
		}
		delivered++
	}
	if delivered > 0 {
		metrics.PushesDelivered.Add(float64(delivered))
	}
	return delivered
}

// Push implements the notification service's pusher on this instance only.
func (h *Hub) Push(_ context.Context, userID string, payload any) {
	h.Emit(userID, payload)
}

// Connections returns the number of channels tracked for userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channelsByUser[userID])
}

// Users returns the number of users with at least one channel.
func (h *Hub) Users() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channelsByUser)
}
