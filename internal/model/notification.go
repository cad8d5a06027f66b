package model

import "time"

type Notification struct {
	ID           string     `json:"id" bson:"_id"`
	UserID       string     `json:"userId" bson:"user_id"`
	ActorUserID  *string    `json:"actorUserId" bson:"actor_user_id,omitempty"`
	Type         EventType  `json:"type" bson:"type"`
	EntityType   string     `json:"entityType" bson:"entity_type"`
	EntityID     string     `json:"entityId" bson:"entity_id"`
	TicketNumber *int64     `json:"ticketNumber" bson:"ticket_number,omitempty"`
	Title        string     `json:"title" bson:"title"`
	Body         string     `json:"body" bson:"body"`
	Preview      *string    `json:"preview" bson:"preview,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
	ReadAt       *time.Time `json:"readAt" bson:"read_at,omitempty"`
}

// Unread reports whether the notification has not been read yet.
func (n *Notification) Unread() bool {
	return n.ReadAt == nil
}
