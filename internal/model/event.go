package model

// EventType is the closed set of business events that produce notifications.
type EventType string

const (
	EventTicketCreated       EventType = "ticket.created"
	EventTicketAssigned      EventType = "ticket.assigned"
	EventTicketStatusUpdated EventType = "ticket.status.updated"
	EventTicketNoteCreated   EventType = "ticket.note.created"
)

// EventTypes lists every known event type in display order.
var EventTypes = []EventType{
	EventTicketCreated,
	EventTicketAssigned,
	EventTicketStatusUpdated,
	EventTicketNoteCreated,
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Variant selects a rendering of a template. Only VariantShort is used for
// in-app notifications.
type Variant string

const (
	VariantShort Variant = "short"
	VariantLong  Variant = "long"
)

func (v Variant) Valid() bool {
	return v == VariantShort || v == VariantLong
}

// EntityTicket is the entity type recorded on ticket notifications.
const EntityTicket = "ticket"
