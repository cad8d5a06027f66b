package model

import "time"

// Preferences gates notification creation per event type and live delivery
// as a whole. A user without a stored row gets DefaultPreferences.
type Preferences struct {
	UserID           string    `json:"userId" bson:"_id"`
	Enabled          bool      `json:"enabled" bson:"enabled"`
	OnTicketCreated  bool      `json:"onTicketCreated" bson:"on_ticket_created"`
	OnTicketAssigned bool      `json:"onTicketAssigned" bson:"on_ticket_assigned"`
	OnStatusUpdate   bool      `json:"onStatusUpdate" bson:"on_status_update"`
	OnInternalNote   bool      `json:"onInternalNote" bson:"on_internal_note"`
	CreatedAt        time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updated_at"`
}

func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:           userID,
		Enabled:          true,
		OnTicketCreated:  true,
		OnTicketAssigned: true,
		OnStatusUpdate:   true,
		OnInternalNote:   true,
	}
}

// Allows returns the per-event flag for t. Unknown types are never allowed.
func (p *Preferences) Allows(t EventType) bool {
	switch t {
	case EventTicketCreated:
		return p.OnTicketCreated
	case EventTicketAssigned:
		return p.OnTicketAssigned
	case EventTicketStatusUpdated:
		return p.OnStatusUpdate
	case EventTicketNoteCreated:
		return p.OnInternalNote
	default:
		return false
	}
}

// PreferencesPatch is a partial update; nil fields are left untouched.
type PreferencesPatch struct {
	Enabled          *bool `json:"enabled"`
	OnTicketCreated  *bool `json:"onTicketCreated"`
	OnTicketAssigned *bool `json:"onTicketAssigned"`
	OnStatusUpdate   *bool `json:"onStatusUpdate"`
	OnInternalNote   *bool `json:"onInternalNote"`
}

// Apply copies the set fields of patch onto p.
func (patch PreferencesPatch) Apply(p *Preferences) {
	if patch.Enabled != nil {
		p.Enabled = *patch.Enabled
	}
	if patch.OnTicketCreated != nil {
		p.OnTicketCreated = *patch.OnTicketCreated
	}
	if patch.OnTicketAssigned != nil {
		p.OnTicketAssigned = *patch.OnTicketAssigned
	}
	if patch.OnStatusUpdate != nil {
		p.OnStatusUpdate = *patch.OnStatusUpdate
	}
	if patch.OnInternalNote != nil {
		p.OnInternalNote = *patch.OnInternalNote
	}
}
