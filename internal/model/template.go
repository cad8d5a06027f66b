package model

import "time"

// NotificationTemplate is the stored title/body pair for one (type, variant).
type NotificationTemplate struct {
	ID            string    `json:"id" bson:"_id"`
	Type          EventType `json:"type" bson:"type"`
	Variant       Variant   `json:"variant" bson:"variant"`
	TitleTemplate string    `json:"titleTemplate" bson:"title_template"`
	BodyTemplate  string    `json:"bodyTemplate" bson:"body_template"`
	Enabled       bool      `json:"enabled" bson:"enabled"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updated_at"`
}

// TemplateKey identifies a template row.
type TemplateKey struct {
	Type    EventType
	Variant Variant
}

func (t *NotificationTemplate) Key() TemplateKey {
	return TemplateKey{Type: t.Type, Variant: t.Variant}
}
