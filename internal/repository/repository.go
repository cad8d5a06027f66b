package repository

import (
	"context"
	"time"

	"github.com/fathima-sithara/ticket-notification-service/internal/model"
)

// NotificationStore persists notification rows. Ownership checks are the
// caller's job; the store only filters by the ids it is given.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	Get(ctx context.Context, id string) (*model.Notification, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkRead sets read_at when it is still unset and returns the row as
	// stored afterwards.
	MarkRead(ctx context.Context, id string, at time.Time) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type TemplateStore interface {
	// ExistingKeys reports which of keys already have a row, in one query.
	ExistingKeys(ctx context.Context, keys []model.TemplateKey) (map[model.TemplateKey]bool, error)
	// InsertMany inserts rows, ignoring ones that appeared concurrently.
	InsertMany(ctx context.Context, tpls []*model.NotificationTemplate) error
	// FindEnabled returns nil, nil when no enabled row exists.
	FindEnabled(ctx context.Context, key model.TemplateKey) (*model.NotificationTemplate, error)
	Upsert(ctx context.Context, t *model.NotificationTemplate) (*model.NotificationTemplate, error)
	List(ctx context.Context) ([]*model.NotificationTemplate, error)
}

type PreferenceStore interface {
	GetOrCreate(ctx context.Context, userID string) (*model.Preferences, error)
	Update(ctx context.Context, userID string, patch model.PreferencesPatch) (*model.Preferences, error)
}

type SessionStore interface {
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
}

// Directory is the read side of the ticket and user records owned by the
// CRUD services.
type Directory interface {
	GetTicket(ctx context.Context, id string) (*model.Ticket, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}
