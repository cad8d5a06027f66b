package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ticket-notification-service/internal/errs"
	"github.com/fathima-sithara/ticket-notification-service/internal/metrics"
	"github.com/fathima-sithara/ticket-notification-service/internal/model"
	"github.com/fathima-sithara/ticket-notification-service/internal/repository"
	"github.com/fathima-sithara/ticket-notification-service/internal/templates"
)

// EventNotificationNew is the event name of a live push.
const EventNotificationNew = "notification:new"

// Pusher delivers a payload to the live channels of a user. Delivery is
// fire-and-forget.
type Pusher interface {
	Push(ctx context.Context, userID string, payload any)
}

// TemplateSource resolves the enabled template for a (type, variant).
type TemplateSource interface {
	GetRenderableTemplate(ctx context.Context, t model.EventType, v model.Variant) (*model.NotificationTemplate, error)
}

// CreatedPublisher announces new notification rows to downstream channels.
type CreatedPublisher interface {
	NotificationCreated(ctx context.Context, n *model.Notification)
}

type Options struct {
	FanoutConcurrency int
	DefaultPageSize   int
	MaxPageSize       int
	Now               func() time.Time
}

func (o *Options) setDefaults() {
	if o.FanoutConcurrency <= 0 {
		o.FanoutConcurrency = 8
	}
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 20
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 50
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type NotificationService struct {
	notifications repository.NotificationStore
	prefs         repository.PreferenceStore
	templates     TemplateSource
	directory     repository.Directory
	pusher        Pusher
	published     CreatedPublisher
	opts          Options
	log           *zap.SugaredLogger
}

// NewNotificationService wires the service. prefs may be nil when the
// preferences store is unavailable; every user then gets the default
// preferences and preference writes fail with errs.ErrPreferencesUnavailable.
func NewNotificationService(
	notifications repository.NotificationStore,
	prefs repository.PreferenceStore,
	tpls TemplateSource,
	directory repository.Directory,
	pusher Pusher,
	opts Options,
	log *zap.SugaredLogger,
) *NotificationService {
	opts.setDefaults()
	return &NotificationService{
		notifications: notifications,
		prefs:         prefs,
		templates:     tpls,
		directory:     directory,
		pusher:        pusher,
		opts:          opts,
		log:           log,
	}
}

// SetCreatedPublisher enables downstream announcements of new rows.
func (s *NotificationService) SetCreatedPublisher(p CreatedPublisher) {
	s.published = p
}

type CreateParams struct {
	UserID       string
	ActorUserID  *string
	Type         model.EventType
	EntityType   string
	EntityID     string
	TicketNumber *int64
	Context      map[string]string
}

type Created struct {
	Notification *model.Notification `json:"notification"`
	UnreadCount  int64               `json:"unreadCount"`
}

type PushMessage struct {
	Event string   `json:"event"`
	Data  *Created `json:"data"`
}

// CreateForUser renders, stores and pushes one notification. It returns nil
// without error when the user's preferences or a missing template mean
// nothing should be created.
func (s *NotificationService) CreateForUser(ctx context.Context, p CreateParams) (*Created, error) {
	prefs, err := s.loadPreferences(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	if !prefs.Allows(p.Type) {
		metrics.NotificationsSkipped.WithLabelValues(string(p.Type), "preference").Inc()
		return nil, nil
	}

	tpl, err := s.templates.GetRenderableTemplate(ctx, p.Type, model.VariantShort)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if tpl == nil {
		metrics.NotificationsSkipped.WithLabelValues(string(p.Type), "no_template").Inc()
		s.log.Debugw("no enabled template, skipping", "type", p.Type)
		return nil, nil
	}

	body := templates.Render(tpl.BodyTemplate, p.Context)
	n := &model.Notification{
		ID:           uuid.NewString(),
		UserID:       p.UserID,
		ActorUserID:  p.ActorUserID,
		Type:         p.Type,
		EntityType:   p.EntityType,
		EntityID:     p.EntityID,
		TicketNumber: p.TicketNumber,
		Title:        templates.Render(tpl.TitleTemplate, p.Context),
		Body:         body,
		CreatedAt:    s.opts.Now().UTC(),
	}
	if preview := templates.SanitizePreviewText(body, templates.DefaultPreviewLength); preview != "" {
		n.Preview = &preview
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(p.Type)).Inc()

	unread, err := s.notifications.CountUnread(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	created := &Created{Notification: n, UnreadCount: unread}

	if prefs.Enabled && s.pusher != nil {
		s.pusher.Push(ctx, p.UserID, PushMessage{Event: EventNotificationNew, Data: created})
	}
	if s.published != nil {
		s.published.NotificationCreated(ctx, n)
	}
	return created, nil
}

func (s *NotificationService) loadPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	if s.prefs == nil {
		return model.DefaultPreferences(userID), nil
	}
	return s.prefs.GetOrCreate(ctx, userID)
}

type Inbox struct {
	Notifications []*model.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unreadCount"`
}

// ListForUser returns the most recent notifications of a user. limit is
// clamped to the configured page sizes.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit int) (*Inbox, error) {
	if limit <= 0 {
		limit = s.opts.DefaultPageSize
	}
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}
	list, err := s.notifications.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Inbox{Notifications: list, UnreadCount: unread}, nil
}

// MarkRead marks a notification read on behalf of its owner. A notification
// that is already read keeps its original read time.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) (*model.Notification, error) {
	n, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, errs.ErrForbidden
	}
	if !n.Unread() {
		return n, nil
	}
	return s.notifications.MarkRead(ctx, notificationID, s.opts.Now().UTC())
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID, s.opts.Now().UTC())
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notifications.CountUnread(ctx, userID)
}

func (s *NotificationService) ClearAll(ctx context.Context, userID string) (int64, error) {
	return s.notifications.DeleteByUser(ctx, userID)
}

// GetPreferences returns the stored preferences, creating the default row
// on first read.
func (s *NotificationService) GetPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	return s.loadPreferences(ctx, userID)
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, userID string, patch model.PreferencesPatch) (*model.Preferences, error) {
	if s.prefs == nil {
		return nil, errs.ErrPreferencesUnavailable
	}
	return s.prefs.Update(ctx, userID, patch)
}
