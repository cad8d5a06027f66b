package templates

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ticket-notification-service/internal/errs"
	"github.com/fathima-sithara/ticket-notification-service/internal/metrics"
	"github.com/fathima-sithara/ticket-notification-service/internal/model"
	"github.com/fathima-sithara/ticket-notification-service/internal/repository"
)

// InvalidationPublisher tells other instances to drop cached templates of a
// type.
type InvalidationPublisher interface {
	Publish(ctx context.Context, t model.EventType) error
}

// Service owns template storage, the render cache and the admin surface.
type Service struct {
	store     repository.TemplateStore
	cache     *Cache
	defaults  *Defaults
	log       *zap.SugaredLogger
	publisher InvalidationPublisher

	seedMu sync.Mutex
	seeded atomic.Bool
}

func NewService(store repository.TemplateStore, cache *Cache, defaults *Defaults, log *zap.SugaredLogger) *Service {
	if defaults == nil {
		defaults = BuiltinDefaults()
	}
	return &Service{
		store:    store,
		cache:    cache,
		defaults: defaults,
		log:      log,
	}
}

// SetPublisher enables cross-instance invalidation.
func (s *Service) SetPublisher(p InvalidationPublisher) {
	s.publisher = p
}

func (s *Service) Cache() *Cache {
	return s.cache
}

// EnsureSeeded creates missing default rows. It succeeds at most once per
// Service; after a failure the next call tries again.
func (s *Service) EnsureSeeded(ctx context.Context) error {
	if s.seeded.Load() {
		return nil
	}
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	if s.seeded.Load() {
		return nil
	}

	keys := s.defaults.Keys()
	existing, err := s.store.ExistingKeys(ctx, keys)
	if err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}
	now := time.Now().UTC()
	var missing []*model.NotificationTemplate
	for _, key := range keys {
		if existing[key] {
			continue
		}
		f, _ := s.defaults.Get(key)
		missing = append(missing, &model.NotificationTemplate{
			ID:            uuid.NewString(),
			Type:          key.Type,
			Variant:       key.Variant,
			TitleTemplate: f.TitleTemplate,
			BodyTemplate:  f.BodyTemplate,
			Enabled:       true,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	if err := s.store.InsertMany(ctx, missing); err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}
	if len(missing) > 0 {
		// rows created here may have been cached as misses
		s.cache.InvalidateAll()
		s.log.Infow("seeded default templates", "created", len(missing))
	}
	s.seeded.Store(true)
	return nil
}

// GetRenderableTemplate returns the enabled template for (t, v), or nil when
// there is none.
func (s *Service) GetRenderableTemplate(ctx context.Context, t model.EventType, v model.Variant) (*model.NotificationTemplate, error) {
	if err := s.EnsureSeeded(ctx); err != nil {
		s.log.Warnw("template seeding failed", "error", err)
	}

	key := model.TemplateKey{Type: t, Variant: v}
	if tpl, ok := s.cache.Get(key); ok {
		metrics.TemplateCacheLookups.WithLabelValues("hit").Inc()
		return tpl, nil
	}
	metrics.TemplateCacheLookups.WithLabelValues("miss").Inc()
	tpl, err := s.store.FindEnabled(ctx, key)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, tpl)
	return tpl, nil
}

func (s *Service) ListTemplates(ctx context.Context) ([]*model.NotificationTemplate, error) {
	if err := s.EnsureSeeded(ctx); err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}

type UpdateInput struct {
	Type          model.EventType
	Variant       model.Variant
	TitleTemplate string
	BodyTemplate  string
	// Enabled defaults to true when nil.
	Enabled *bool
}

// UpdateTemplate validates and stores new content. Validation failures are
// returned as *errs.ValidationError; warnings come back with the saved row.
func (s *Service) UpdateTemplate(ctx context.Context, in UpdateInput) (*model.NotificationTemplate, Validation, error) {
	if !in.Type.Valid() || !in.Variant.Valid() {
		return nil, Validation{}, errs.ErrUnknownTemplate
	}
	v := ValidateTemplateFields(Fields{TitleTemplate: in.TitleTemplate, BodyTemplate: in.BodyTemplate})
	if !v.Valid() {
		return nil, v, &errs.ValidationError{Errors: v.Errors, Warnings: v.Warnings}
	}
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	saved, err := s.store.Upsert(ctx, &model.NotificationTemplate{
		Type:          in.Type,
		Variant:       in.Variant,
		TitleTemplate: in.TitleTemplate,
		BodyTemplate:  in.BodyTemplate,
		Enabled:       enabled,
	})
	if err != nil {
		return nil, v, fmt.Errorf("update template: %w", err)
	}
	s.invalidate(ctx, in.Type)
	return saved, v, nil
}

// ResetTemplate restores the default content of (t, v) and re-enables it.
func (s *Service) ResetTemplate(ctx context.Context, t model.EventType, v model.Variant) (*model.NotificationTemplate, error) {
	key := model.TemplateKey{Type: t, Variant: v}
	f, ok := s.defaults.Get(key)
	if !ok {
		return nil, errs.ErrUnknownTemplate
	}
	saved, err := s.store.Upsert(ctx, &model.NotificationTemplate{
		Type:          t,
		Variant:       v,
		TitleTemplate: f.TitleTemplate,
		BodyTemplate:  f.BodyTemplate,
		Enabled:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("reset template: %w", err)
	}
	s.invalidate(ctx, t)
	return saved, nil
}

func (s *Service) invalidate(ctx context.Context, t model.EventType) {
	s.cache.Invalidate(t)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, t); err != nil {
		s.log.Warnw("publish template invalidation failed", "type", t, "error", err)
	}
}

type PreviewInput struct {
	Type          model.EventType
	Variant       model.Variant
	TitleTemplate string
	BodyTemplate  string
	// Sample overrides individual keys of the built-in sample context.
	Sample map[string]string
}

type Preview struct {
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Preview    string            `json:"preview"`
	Context    map[string]string `json:"context"`
	Validation Validation        `json:"validation"`
}

// PreviewTemplate renders unsaved content against a sample context. The
// store is not touched.
func (s *Service) PreviewTemplate(in PreviewInput) (*Preview, error) {
	if _, ok := s.defaults.Get(model.TemplateKey{Type: in.Type, Variant: in.Variant}); !ok {
		return nil, errs.ErrUnknownTemplate
	}
	ctx := SampleContext()
	for k, v := range in.Sample {
		ctx[k] = v
	}
	body := Render(in.BodyTemplate, ctx)
	return &Preview{
		Title:      Render(in.TitleTemplate, ctx),
		Body:       body,
		Preview:    SanitizePreviewText(body, DefaultPreviewLength),
		Context:    ctx,
		Validation: ValidateTemplateFields(Fields{TitleTemplate: in.TitleTemplate, BodyTemplate: in.BodyTemplate}),
	}, nil
}

// SampleContext returns a context with every vocabulary key filled in.
func SampleContext() map[string]string {
	return map[string]string{
		"ticketNumber":  "1042",
		"ticketSubject": "Printer on floor 3 is offline",
		"requesterName": "Jordan Lee",
		"authorName":    "Sam Carter",
		"oldStatus":     "Open",
		"newStatus":     "In Progress",
		"notePreview":   "Checked the network cable, escalating to facilities.",
	}
}
