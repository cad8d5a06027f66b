package templates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/ticket-notification-service/internal/errs"
	"github.com/fathima-sithara/ticket-notification-service/internal/logger"
	"github.com/fathima-sithara/ticket-notification-service/internal/model"
	"github.com/fathima-sithara/ticket-notification-service/internal/repository"
)

func newTestService(t *testing.T) (*Service, *repository.MemoryTemplateStore, *fakeClock) {
	t.Helper()
	store := repository.NewMemoryTemplateStore()
	clock := newClock()
	svc := NewService(store, NewCache(DefaultCacheTTL, clock.Now), nil, logger.Nop())
	return svc, store, clock
}

func TestBuiltinDefaultsCoverEveryPair(t *testing.T) {
	d := BuiltinDefaults()
	for _, et := range model.EventTypes {
		for _, v := range []model.Variant{model.VariantShort, model.VariantLong} {
			f, ok := d.Get(model.TemplateKey{Type: et, Variant: v})
			require.True(t, ok, "%s/%s", et, v)
			val := ValidateTemplateFields(f)
			assert.True(t, val.Valid(), "%s/%s: %v", et, v, val.Errors)
			assert.Empty(t, val.Warnings, "%s/%s", et, v)
		}
	}
	assert.Len(t, d.Keys(), len(model.EventTypes)*2)
}

func TestParseDefaultsRejectsUnknownType(t *testing.T) {
	_, err := ParseDefaults([]byte("templates:\n  - type: ticket.deleted\n    variant: short\n    title: x\n"))
	assert.Error(t, err)
}

func TestGetRenderableTemplateSeedsOnce(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	tpl, err := svc.GetRenderableTemplate(ctx, model.EventTicketStatusUpdated, model.VariantShort)
	require.NoError(t, err)
	require.NotNil(t, tpl)
	assert.Equal(t, "Ticket status updated", tpl.TitleTemplate)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)

	// later custom edits survive further renders
	_, err = store.Upsert(ctx, &model.NotificationTemplate{
		Type: model.EventTicketCreated, Variant: model.VariantShort, TitleTemplate: "custom", Enabled: true,
	})
	require.NoError(t, err)
	tpl, err = svc.GetRenderableTemplate(ctx, model.EventTicketCreated, model.VariantShort)
	require.NoError(t, err)
	assert.Equal(t, "custom", tpl.TitleTemplate)
}

func TestSeedingDoesNotOverwriteExistingRows(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	_, err := store.Upsert(ctx, &model.NotificationTemplate{
		Type: model.EventTicketAssigned, Variant: model.VariantShort, TitleTemplate: "mine", Enabled: true,
	})
	require.NoError(t, err)

	require.NoError(t, svc.EnsureSeeded(ctx))

	tpl, err := store.FindEnabled(ctx, model.TemplateKey{Type: model.EventTicketAssigned, Variant: model.VariantShort})
	require.NoError(t, err)
	assert.Equal(t, "mine", tpl.TitleTemplate)
}

type failingExistence struct {
	*repository.MemoryTemplateStore
	fail bool
}

func (f *failingExistence) ExistingKeys(ctx context.Context, keys []model.TemplateKey) (map[model.TemplateKey]bool, error) {
	if f.fail {
		return nil, errors.New("store down")
	}
	return f.MemoryTemplateStore.ExistingKeys(ctx, keys)
}

func TestFailedSeedIsRetried(t *testing.T) {
	ctx := context.Background()
	store := &failingExistence{MemoryTemplateStore: repository.NewMemoryTemplateStore(), fail: true}
	svc := NewService(store, NewCache(0, nil), nil, logger.Nop())

	assert.Error(t, svc.EnsureSeeded(ctx))

	store.fail = false
	require.NoError(t, svc.EnsureSeeded(ctx))
	all, _ := store.List(ctx)
	assert.Len(t, all, 8)
}

func TestGetRenderableTemplateCachesMisses(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newTestService(t)
	require.NoError(t, svc.EnsureSeeded(ctx))

	disabled := false
	_, _, err := svc.UpdateTemplate(ctx, UpdateInput{
		Type: model.EventTicketNoteCreated, Variant: model.VariantShort,
		TitleTemplate: "x", Enabled: &disabled,
	})
	require.NoError(t, err)

	before := store.QueryCount()
	for i := 0; i < 3; i++ {
		tpl, err := svc.GetRenderableTemplate(ctx, model.EventTicketNoteCreated, model.VariantShort)
		require.NoError(t, err)
		assert.Nil(t, tpl)
	}
	assert.Equal(t, before+1, store.QueryCount())

	clock.Advance(DefaultCacheTTL)
	_, err = svc.GetRenderableTemplate(ctx, model.EventTicketNoteCreated, model.VariantShort)
	require.NoError(t, err)
	assert.Equal(t, before+2, store.QueryCount())
}

func TestUpdateIsVisibleWithinTTL(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestService(t)

	tpl, err := svc.GetRenderableTemplate(ctx, model.EventTicketAssigned, model.VariantShort)
	require.NoError(t, err)
	require.NotNil(t, tpl)
	clock.Advance(time.Second)

	_, _, err = svc.UpdateTemplate(ctx, UpdateInput{
		Type: model.EventTicketAssigned, Variant: model.VariantShort,
		TitleTemplate: "Yours now: #{{ticketNumber}}",
	})
	require.NoError(t, err)

	tpl, err = svc.GetRenderableTemplate(ctx, model.EventTicketAssigned, model.VariantShort)
	require.NoError(t, err)
	assert.Equal(t, "Yours now: #{{ticketNumber}}", tpl.TitleTemplate)
}

func TestUpdateTemplateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, v, err := svc.UpdateTemplate(ctx, UpdateInput{
		Type: model.EventTicketCreated, Variant: model.VariantShort, TitleTemplate: " ",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.False(t, v.Valid())

	_, v, err = svc.UpdateTemplate(ctx, UpdateInput{
		Type: model.EventTicketCreated, Variant: model.VariantShort, TitleTemplate: "{{ticketNumbr}}",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, v.Warnings)

	_, _, err = svc.UpdateTemplate(ctx, UpdateInput{Type: "ticket.deleted", Variant: model.VariantShort, TitleTemplate: "x"})
	assert.ErrorIs(t, err, errs.ErrUnknownTemplate)
}

func TestResetTemplateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, _, err := svc.UpdateTemplate(ctx, UpdateInput{
		Type: model.EventTicketCreated, Variant: model.VariantShort, TitleTemplate: "changed",
	})
	require.NoError(t, err)

	first, err := svc.ResetTemplate(ctx, model.EventTicketCreated, model.VariantShort)
	require.NoError(t, err)
	second, err := svc.ResetTemplate(ctx, model.EventTicketCreated, model.VariantShort)
	require.NoError(t, err)

	assert.Equal(t, first.TitleTemplate, second.TitleTemplate)
	assert.Equal(t, first.BodyTemplate, second.BodyTemplate)
	assert.True(t, second.Enabled)
	assert.Equal(t, "New ticket #{{ticketNumber}}", second.TitleTemplate)

	tpl, err := svc.GetRenderableTemplate(ctx, model.EventTicketCreated, model.VariantShort)
	require.NoError(t, err)
	assert.Equal(t, second.TitleTemplate, tpl.TitleTemplate)

	_, err = svc.ResetTemplate(ctx, "nope", model.VariantShort)
	assert.ErrorIs(t, err, errs.ErrUnknownTemplate)
}

func TestPreviewTemplateDoesNotTouchStore(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	p, err := svc.PreviewTemplate(PreviewInput{
		Type:          model.EventTicketStatusUpdated,
		Variant:       model.VariantShort,
		TitleTemplate: "Status",
		BodyTemplate:  "Ticket {{ticketNumber}} changed from {{oldStatus}} to {{newStatus}}.",
		Sample:        map[string]string{"ticketNumber": "42", "oldStatus": "New"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ticket 42 changed from New to In Progress.", p.Body)
	assert.Equal(t, p.Body, p.Preview)
	assert.True(t, p.Validation.Valid())

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

type recordingPublisher struct{ types []model.EventType }

func (r *recordingPublisher) Publish(_ context.Context, t model.EventType) error {
	r.types = append(r.types, t)
	return nil
}

func TestAdminWritesPublishInvalidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	pub := &recordingPublisher{}
	svc.SetPublisher(pub)

	_, _, err := svc.UpdateTemplate(ctx, UpdateInput{Type: model.EventTicketAssigned, Variant: model.VariantLong, TitleTemplate: "x"})
	require.NoError(t, err)
	_, err = svc.ResetTemplate(ctx, model.EventTicketNoteCreated, model.VariantShort)
	require.NoError(t, err)

	assert.Equal(t, []model.EventType{model.EventTicketAssigned, model.EventTicketNoteCreated}, pub.types)
}
