package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fathima-sithara/ticket-notification-service/internal/model"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func TestCacheExpiry(t *testing.T) {
	clock := newClock()
	c := NewCache(30*time.Second, clock.Now)
	key := model.TemplateKey{Type: model.EventTicketCreated, Variant: model.VariantShort}
	tpl := &model.NotificationTemplate{TitleTemplate: "x"}

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, tpl)
	got, ok := c.Get(key)
	assert.True(t, ok)
	assert.Same(t, tpl, got)

	clock.Advance(29 * time.Second)
	_, ok = c.Get(key)
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestCacheStoresMisses(t *testing.T) {
	c := NewCache(time.Minute, newClock().Now)
	key := model.TemplateKey{Type: model.EventTicketAssigned, Variant: model.VariantShort}

	c.Set(key, nil)
	got, ok := c.Get(key)
	assert.True(t, ok)
	assert.Nil(t, got)
}

func TestCacheInvalidateByType(t *testing.T) {
	c := NewCache(time.Minute, newClock().Now)
	createdShort := model.TemplateKey{Type: model.EventTicketCreated, Variant: model.VariantShort}
	createdLong := model.TemplateKey{Type: model.EventTicketCreated, Variant: model.VariantLong}
	assigned := model.TemplateKey{Type: model.EventTicketAssigned, Variant: model.VariantShort}
	for _, k := range []model.TemplateKey{createdShort, createdLong, assigned} {
		c.Set(k, &model.NotificationTemplate{})
	}

	c.Invalidate(model.EventTicketCreated)
	_, ok := c.Get(createdShort)
	assert.False(t, ok)
	_, ok = c.Get(createdLong)
	assert.False(t, ok)
	_, ok = c.Get(assigned)
	assert.True(t, ok)

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}
