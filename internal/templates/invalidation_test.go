package templates

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/ticket-notification-service/internal/logger"
	"github.com/fathima-sithara/ticket-notification-service/internal/model"
)

func TestRedisInvalidatorAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	newClient := func() *redis.Client {
		c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = c.Close() })
		return c
	}

	cacheA := NewCache(time.Minute, nil)
	cacheB := NewCache(time.Minute, nil)
	a := NewRedisInvalidator(newClient(), "test", cacheA, logger.Nop())
	b := NewRedisInvalidator(newClient(), "test", cacheB, logger.Nop())
	require.NoError(t, a.Start(ctx))
	require.NoError(t, b.Start(ctx))

	created := model.TemplateKey{Type: model.EventTicketCreated, Variant: model.VariantShort}
	assigned := model.TemplateKey{Type: model.EventTicketAssigned, Variant: model.VariantShort}
	cacheA.Set(created, &model.NotificationTemplate{})
	cacheB.Set(created, &model.NotificationTemplate{})
	cacheB.Set(assigned, &model.NotificationTemplate{})

	require.NoError(t, a.Publish(ctx, model.EventTicketCreated))

	assert.Eventually(t, func() bool {
		_, ok := cacheB.Get(created)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := cacheB.Get(assigned)
	assert.True(t, ok)
	// the publisher's own message is ignored
	_, ok = cacheA.Get(created)
	assert.True(t, ok)
}
