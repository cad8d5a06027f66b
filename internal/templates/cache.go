package templates

import (
	"sync"
	"time"

	"github.com/fathima-sithara/ticket-notification-service/internal/model"
)

// DefaultCacheTTL is how long a lookup, hit or miss, is reused.
const DefaultCacheTTL = 30 * time.Second

type cacheEntry struct {
	tpl     *model.NotificationTemplate // nil caches a miss
	expires time.Time
}

// Cache is a TTL cache of enabled templates keyed by (type, variant).
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[model.TemplateKey]cacheEntry
}

// NewCache builds a cache. A nil clock means time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[model.TemplateKey]cacheEntry),
	}
}

// Get returns the cached value and whether it is still fresh. A fresh miss
// returns (nil, true). The returned template is shared and must not be
// modified.
func (c *Cache) Get(key model.TemplateKey) (*model.NotificationTemplate, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.tpl, true
}

func (c *Cache) Set(key model.TemplateKey, tpl *model.NotificationTemplate) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{tpl: tpl, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops every variant of t.
func (c *Cache) Invalidate(t model.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.Type == t {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[model.TemplateKey]cacheEntry)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
