package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fathima-sithara/ticket-notification-service/internal/errs"
	"github.com/fathima-sithara/ticket-notification-service/internal/model"
)

// In-memory stores. They back the "memory" storage driver and the tests of
// the packages above this one. Values are copied in and out so callers never
// share state with the store.

type MemoryNotificationStore struct {
	mu   sync.RWMutex
	rows map[string]*model.Notification
}

func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{rows: make(map[string]*model.Notification)}
}

func copyNotification(n *model.Notification) *model.Notification {
	c := *n
	if n.ReadAt != nil {
		t := *n.ReadAt
		c.ReadAt = &t
	}
	return &c
}

func (s *MemoryNotificationStore) Create(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[n.ID] = copyNotification(n)
	return nil
}

func (s *MemoryNotificationStore) Get(_ context.Context, id string) (*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.rows[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return copyNotification(n), nil
}

func (s *MemoryNotificationStore) ListByUser(_ context.Context, userID string, limit int) ([]*model.Notification, error) {
	s.mu.RLock()
	out := make([]*model.Notification, 0)
	for _, n := range s.rows {
		if n.UserID == userID {
			out = append(out, copyNotification(n))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryNotificationStore) CountUnread(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, row := range s.rows {
		if row.UserID == userID && row.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (s *MemoryNotificationStore) MarkRead(_ context.Context, id string, at time.Time) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.rows[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
	}
	return copyNotification(n), nil
}

func (s *MemoryNotificationStore) MarkAllRead(_ context.Context, userID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for _, n := range s.rows {
		if n.UserID == userID && n.ReadAt == nil {
			readAt := at
			n.ReadAt = &readAt
			changed++
		}
	}
	return changed, nil
}

func (s *MemoryNotificationStore) DeleteByUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, n := range s.rows {
		if n.UserID == userID {
			delete(s.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

type MemoryTemplateStore struct {
	mu      sync.RWMutex
	rows    map[model.TemplateKey]*model.NotificationTemplate
	queries int
}

func NewMemoryTemplateStore() *MemoryTemplateStore {
	return &MemoryTemplateStore{rows: make(map[model.TemplateKey]*model.NotificationTemplate)}
}

func (s *MemoryTemplateStore) ExistingKeys(_ context.Context, keys []model.TemplateKey) (map[model.TemplateKey]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.TemplateKey]bool, len(keys))
	for _, k := range keys {
		if _, ok := s.rows[k]; ok {
			out[k] = true
		}
	}
	return out, nil
}

func (s *MemoryTemplateStore) InsertMany(_ context.Context, tpls []*model.NotificationTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tpls {
		if _, ok := s.rows[t.Key()]; ok {
			continue
		}
		c := *t
		s.rows[t.Key()] = &c
	}
	return nil
}

func (s *MemoryTemplateStore) FindEnabled(_ context.Context, key model.TemplateKey) (*model.NotificationTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	t, ok := s.rows[key]
	if !ok || !t.Enabled {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (s *MemoryTemplateStore) Upsert(_ context.Context, t *model.NotificationTemplate) (*model.NotificationTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	row, ok := s.rows[t.Key()]
	if !ok {
		row = &model.NotificationTemplate{
			ID:        uuid.NewString(),
			Type:      t.Type,
			Variant:   t.Variant,
			CreatedAt: now,
		}
		s.rows[t.Key()] = row
	}
	row.TitleTemplate = t.TitleTemplate
	row.BodyTemplate = t.BodyTemplate
	row.Enabled = t.Enabled
	row.UpdatedAt = now
	c := *row
	return &c, nil
}

func (s *MemoryTemplateStore) List(_ context.Context) ([]*model.NotificationTemplate, error) {
	s.mu.RLock()
	out := make([]*model.NotificationTemplate, 0, len(s.rows))
	for _, t := range s.rows {
		c := *t
		out = append(out, &c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type == out[j].Type {
			return out[i].Variant < out[j].Variant
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

// QueryCount returns how many FindEnabled calls reached the store.
func (s *MemoryTemplateStore) QueryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries
}

type MemoryPreferenceStore struct {
	mu   sync.Mutex
	rows map[string]*model.Preferences
}

func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{rows: make(map[string]*model.Preferences)}
}

func (s *MemoryPreferenceStore) GetOrCreate(ctx context.Context, userID string) (*model.Preferences, error) {
	return s.Update(ctx, userID, model.PreferencesPatch{})
}

func (s *MemoryPreferenceStore) Update(_ context.Context, userID string, patch model.PreferencesPatch) (*model.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	p, ok := s.rows[userID]
	if !ok {
		p = model.DefaultPreferences(userID)
		p.CreatedAt = now
		p.UpdatedAt = now
		s.rows[userID] = p
	}
	if patch != (model.PreferencesPatch{}) {
		patch.Apply(p)
		p.UpdatedAt = now
	}
	c := *p
	return &c, nil
}

type MemorySessionStore struct {
	mu   sync.RWMutex
	rows map[string]*model.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{rows: make(map[string]*model.Session)}
}

// Put stores a session; the auth service owns this write in production.
func (s *MemorySessionStore) Put(sess *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *sess
	s.rows[sess.Token] = &c
}

func (s *MemorySessionStore) FindByToken(_ context.Context, token string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.rows[token]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *sess
	return &c, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, token)
	return nil
}

type MemoryDirectory struct {
	mu      sync.RWMutex
	tickets map[string]*model.Ticket
	users   map[string]*model.User
	order   []string
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		tickets: make(map[string]*model.Ticket),
		users:   make(map[string]*model.User),
	}
}

func (d *MemoryDirectory) PutUser(u *model.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[u.ID]; !ok {
		d.order = append(d.order, u.ID)
	}
	c := *u
	d.users[u.ID] = &c
}

func (d *MemoryDirectory) PutTicket(t *model.Ticket) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := *t
	c.AssigneeIDs = append([]string(nil), t.AssigneeIDs...)
	d.tickets[t.ID] = &c
}

func (d *MemoryDirectory) GetTicket(_ context.Context, id string) (*model.Ticket, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tickets[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *t
	c.AssigneeIDs = append([]string(nil), t.AssigneeIDs...)
	return &c, nil
}

func (d *MemoryDirectory) GetUser(_ context.Context, id string) (*model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (d *MemoryDirectory) ListUserIDs(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.order...), nil
}

var (
	_ NotificationStore = (*MemoryNotificationStore)(nil)
	_ TemplateStore     = (*MemoryTemplateStore)(nil)
	_ PreferenceStore   = (*MemoryPreferenceStore)(nil)
	_ SessionStore      = (*MemorySessionStore)(nil)
	_ Directory         = (*MemoryDirectory)(nil)

	_ NotificationStore = (*MongoNotificationStore)(nil)
	_ TemplateStore     = (*MongoTemplateStore)(nil)
	_ PreferenceStore   = (*MongoPreferenceStore)(nil)
	_ SessionStore      = (*MongoSessionStore)(nil)
	_ Directory         = (*MongoDirectory)(nil)
)
