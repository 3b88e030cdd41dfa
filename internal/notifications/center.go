package notifications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/legalmind/legalmind/backend/go-services/internal/apperr"
	"github.com/legalmind/legalmind/backend/go-services/internal/kv"
	"github.com/legalmind/legalmind/backend/go-services/pkg/logger"
	"github.com/legalmind/legalmind/backend/go-services/pkg/metrics"
)

var log = logger.Named("notifications")

// Center owns the installation-wide notification list. Any component may
// produce notifications; the display surface consumes them through List or
// Subscribe.
type Center struct {
	store kv.Store
	hub   *Hub
	// the list lives under a single key, so one mutex serializes all writers
	mu  sync.Mutex
	now func() time.Time
}

type Option func(*Center)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Center) { c.now = now }
}

func NewCenter(store kv.Store, opts ...Option) *Center {
	c := &Center{store: store, hub: NewHub(), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Hub exposes the event fan-out for stream endpoints.
func (c *Center) Hub() *Hub { return c.hub }

// Subscribe is shorthand for c.Hub().Subscribe().
func (c *Center) Subscribe() (<-chan Event, func()) { return c.hub.Subscribe() }

func (c *Center) load(ctx context.Context) ([]Notification, error) {
	list, err := kv.ReadList[Notification](ctx, c.store, kv.NotificationsKey)
	if errors.Is(err, kv.ErrCorrupt) {
		log.Warnf("discarding unreadable notification list: %v", err)
		metrics.StorageErrors.WithLabelValues("notifications").Inc()
		return []Notification{}, nil
	}
	return list, err
}

// update runs fn over the stored list through the store's atomic update.
// fn may run more than once.
func (c *Center) update(ctx context.Context, fn func([]Notification) ([]Notification, bool)) error {
	onCorrupt := func(err error) {
		log.Warnf("discarding unreadable notification list: %v", err)
		metrics.StorageErrors.WithLabelValues("notifications").Inc()
	}
	err := kv.UpdateList(ctx, c.store, kv.NotificationsKey, onCorrupt, func(list []Notification) ([]Notification, bool, error) {
		next, changed := fn(list)
		return next, changed, nil
	})
	if err != nil {
		return fmt.Errorf("update notifications: %w", err)
	}
	return nil
}

// Create inserts a new unread notification and returns it.
func (c *Center) Create(ctx context.Context, in Input) (*Notification, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Invalid("title", "title is required")
	}
	if !in.Kind.Valid() {
		return nil, apperr.Invalid("kind", fmt.Sprintf("unknown notification kind %q", in.Kind))
	}
	if in.Severity == "" {
		in.Severity = SeverityInfo
	}
	if !in.Severity.Valid() {
		return nil, apperr.Invalid("severity", fmt.Sprintf("unknown severity %q", in.Severity))
	}

	n := Notification{
		ID:                uuid.NewString(),
		Kind:              in.Kind,
		Severity:          in.Severity,
		Title:             strings.TrimSpace(in.Title),
		Message:           in.Message,
		CreatedAt:         c.now().UTC(),
		Link:              in.Link,
		RelatedDocumentID: in.RelatedDocumentID,
		RelatedCaseID:     in.RelatedCaseID,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.update(ctx, func(list []Notification) ([]Notification, bool) {
		return append([]Notification{n}, list...), true
	})
	if err != nil {
		return nil, err
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Kind)).Inc()
	out := n
	c.hub.Publish(Event{Type: EventCreated, Notification: &out, At: c.now().UTC()})
	return &n, nil
}

// List returns every notification, newest first. Storage failures yield an
// empty list.
func (c *Center) List(ctx context.Context) []Notification {
	list, err := c.load(ctx)
	if err != nil {
		log.Warnf("list notifications: %v", err)
		metrics.StorageErrors.WithLabelValues("notifications").Inc()
		return []Notification{}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

// UnreadCount counts notifications not yet read.
func (c *Center) UnreadCount(ctx context.Context) int {
	n := 0
	for _, it := range c.List(ctx) {
		if !it.Read {
			n++
		}
	}
	return n
}

// MarkRead flips one notification to read. Unknown ids and already-read
// notifications are left alone.
func (c *Center) MarkRead(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var read *Notification
	err := c.update(ctx, func(list []Notification) ([]Notification, bool) {
		read = nil
		for i := range list {
			if list[i].ID != id {
				continue
			}
			if list[i].Read {
				return list, false
			}
			list[i].Read = true
			out := list[i]
			read = &out
			return list, true
		}
		return list, false
	})
	if err != nil || read == nil {
		return err
	}
	c.hub.Publish(Event{Type: EventRead, Notification: read, At: c.now().UTC()})
	return nil
}

// MarkAllRead flips every unread notification to read.
func (c *Center) MarkAllRead(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := 0
	err := c.update(ctx, func(list []Notification) ([]Notification, bool) {
		changed = 0
		for i := range list {
			if !list[i].Read {
				list[i].Read = true
				changed++
			}
		}
		return list, changed > 0
	})
	if err != nil || changed == 0 {
		return err
	}
	c.hub.Publish(Event{Type: EventAllRead, Count: changed, At: c.now().UTC()})
	return nil
}

// Remove deletes one notification. Unknown ids are a no-op.
func (c *Center) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed *Notification
	err := c.update(ctx, func(list []Notification) ([]Notification, bool) {
		removed = nil
		for i := range list {
			if list[i].ID != id {
				continue
			}
			r := list[i]
			removed = &r
			return append(list[:i], list[i+1:]...), true
		}
		return list, false
	})
	if err != nil || removed == nil {
		return err
	}
	c.hub.Publish(Event{Type: EventRemoved, Notification: removed, WasUnread: !removed.Read, At: c.now().UTC()})
	return nil
}

// Clear deletes every notification.
func (c *Center) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cleared := 0
	err := c.update(ctx, func(list []Notification) ([]Notification, bool) {
		cleared = len(list)
		return []Notification{}, true
	})
	if err != nil {
		return err
	}
	c.hub.Publish(Event{Type: EventCleared, Count: cleared, At: c.now().UTC()})
	return nil
}
