package notifications

import (
	"context"
	"sync"
	"time"
)

// Badge is the cached unread counter shown by the display surface. It keeps
// the ids of unread notifications rather than a bare number, so an event
// that a snapshot already reflects (published between Subscribe and the
// snapshot read) changes nothing when it is applied again. Watch also
// resyncs from the store periodically for changes made by other instances.
type Badge struct {
	mu     sync.RWMutex
	unread map[string]struct{}
}

func (b *Badge) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.unread)
}

// Sync replaces the cached state with the unread entries of list.
func (b *Badge) Sync(list []Notification) {
	unread := make(map[string]struct{}, len(list))
	for _, n := range list {
		if !n.Read {
			unread[n.ID] = struct{}{}
		}
	}
	b.mu.Lock()
	b.unread = unread
	b.mu.Unlock()
}

// Apply folds one event into the cached state. Events must arrive in
// publish order; replaying one the state already reflects is a no-op.
func (b *Badge) Apply(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unread == nil {
		b.unread = make(map[string]struct{})
	}
	switch ev.Type {
	case EventCreated:
		if ev.Notification != nil && !ev.Notification.Read {
			b.unread[ev.Notification.ID] = struct{}{}
		}
	case EventRead, EventRemoved:
		if ev.Notification != nil {
			delete(b.unread, ev.Notification.ID)
		}
	case EventAllRead, EventCleared:
		b.unread = make(map[string]struct{})
	}
}

// Watch keeps b in sync with c until ctx is done.
func (b *Badge) Watch(ctx context.Context, c *Center, resync time.Duration) {
	events, cancel := c.Subscribe()
	defer func() { cancel() }()
	b.Sync(c.List(ctx))

	if resync <= 0 {
		resync = 15 * time.Second
	}
	ticker := time.NewTicker(resync)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				// dropped for falling behind; resubscribe and resync
				events, cancel = c.Subscribe()
				b.Sync(c.List(ctx))
				continue
			}
			b.Apply(ev)
		case <-ticker.C:
			b.Sync(c.List(ctx))
		}
	}
}
