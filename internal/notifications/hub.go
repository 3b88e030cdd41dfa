package notifications

import (
	"sync"
	"time"
)

type EventType string

const (
	EventCreated EventType = "created"
	EventRead    EventType = "read"
	EventAllRead EventType = "all_read"
	EventRemoved EventType = "removed"
	EventCleared EventType = "cleared"
)

// Event describes one state transition of the notification list.
type Event struct {
	Type         EventType     `json:"type"`
	Notification *Notification `json:"notification,omitempty"`
	// WasUnread is set on removed events.
	WasUnread bool `json:"wasUnread,omitempty"`
	// Count is the number of notifications affected by all_read and cleared.
	Count int       `json:"count,omitempty"`
	At    time.Time `json:"at"`
}

const subscriberBuffer = 64

// Hub fans events out to subscribers. A subscriber that falls a full buffer
// behind is dropped and its channel closed.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new listener. The returned cancel func is idempotent.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() { h.drop(ch) }
}

func (h *Hub) drop(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// Subscribers returns the current listener count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
