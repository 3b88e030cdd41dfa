package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/legalmind/legalmind/backend/go-services/internal/notifications"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

// PresencePushInterval is how often the presence stream pushes a snapshot
// when nothing else happens.
var PresencePushInterval = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type streamMessage struct {
	Type          string                       `json:"type"`
	Notification  *notifications.Notification  `json:"notification,omitempty"`
	Notifications []notifications.Notification `json:"notifications,omitempty"`
	Count         int                          `json:"count,omitempty"`
	UnreadCount   int                          `json:"unreadCount"`
}

// readPump drains inbound frames so control messages are processed. Each
// text frame is forwarded to inbound when it is non-nil. done is closed when
// the peer goes away.
func readPump(conn *websocket.Conn, inbound chan<- []byte, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if inbound != nil {
			select {
			case inbound <- msg:
			default:
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func ping(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// notificationStream pushes every notification transition with the running
// unread count. A subscriber dropped for falling behind is disconnected and
// is expected to reconnect for a fresh snapshot.
func (h *Handler) notificationStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("notification stream upgrade: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.Notifications.Subscribe()
	defer cancel()

	ctx := c.Request.Context()
	var badge notifications.Badge
	list := h.Notifications.List(ctx)
	badge.Sync(list)
	if err := writeJSON(conn, streamMessage{Type: "snapshot", Notifications: list, UnreadCount: badge.Count()}); err != nil {
		return
	}

	done := make(chan struct{})
	go readPump(conn, nil, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber dropped"), time.Now().Add(writeWait))
				return
			}
			badge.Apply(ev)
			msg := streamMessage{
				Type:         string(ev.Type),
				Notification: ev.Notification,
				Count:        ev.Count,
				UnreadCount:  badge.Count(),
			}
			if err := writeJSON(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := ping(conn); err != nil {
				return
			}
		}
	}
}

// presenceStream joins the caller on connect, treats every inbound frame as
// a heartbeat and pushes the live editor list after each heartbeat and on a
// fixed interval. Disconnecting leaves the document.
func (h *Handler) presenceStream(c *gin.Context) {
	docID := documentID(c)
	who := caller(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("presence stream upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	if _, err := h.Presence.Join(ctx, docID, who); err != nil {
		_ = writeJSON(conn, gin.H{"type": "error", "error": err.Error()})
		return
	}
	defer h.Presence.Leave(context.Background(), docID, who.ID)

	push := func() error {
		return writeJSON(conn, presenceSnapshot{Type: "presence", Editors: h.Presence.ListActive(ctx, docID)})
	}
	if err := push(); err != nil {
		return
	}

	inbound := make(chan []byte, 8)
	done := make(chan struct{})
	go readPump(conn, inbound, done)

	pushTicker := time.NewTicker(PresencePushInterval)
	defer pushTicker.Stop()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()
	for {
		select {
		case <-done:
			return
		case <-inbound:
			if !h.Presence.Heartbeat(ctx, docID, who.ID) {
				_, _ = h.Presence.Join(ctx, docID, who)
			}
			if err := push(); err != nil {
				return
			}
		case <-pushTicker.C:
			if err := push(); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := ping(conn); err != nil {
				return
			}
		}
	}
}
