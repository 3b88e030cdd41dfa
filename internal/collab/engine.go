package collab

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/legalmind/legalmind/backend/go-services/internal/collab/handler"
	"github.com/legalmind/legalmind/backend/go-services/internal/collaborators"
	"github.com/legalmind/legalmind/backend/go-services/internal/comments"
	"github.com/legalmind/legalmind/backend/go-services/internal/config"
	"github.com/legalmind/legalmind/backend/go-services/internal/deadlines"
	"github.com/legalmind/legalmind/backend/go-services/internal/notifications"
	"github.com/legalmind/legalmind/backend/go-services/internal/presence"
	"github.com/legalmind/legalmind/backend/go-services/internal/versions"
)

// Engine owns the five stores plus the deadline scanner and the cached
// unread badge.
type Engine struct {
	handler.Deps
	Badge *notifications.Badge
	cfg   config.CollabConfig
}

func NewEngine(b *Backend, cfg config.CollabConfig) *Engine {
	center := notifications.NewCenter(b.KV)
	ps := presence.NewStore(b.Presence, presence.WithWindows(cfg.PresenceLivenessWindow, cfg.PresenceActiveWindow))
	ds := deadlines.NewStore(b.KV, nil)
	return &Engine{
		Deps: handler.Deps{
			Documents:     b.Documents,
			Presence:      ps,
			Versions:      versions.NewLedger(b.KV, versions.WithNotifier(center)),
			Comments:      comments.NewThread(b.KV, comments.WithNotifier(center)),
			Collaborators: collaborators.NewDirectory(b.KV, ps, collaborators.WithNotifier(center), collaborators.WithInviteLatency(cfg.InviteLatency)),
			Notifications: center,
			Deadlines:     ds,
			Scanner:       deadlines.NewScanner(ds, b.KV, center, deadlines.WithLookahead(cfg.DeadlineLookaheadDays)),
		},
		Badge: &notifications.Badge{},
		cfg:   cfg,
	}
}

// Run keeps the badge in sync and runs the deadline scanner until ctx is
// done.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.Badge.Watch(ctx, e.Notifications, e.cfg.NotificationPollInterval)
	}()
	go func() {
		defer wg.Done()
		e.Scanner.Run(ctx, e.cfg.DeadlineScanInterval)
	}()
	wg.Wait()
}

// Register mounts the collab API and the badge endpoint.
func (e *Engine) Register(r gin.IRouter) {
	handler.New(e.Deps).Register(r)
	r.GET("/api/notifications/badge", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"unreadCount": e.Badge.Count(), "at": time.Now().UTC()})
	})
}
