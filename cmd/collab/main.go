// Command collab runs the collaborative document engine in-process with the
// memory backend and a shared-secret token issuer. It is meant for local UI
// development; the root service is the deployable one.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/legalmind/legalmind/backend/go-services/internal/collab"
	"github.com/legalmind/legalmind/backend/go-services/internal/config"
	"github.com/legalmind/legalmind/backend/go-services/internal/document"
	dochandler "github.com/legalmind/legalmind/backend/go-services/internal/document/handler"
	"github.com/legalmind/legalmind/backend/go-services/internal/identity"
	"github.com/legalmind/legalmind/backend/go-services/internal/oidc"
	"github.com/legalmind/legalmind/backend/go-services/pkg/logger"
	"github.com/legalmind/legalmind/backend/go-services/pkg/middleware"
)

const devSecret = "legalmind-local-development-secret-key"

func main() {
	port := flag.String("port", "5010", "listen port")
	user := flag.String("user", "dev", "subject of the printed access token")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg := &config.Config{}
	cfg.Collab = config.CollabConfig{
		Backend:                  config.BackendMemory,
		PresenceLivenessWindow:   2 * time.Minute,
		PresenceActiveWindow:     30 * time.Second,
		NotificationPollInterval: 15 * time.Second,
		DeadlineScanInterval:     time.Hour,
		DeadlineLookaheadDays:    7,
		InviteLatency:            800 * time.Millisecond,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend, err := collab.OpenBackend(ctx, cfg)
	if err != nil {
		logger.Fatalf("open backend: %v", err)
	}
	defer backend.Close()

	ver, err := oidc.NewHMACVerifier(devSecret)
	if err != nil {
		logger.Fatalf("verifier: %v", err)
	}
	token, err := ver.Issue(identity.Identity{ID: *user, Name: *user}, 24*time.Hour)
	if err != nil {
		logger.Fatalf("issue token: %v", err)
	}

	engine := collab.NewEngine(backend, cfg.Collab)
	sample, err := engine.Documents.Create(ctx, &document.Document{Title: "Sample engagement letter", OwnerID: *user})
	if err != nil {
		logger.Fatalf("seed document: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	api := r.Group("/", middleware.AuthMiddleware(ver))
	dochandler.RegisterDocumentRoutes(api, engine.Documents)
	engine.Register(api)
	go engine.Run(ctx)

	fmt.Printf("document: %s\n", sample.ID)
	fmt.Printf("token:    %s\n", token)
	logger.Infof("collab dev server listening on :%s", *port)
	go func() {
		if err := r.Run(":" + *port); err != nil {
			logger.Fatalf("server: %v", err)
		}
	}()
	<-ctx.Done()
}
