package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/legalmind/legalmind/backend/go-services/handlers"
	"github.com/legalmind/legalmind/backend/go-services/internal/collab"
	"github.com/legalmind/legalmind/backend/go-services/internal/config"
	dochandler "github.com/legalmind/legalmind/backend/go-services/internal/document/handler"
	"github.com/legalmind/legalmind/backend/go-services/internal/oidc"
	"github.com/legalmind/legalmind/backend/go-services/pkg/logger"
	"github.com/legalmind/legalmind/backend/go-services/pkg/metrics"
	"github.com/legalmind/legalmind/backend/go-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: backend=%s keycloak=%v mongo=%v redis=%v postgres=%v minio=%v",
		cfg.Collab.Backend, cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Postgres.DSN != "", cfg.MinIO.Enabled())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := collab.OpenBackend(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open %s backend: %v", cfg.Collab.Backend, err)
	}
	defer backend.Close()

	verifier := buildVerifier(ctx, cfg)

	r := gin.New()
	r.Use(cors(), gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// ready only when every configured dependency is reachable
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{"backend": true}
		if backend.Redis != nil {
			deps["redis"] = backend.Redis.Ping(c.Request.Context()).Err() == nil
		}
		if cfg.Keycloak.URL != "" {
			deps["oidc"] = verifier != nil
		}
		ready := true
		for _, ok := range deps {
			ready = ready && ok
		}
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	api := r.Group("/")
	if verifier != nil {
		api.Use(middleware.AuthMiddleware(verifier))
	} else {
		logger.Warnf("no token verifier configured; API runs as %q", "anonymous")
		api.Use(middleware.AnonymousMiddleware())
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && backend.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			api.Use(middleware.RedisRateLimitMiddleware(backend.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			api.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}
	api.GET("/api/v1/me", func(c *gin.Context) {
		id, _ := middleware.CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"identity": id})
	})

	engine := collab.NewEngine(backend, cfg.Collab)
	dochandler.RegisterDocumentRoutes(api, engine.Documents)
	engine.Register(api)

	go engine.Run(ctx)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}
	go func() {
		logger.Infof("collab service listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// buildVerifier prefers Keycloak, then a shared JWT secret, then the insecure
// claims parser when ALLOW_INSECURE_TOKEN=true. It returns nil when none is
// configured.
func buildVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		issuer := cfg.Keycloak.URL
		if cfg.Keycloak.Realm != "" {
			issuer = oidc.IssuerURL(cfg.Keycloak.URL, cfg.Keycloak.Realm)
		}
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err == nil {
			return ver
		}
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
	}
	if cfg.JWT.Secret != "" {
		ver, err := oidc.NewHMACVerifier(cfg.JWT.Secret)
		if err == nil {
			return ver
		}
		logger.Warnf("JWT_SECRET rejected: %v", err)
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure token verifier (integration mode)")
		return oidc.NewInsecureVerifier()
	}
	return nil
}

// cors is a permissive policy for dev and test deployments.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
