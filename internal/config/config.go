package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/legalmind/legalmind/backend/go-services/internal/storage"
	"github.com/legalmind/legalmind/backend/go-services/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	MinIO     storage.MinIOConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Collab    CollabConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type PostgresConfig struct {
	DSN     string
	Timeout time.Duration
}

type KeycloakConfig struct {
	URL      string
	Realm    string
	ClientID string
}

type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// Backend names accepted by COLLAB_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMinIO    = "minio"
)

// CollabConfig tunes the collaborative document engine.
type CollabConfig struct {
	Backend                  string
	PresenceLivenessWindow   time.Duration
	PresenceActiveWindow     time.Duration
	NotificationPollInterval time.Duration
	DeadlineScanInterval     time.Duration
	DeadlineLookaheadDays    int
	InviteLatency            time.Duration
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5020")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "legalmind")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("POSTGRES_TIMEOUT", 10)
	viper.SetDefault("MINIO_BUCKET", "legalmind")
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_RPS", 20.0)
	viper.SetDefault("RATE_LIMIT_BURST", 40)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("COLLAB_BACKEND", BackendMemory)
	viper.SetDefault("PRESENCE_LIVENESS_WINDOW", "2m")
	viper.SetDefault("PRESENCE_ACTIVE_WINDOW", "30s")
	viper.SetDefault("NOTIFICATION_POLL_INTERVAL", "15s")
	viper.SetDefault("DEADLINE_SCAN_INTERVAL", "1h")
	viper.SetDefault("DEADLINE_LOOKAHEAD_DAYS", 7)
	viper.SetDefault("INVITE_LATENCY", "800ms")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Postgres: PostgresConfig{
			DSN:     viper.GetString("POSTGRES_DSN"),
			Timeout: time.Duration(viper.GetInt("POSTGRES_TIMEOUT")) * time.Second,
		},
		MinIO: storage.MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
		},
		Keycloak: KeycloakConfig{
			URL:      viper.GetString("KEYCLOAK_URL"),
			Realm:    viper.GetString("KEYCLOAK_REALM"),
			ClientID: viper.GetString("KEYCLOAK_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Collab: CollabConfig{
			Backend:                  viper.GetString("COLLAB_BACKEND"),
			PresenceLivenessWindow:   viper.GetDuration("PRESENCE_LIVENESS_WINDOW"),
			PresenceActiveWindow:     viper.GetDuration("PRESENCE_ACTIVE_WINDOW"),
			NotificationPollInterval: viper.GetDuration("NOTIFICATION_POLL_INTERVAL"),
			DeadlineScanInterval:     viper.GetDuration("DEADLINE_SCAN_INTERVAL"),
			DeadlineLookaheadDays:    viper.GetInt("DEADLINE_LOOKAHEAD_DAYS"),
			InviteLatency:            viper.GetDuration("INVITE_LATENCY"),
		},
	}

	switch cfg.Collab.Backend {
	case BackendMemory, BackendRedis, BackendMongo, BackendPostgres, BackendMinIO:
	default:
		logger.Warnf("unknown COLLAB_BACKEND %q; falling back to %s", cfg.Collab.Backend, BackendMemory)
		cfg.Collab.Backend = BackendMemory
	}
	if cfg.Collab.PresenceActiveWindow > cfg.Collab.PresenceLivenessWindow {
		cfg.Collab.PresenceActiveWindow = cfg.Collab.PresenceLivenessWindow
	}

	if cfg.JWT.Secret == "" && cfg.Keycloak.URL == "" {
		logger.Warnf("neither JWT_SECRET nor KEYCLOAK_URL is set; requests run as the anonymous identity")
	}

	return cfg, nil
}
