package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/belzunces/monsieurchef/config"
	"github.com/belzunces/monsieurchef/internal/api"
	"github.com/belzunces/monsieurchef/internal/controller"
	"github.com/belzunces/monsieurchef/internal/database"
	"github.com/belzunces/monsieurchef/internal/kv"
	"github.com/belzunces/monsieurchef/internal/middleware"
	"github.com/belzunces/monsieurchef/internal/router"
	"github.com/belzunces/monsieurchef/internal/server"
	"github.com/belzunces/monsieurchef/internal/service"
	"github.com/belzunces/monsieurchef/internal/web"
)

const redisKeyPrefix = "monsieurchef"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if config.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
		gin.SetMode(gin.ReleaseMode)
	}
	slog.SetDefault(slog.New(handler))
}

func run(ctx context.Context, cfg *config.Config) error {
	var redisClient *redis.Client
	if cfg.StorageBackend == config.StorageRedis || cfg.RedisURL != "" {
		client, err := database.NewRedisClient(ctx, cfg)
		if err != nil {
			if cfg.StorageBackend == config.StorageRedis {
				return fmt.Errorf("connecting to redis: %w", err)
			}
			slog.Warn("redis unavailable, conversion rate limit disabled", "error", err)
		} else {
			redisClient = client
			defer redisClient.Close()
		}
	}

	backing, err := openStore(cfg, redisClient)
	if err != nil {
		return err
	}
	store := service.NewRecipeStore(backing, service.WithSessionTTL(max(service.DefaultSessionTTL, cfg.JWTTTL)))

	converter, err := service.NewGeminiConverter(ctx, service.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.GeminiTimeout,
	})
	if err != nil {
		return err
	}

	var archive service.IPhotoArchive
	if cfg.S3Bucket != "" {
		s3Cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return fmt.Errorf("configuring photo archive: %w", err)
		}
		archive = service.NewS3PhotoArchive(s3Cfg, "")
		slog.Info("photo archive enabled", "bucket", cfg.S3Bucket)
	}

	var limiter *middleware.RateLimiter
	if redisClient != nil && cfg.ConvertRateLimit > 0 {
		limiter = middleware.NewConversionRateLimiter(redisClient, cfg.ConvertRateLimit)
	}

	registry := controller.NewRegistry(store, converter, archive)
	engine, err := router.SetupRouter(
		web.NewHandler(registry, cfg.CookieSecure, web.WithConvertLimiter(limiter)),
		api.Dependencies{
			Auth:           service.NewAuthService(store, cfg.JWTSecret, cfg.JWTTTL),
			Store:          store,
			Converter:      converter,
			ConvertLimiter: limiter,
			AllowedOrigins: cfg.AllowedOrigins,
		},
	)
	if err != nil {
		return err
	}

	slog.Info("starting MonsieurChef",
		"storage", cfg.StorageBackend,
		"model", cfg.GeminiModel,
		"prompt_version", service.PromptVersion)
	return server.New(cfg, engine, registry).Start(ctx)
}

// openStore selects the key-value backend named by cfg.StorageBackend.
func openStore(cfg *config.Config, redisClient *redis.Client) (kv.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		slog.Warn("using in-memory storage, data is lost on restart")
		return kv.NewMemoryStore(), nil
	case config.StorageRedis:
		return kv.NewRedisStore(redisClient, redisKeyPrefix), nil
	case config.StorageSQLite, config.StoragePostgres:
		db, err := database.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return kv.NewSQLStore(db)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
