package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/KartikGSparrow/AuthAppWithTasks/internal/auth"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/cache"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/config"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/event"
	httphandler "github.com/KartikGSparrow/AuthAppWithTasks/internal/handler/http"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/repository/postgres"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/service"
	"github.com/KartikGSparrow/AuthAppWithTasks/migrations"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/database"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/health"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/kafka"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/middleware"
)

// ServiceName identifies this service in logs, metrics, and events.
const ServiceName = "auth-service"

// App holds the wired service and its owned resources.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	redis    *redis.Client
	producer *kafka.Producer
	server   *http.Server
}

// New wires the full service: database pool with migrations, optional Redis
// cache and Kafka producer, the domain services, and the HTTP server.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	database.RegisterPoolMetrics(pool, ServiceName)

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			// The cache is an accelerator, not a dependency.
			logger.Warn("redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	var producer *kafka.Producer
	var publisher service.EventPublisher
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewPublisher(producer, logger)
	}

	userRepo := postgres.NewUserRepository(pool)
	tokenRepo := postgres.NewRefreshTokenRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)

	hasher := auth.NewHasher(cfg.HashIterations)
	jwtManager := auth.NewJWTManager(cfg.SigningKey(), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenTTL)

	var tokenCache service.RefreshTokenCache
	if redisClient != nil {
		tokenCache = cache.NewRefreshTokenCache(redisClient, cfg.RefreshTokenTTL)
	}

	tokenService := service.NewTokenService(userRepo, tokenRepo, tokenCache, hasher, jwtManager, cfg.RefreshTokenTTL, logger)
	sessionService := service.NewSessionService(userRepo, tokenService, hasher, publisher, logger)
	taskService := service.NewTaskService(taskRepo, logger)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", pool.Ping)
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	router := httphandler.NewRouter(httphandler.RouterConfig{
		ServiceName: ServiceName,
		Logger:      logger,
		Auth:        httphandler.NewAuthHandler(sessionService),
		Tasks:       httphandler.NewTaskHandler(taskService),
		Health:      healthHandler,
		ValidateToken: func(token string) (*middleware.Claims, error) {
			userID, claims, err := tokenService.ValidateAccessToken(token)
			if err != nil {
				return nil, err
			}
			return &middleware.Claims{UserID: userID, Email: claims.Email}, nil
		},
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		RequestTimeout: cfg.RequestTimeout,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		server:   server,
	}, nil
}

// Run serves HTTP until the context is canceled, then shuts down gracefully:
// drain in-flight requests, close the Kafka producer, close the stores.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.close()
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("failed to close kafka producer", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("failed to close redis client", "error", err)
		}
	}
	a.pool.Close()
}
