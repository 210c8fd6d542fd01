// Package app wires together all dependencies and runs the sync service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ihaney/Alpha.A1/internal/audit"
	"github.com/ihaney/Alpha.A1/internal/config"
	"github.com/ihaney/Alpha.A1/internal/event"
	handler "github.com/ihaney/Alpha.A1/internal/handler/http"
	"github.com/ihaney/Alpha.A1/internal/index"
	"github.com/ihaney/Alpha.A1/internal/index/meili"
	"github.com/ihaney/Alpha.A1/internal/repository/postgres"
	"github.com/ihaney/Alpha.A1/internal/service"
	"github.com/ihaney/Alpha.A1/pkg/database"
	apperrors "github.com/ihaney/Alpha.A1/pkg/errors"
	"github.com/ihaney/Alpha.A1/pkg/health"
	pkgkafka "github.com/ihaney/Alpha.A1/pkg/kafka"
	"github.com/ihaney/Alpha.A1/pkg/ratelimit"
	"github.com/ihaney/Alpha.A1/pkg/tracing"
)

// idempotencyTTL is how long processed event ids stay deduplicated. The
// change feed redelivers within seconds, so a day is comfortably past any
// rebalance window.
const idempotencyTTL = 24 * time.Hour

// App wires together all dependencies and runs the sync service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	pool            *pgxpool.Pool
	limiter         *ratelimit.Limiter
	consumer        *event.ChangeConsumer
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.WebhookSecret == "" {
		return nil, errors.New("WEBHOOK_JWT_SECRET is required")
	}

	app := &App{cfg: cfg, logger: logger}

	if cfg.TracingEnabled {
		shutdown, err := tracing.InitTracer(ctx, tracing.Config{
			ServiceName:  "catalog-sync",
			Environment:  cfg.Environment,
			OTLPEndpoint: cfg.OTLPEndpoint,
			SampleRate:   cfg.SampleRate,
			Enabled:      true,
		})
		if err != nil {
			return nil, apperrors.Wrap(err, "init tracing")
		}
		app.tracingShutdown = shutdown
	}

	// Catalog database.
	pgCfg := cfg.PostgresConfig()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, apperrors.Wrap(err, "connect catalog database")
	}
	app.pool = pool

	catalogRepo := postgres.NewCatalogRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	auditLogger := audit.NewLogger(auditRepo, logger)

	// Search index store, behind a circuit breaker.
	meiliStore := meili.New(cfg.MeilisearchHost, cfg.MeilisearchAPIKey, logger)
	store := index.WithBreaker(meiliStore, index.DefaultBreakerConfig("meilisearch"))
	logger.Info("meilisearch store initialized", slog.String("host", cfg.MeilisearchHost))

	syncService := service.NewSyncService(catalogRepo, store, auditLogger, logger, service.SyncConfig{
		BatchSize:  cfg.ReindexBatchSize,
		BatchDelay: cfg.ReindexBatchDelay,
	})

	var embeddingService *service.EmbeddingService
	if cfg.OpenAIAPIKey != "" {
		embeddingService = service.NewEmbeddingService(openai.NewClient(cfg.OpenAIAPIKey), logger)
		logger.Info("embedding webhook enabled")
	}

	// Event deduplication store: Redis when configured, in-process otherwise.
	var idemStore pkgkafka.IdempotencyStore
	if cfg.RedisEnabled {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisConfig())
		if err != nil {
			return nil, apperrors.Wrap(err, "connect redis")
		}
		idemStore = pkgkafka.NewRedisIdempotencyStore(redisClient, "sync", idempotencyTTL)
	} else {
		idemStore = pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
	}

	if cfg.KafkaEnabled {
		app.consumer = event.NewChangeConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topic:    event.TopicCatalogChanges,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}, syncService, idemStore, logger)
		logger.Info("kafka change-feed consumer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", pool.Ping)
	healthHandler.Register("meilisearch", meiliStore.Ping)
	if cfg.KafkaEnabled {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
	}

	app.limiter = ratelimit.PerMinute(cfg.RateLimitPerMinute)

	router := handler.NewRouter(syncService, embeddingService, healthHandler, handler.RouterConfig{
		CORSOrigin:    cfg.CORSOrigin,
		Limiter:       app.limiter,
		ValidateToken: TokenValidator(cfg.WebhookSecret),
	}, logger)

	app.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return app, nil
}

// TokenValidator returns a bearer-token verifier for HS256-signed webhook
// tokens. The subject claim identifies the caller.
func TokenValidator(secret string) func(token string) (string, error) {
	key := []byte(secret)
	return func(tokenString string) (string, error) {
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil {
			return "", fmt.Errorf("parse token: %w", err)
		}
		if !token.Valid {
			return "", errors.New("invalid token")
		}
		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			return "service", nil
		}
		return subject, nil
	}
}

// Run starts the HTTP server and the change-feed consumer, blocking until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("change-feed consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.limiter.Stop()
	a.pool.Close()

	if a.tracingShutdown != nil {
		if err := a.tracingShutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
