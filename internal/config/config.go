// Package config loads the sync service configuration from the environment.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/ihaney/Alpha.A1/pkg/config"
	"github.com/ihaney/Alpha.A1/pkg/database"
)

// Config holds all configuration for the sync service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SYNC_HTTP_PORT" envDefault:"8020"`

	// Webhook surface
	CORSOrigin         string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
	WebhookSecret      string `env:"WEBHOOK_JWT_SECRET"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`

	// Catalog database
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"catalog"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"catalog_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"catalog"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Search index service
	MeilisearchHost   string `env:"MEILISEARCH_HOST" envDefault:"http://localhost:7700"`
	MeilisearchAPIKey string `env:"MEILISEARCH_API_KEY"`

	// Full reindex batching
	ReindexBatchSize  int           `env:"REINDEX_BATCH_SIZE" envDefault:"1000"`
	ReindexBatchDelay time.Duration `env:"REINDEX_BATCH_DELAY" envDefault:"1s"`

	// Kafka change feed (optional; webhook-only deployments leave it off)
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"catalog-sync"`

	// Redis, for cross-instance event deduplication
	RedisEnabled bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass    string `env:"REDIS_PASSWORD"`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`

	// Embedding webhook (disabled without a key)
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	// Tracing
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate     float64 `env:"TRACE_SAMPLE_RATE" envDefault:"0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load sync config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PostgresConfig assembles the catalog pool configuration.
func (c *Config) PostgresConfig() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPassword
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSLMode
	return pg
}

// RedisConfig assembles the deduplication store configuration.
func (c *Config) RedisConfig() database.RedisConfig {
	return database.RedisConfig{
		Addr:     c.RedisAddr,
		Password: c.RedisPass,
		DB:       c.RedisDB,
	}
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.ReindexBatchSize < 1 {
		return fmt.Errorf("invalid reindex batch size: %d", c.ReindexBatchSize)
	}
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("invalid rate limit: %d", c.RateLimitPerMinute)
	}
	if c.MeilisearchHost == "" {
		return fmt.Errorf("meilisearch host is required")
	}
	return nil
}
