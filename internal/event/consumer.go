// Package event consumes catalog change events from the Kafka change feed
// and applies them to the search index. The feed delivers at-least-once, so
// application is deduplicated by event id and each mutation is idempotent.
package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ihaney/Alpha.A1/internal/domain"
	"github.com/ihaney/Alpha.A1/internal/service"
	apperrors "github.com/ihaney/Alpha.A1/pkg/errors"
	"github.com/ihaney/Alpha.A1/pkg/kafka"
	"github.com/ihaney/Alpha.A1/pkg/logger"
)

// TopicCatalogChanges is the change-feed topic for product row mutations.
const TopicCatalogChanges = "catalog.product.changes"

// ChangeConsumer applies change-feed events through the sync service.
type ChangeConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewChangeConsumer creates the change-feed consumer. The handler is wrapped
// with idempotency so redelivered events are applied once.
func NewChangeConsumer(
	cfg kafka.ConsumerConfig,
	syncService *service.SyncService,
	store kafka.IdempotencyStore,
	log *slog.Logger,
) *ChangeConsumer {
	handler := kafka.IdempotentHandler(store, applyHandler(syncService), log)
	return &ChangeConsumer{
		consumer: kafka.NewConsumer(cfg, handler, log),
		logger:   log,
	}
}

// Start blocks consuming the change feed until the context is canceled.
func (c *ChangeConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// Close shuts the underlying reader down.
func (c *ChangeConsumer) Close() error {
	return c.consumer.Close()
}

// applyHandler decodes the event payload into a change event and applies it.
// Validation failures are terminal: retrying a malformed event can never
// succeed, so it is logged and committed rather than redelivered.
func applyHandler(syncService *service.SyncService) kafka.Handler {
	return func(ctx context.Context, event *kafka.Event) error {
		if event.CorrelationID != "" {
			ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
		}

		var change domain.ChangeEvent
		if err := event.UnmarshalData(&change); err != nil {
			return fmt.Errorf("decode change event %s: %w", event.EventID, err)
		}

		err := syncService.ApplyChange(ctx, change)
		if err != nil && errors.Is(err, apperrors.ErrInvalidInput) {
			logger.FromContext(ctx).Warn("dropping malformed change event",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		return err
	}
}
