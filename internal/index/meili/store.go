// Package meili implements the index.Store contract against a Meilisearch
// instance.
package meili

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"github.com/ihaney/Alpha.A1/internal/index"
)

// taskPollInterval is how often task status is polled while waiting.
const taskPollInterval = 50 * time.Millisecond

// Store is a Meilisearch-backed index store.
type Store struct {
	client meilisearch.ServiceManager
	logger *slog.Logger
}

// New creates a Meilisearch store for the given host and admin API key.
func New(host, apiKey string, logger *slog.Logger) *Store {
	return &Store{
		client: meilisearch.New(host, meilisearch.WithAPIKey(apiKey)),
		logger: logger,
	}
}

// Ping checks connectivity to the Meilisearch instance.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.HealthWithContext(ctx); err != nil {
		return fmt.Errorf("meilisearch health: %w", err)
	}
	return nil
}

// EnsureIndex creates the index with its primary key. An already-existing
// index is not an error.
func (s *Store) EnsureIndex(ctx context.Context, cfg index.IndexConfig) error {
	info, err := s.client.CreateIndexWithContext(ctx, &meilisearch.IndexConfig{
		Uid:        cfg.Name,
		PrimaryKey: cfg.PrimaryKey,
	})
	if err != nil {
		if isAPIErrorCode(err, "index_already_exists") {
			return nil
		}
		return fmt.Errorf("create index %s: %w", cfg.Name, err)
	}

	task, err := s.client.WaitForTaskWithContext(ctx, info.TaskUID, taskPollInterval)
	if err != nil {
		return fmt.Errorf("create index %s: %w", cfg.Name, err)
	}
	if task.Status != meilisearch.TaskStatusSucceeded {
		// Concurrent creation settles as already_exists at task level.
		if task.Error.Code == "index_already_exists" {
			return nil
		}
		return fmt.Errorf("create index %s: %s", cfg.Name, task.Error.Message)
	}

	s.logger.Info("index created",
		slog.String("index", cfg.Name),
		slog.String("primary_key", cfg.PrimaryKey),
	)
	return nil
}

// ApplySettings pushes the managed settings to the index and waits for the
// settings task to settle.
func (s *Store) ApplySettings(ctx context.Context, cfg index.IndexConfig) error {
	settings := &meilisearch.Settings{
		SearchableAttributes: cfg.Settings.SearchableAttributes,
		FilterableAttributes: cfg.Settings.FilterableAttributes,
		SortableAttributes:   cfg.Settings.SortableAttributes,
		RankingRules:         cfg.Settings.RankingRules,
	}
	if len(cfg.Settings.DisplayedAttributes) > 0 {
		settings.DisplayedAttributes = cfg.Settings.DisplayedAttributes
	}
	if tt := cfg.Settings.TypoTolerance; tt != nil {
		settings.TypoTolerance = &meilisearch.TypoTolerance{
			Enabled: tt.Enabled,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  tt.OneTypo,
				TwoTypos: tt.TwoTypos,
			},
		}
	}
	if cfg.Settings.MaxTotalHits > 0 {
		settings.Pagination = &meilisearch.Pagination{
			MaxTotalHits: cfg.Settings.MaxTotalHits,
		}
	}

	info, err := s.client.Index(cfg.Name).UpdateSettingsWithContext(ctx, settings)
	if err != nil {
		return fmt.Errorf("update settings for %s: %w", cfg.Name, err)
	}
	if err := s.WaitForTask(ctx, info.TaskUID); err != nil {
		return fmt.Errorf("update settings for %s: %w", cfg.Name, err)
	}
	return nil
}

// AddDocuments bulk-upserts documents and returns the async task handle.
func (s *Store) AddDocuments(ctx context.Context, indexName string, docs []index.Document) (int64, error) {
	info, err := s.client.Index(indexName).AddDocumentsWithContext(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("add documents to %s: %w", indexName, err)
	}
	return info.TaskUID, nil
}

// UpdateDocuments issues partial document updates and waits for completion.
func (s *Store) UpdateDocuments(ctx context.Context, indexName string, docs []index.Document) error {
	info, err := s.client.Index(indexName).UpdateDocumentsWithContext(ctx, docs)
	if err != nil {
		return fmt.Errorf("update documents in %s: %w", indexName, err)
	}
	if err := s.WaitForTask(ctx, info.TaskUID); err != nil {
		return fmt.Errorf("update documents in %s: %w", indexName, err)
	}
	return nil
}

// DeleteDocument removes one document by id. Meilisearch treats deletion of
// a missing id as a successful task, matching the contract.
func (s *Store) DeleteDocument(ctx context.Context, indexName, id string) error {
	info, err := s.client.Index(indexName).DeleteDocumentWithContext(ctx, id)
	if err != nil {
		return fmt.Errorf("delete document %s from %s: %w", id, indexName, err)
	}
	if err := s.WaitForTask(ctx, info.TaskUID); err != nil {
		return fmt.Errorf("delete document %s from %s: %w", id, indexName, err)
	}
	return nil
}

// DeleteAllDocuments irrevocably clears the index.
func (s *Store) DeleteAllDocuments(ctx context.Context, indexName string) error {
	info, err := s.client.Index(indexName).DeleteAllDocumentsWithContext(ctx)
	if err != nil {
		return fmt.Errorf("clear index %s: %w", indexName, err)
	}
	if err := s.WaitForTask(ctx, info.TaskUID); err != nil {
		return fmt.Errorf("clear index %s: %w", indexName, err)
	}
	return nil
}

// WaitForTask polls the task until it settles and returns an error for a
// failed task.
func (s *Store) WaitForTask(ctx context.Context, taskID int64) error {
	task, err := s.client.WaitForTaskWithContext(ctx, taskID, taskPollInterval)
	if err != nil {
		return fmt.Errorf("wait for task %d: %w", taskID, err)
	}
	if task.Status != meilisearch.TaskStatusSucceeded {
		return fmt.Errorf("task %d %s: %s", taskID, task.Status, task.Error.Message)
	}
	return nil
}

// Stats returns index-level counters.
func (s *Store) Stats(ctx context.Context, indexName string) (index.Stats, error) {
	stats, err := s.client.Index(indexName).GetStatsWithContext(ctx)
	if err != nil {
		return index.Stats{}, fmt.Errorf("stats for %s: %w", indexName, err)
	}
	return index.Stats{NumberOfDocuments: stats.NumberOfDocuments}, nil
}

// isAPIErrorCode reports whether err is a Meilisearch API error with the
// given code.
func isAPIErrorCode(err error, code string) bool {
	var apiErr *meilisearch.Error
	return errors.As(err, &apiErr) && apiErr.MeilisearchApiError.Code == code
}
