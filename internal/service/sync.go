// Package service implements the catalog synchronization pipeline: full
// reindex, incremental change application, and supplier enrichment.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/ihaney/Alpha.A1/internal/audit"
	"github.com/ihaney/Alpha.A1/internal/domain"
	"github.com/ihaney/Alpha.A1/internal/index"
	"github.com/ihaney/Alpha.A1/internal/repository"
	apperrors "github.com/ihaney/Alpha.A1/pkg/errors"
)

const (
	// DefaultBatchSize is the page size for full reindex reads and writes.
	DefaultBatchSize = 1000

	// DefaultBatchDelay is the pause between reindex batches, keeping bulk
	// load pressure off the index service.
	DefaultBatchDelay = time.Second
)

var (
	documentsIndexed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_documents_indexed_total",
		Help: "Total documents written to the search index, by index.",
	}, []string{"index"})

	changeEventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_change_events_total",
		Help: "Total change events processed, by type and outcome.",
	}, []string{"type", "outcome"})

	reindexDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_reindex_duration_seconds",
		Help:    "Duration of full reindex runs.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// SyncConfig tunes the batch behavior of the full reindex.
type SyncConfig struct {
	BatchSize  int
	BatchDelay time.Duration
}

// DefaultSyncConfig returns the production batch settings.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		BatchSize:  DefaultBatchSize,
		BatchDelay: DefaultBatchDelay,
	}
}

// SyncService drives catalog-to-index synchronization.
type SyncService struct {
	catalog repository.CatalogRepository
	store   index.Store
	audit   *audit.Logger
	logger  *slog.Logger
	cfg     SyncConfig
}

// NewSyncService creates the synchronization service.
func NewSyncService(
	catalog repository.CatalogRepository,
	store index.Store,
	auditLogger *audit.Logger,
	logger *slog.Logger,
	cfg SyncConfig,
) *SyncService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &SyncService{
		catalog: catalog,
		store:   store,
		audit:   auditLogger,
		logger:  logger,
		cfg:     cfg,
	}
}

// SetupIndexes ensures every catalog index exists with its settings applied.
// Safe to run repeatedly.
func (s *SyncService) SetupIndexes(ctx context.Context) error {
	for _, cfg := range index.Indexes {
		if err := s.store.EnsureIndex(ctx, cfg); err != nil {
			return fmt.Errorf("ensure index %s: %w", cfg.Name, err)
		}
		if err := s.store.ApplySettings(ctx, cfg); err != nil {
			return fmt.Errorf("apply settings %s: %w", cfg.Name, err)
		}
		s.logger.InfoContext(ctx, "index ready", slog.String("index", cfg.Name))
	}
	return nil
}

// ReindexResult summarizes a full reindex run.
type ReindexResult struct {
	TotalRows  int
	Indexed    int
	Batches    int
	FinalCount int64
}

// ReindexProducts rebuilds the products index from scratch: settings are
// reapplied, the index is cleared, and every catalog row is re-read in
// primary-key order and written back in batches. Any failure aborts the run;
// rerunning after a partial failure converges because document ids equal the
// source primary keys.
func (s *SyncService) ReindexProducts(ctx context.Context) (ReindexResult, error) {
	start := time.Now()

	result, err := s.reindexProducts(ctx)
	if err != nil {
		s.audit.Critical(ctx, err, map[string]any{
			"job":     "full_reindex",
			"indexed": result.Indexed,
		})
		return result, err
	}

	reindexDuration.Observe(time.Since(start).Seconds())
	s.logger.InfoContext(ctx, "full reindex complete",
		slog.Int("total_rows", result.TotalRows),
		slog.Int("indexed", result.Indexed),
		slog.Int("batches", result.Batches),
		slog.Int64("final_count", result.FinalCount),
		slog.Duration("took", time.Since(start)),
	)
	return result, nil
}

func (s *SyncService) reindexProducts(ctx context.Context) (ReindexResult, error) {
	var result ReindexResult

	cfg := index.Indexes[index.IndexProducts]
	if err := s.store.ApplySettings(ctx, cfg); err != nil {
		return result, apperrors.Upstream(fmt.Errorf("apply settings: %w", err))
	}

	if err := s.store.DeleteAllDocuments(ctx, index.IndexProducts); err != nil {
		return result, apperrors.Upstream(fmt.Errorf("clear index: %w", err))
	}

	total, err := s.catalog.CountProducts(ctx)
	if err != nil {
		return result, apperrors.Upstream(err)
	}
	result.TotalRows = total
	s.logger.InfoContext(ctx, "starting full reindex", slog.Int("total_rows", total))

	for from := 0; from < total; from += s.cfg.BatchSize {
		to := from + s.cfg.BatchSize - 1
		if to >= total {
			to = total - 1
		}

		rows, err := s.catalog.ListProductRows(ctx, from, to)
		if err != nil {
			return result, apperrors.Upstream(fmt.Errorf("fetch rows [%d, %d]: %w", from, to, err))
		}
		if len(rows) == 0 {
			break
		}

		docs := make([]index.Document, 0, len(rows))
		for _, row := range rows {
			docs = append(docs, row.SearchDocument())
		}

		taskID, err := s.store.AddDocuments(ctx, index.IndexProducts, docs)
		if err != nil {
			return result, apperrors.Upstream(fmt.Errorf("index batch [%d, %d]: %w", from, to, err))
		}
		if err := s.store.WaitForTask(ctx, taskID); err != nil {
			return result, apperrors.Upstream(fmt.Errorf("batch task [%d, %d]: %w", from, to, err))
		}

		result.Indexed += len(docs)
		result.Batches++
		documentsIndexed.WithLabelValues(index.IndexProducts).Add(float64(len(docs)))
		s.logger.InfoContext(ctx, "indexed batch",
			slog.Int("from", from),
			slog.Int("to", to),
			slog.Int("indexed_so_far", result.Indexed),
		)

		if s.cfg.BatchDelay > 0 && from+s.cfg.BatchSize < total {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(s.cfg.BatchDelay):
			}
		}
	}

	stats, err := s.store.Stats(ctx, index.IndexProducts)
	if err != nil {
		return result, apperrors.Upstream(fmt.Errorf("index stats: %w", err))
	}
	result.FinalCount = stats.NumberOfDocuments

	return result, nil
}

// ApplyChange applies one validated change event as a single idempotent index
// mutation. Lookup resolution failures on INSERT fall back to "Unknown";
// UPDATE omits unresolved fields so the previously stored value survives the
// merge; DELETE of an absent document succeeds.
func (s *SyncService) ApplyChange(ctx context.Context, event domain.ChangeEvent) error {
	if err := event.Validate(); err != nil {
		changeEventsProcessed.WithLabelValues(string(event.Type), "rejected").Inc()
		return err
	}

	err := s.applyChange(ctx, event)
	if err != nil {
		changeEventsProcessed.WithLabelValues(string(event.Type), "failed").Inc()
		s.audit.Error(ctx, err, map[string]any{
			"handler":    "catalog_change",
			"event_type": string(event.Type),
			"product_id": event.ProductID(),
		})
		return err
	}

	changeEventsProcessed.WithLabelValues(string(event.Type), "applied").Inc()
	return nil
}

func (s *SyncService) applyChange(ctx context.Context, event domain.ChangeEvent) error {
	switch event.Type {
	case domain.ChangeInsert:
		return s.applyInsert(ctx, *event.Record)
	case domain.ChangeUpdate:
		return s.applyUpdate(ctx, *event.Record)
	case domain.ChangeDelete:
		return s.applyDelete(ctx, event.OldRecord.ProductID)
	default:
		return apperrors.Validation("unsupported event type " + string(event.Type))
	}
}

func (s *SyncService) applyInsert(ctx context.Context, rec domain.ProductRecord) error {
	titles, err := s.resolveLookups(ctx, rec)
	if err != nil {
		return apperrors.Upstream(err)
	}

	row := domain.ProductRow{
		ID:       rec.ProductID,
		Title:    rec.Title,
		Price:    rec.Price,
		ImageURL: rec.ImageURL,
		URL:      rec.TitleURL,
		MOQ:      rec.MOQ,
		Country:  titles.country,
		Category: titles.category,
		Supplier: titles.supplier,
		Source:   titles.source,
	}

	taskID, err := s.store.AddDocuments(ctx, index.IndexProducts, []index.Document{row.SearchDocument()})
	if err != nil {
		return apperrors.Upstream(fmt.Errorf("upsert document %s: %w", rec.ProductID, err))
	}
	if err := s.store.WaitForTask(ctx, taskID); err != nil {
		return apperrors.Upstream(fmt.Errorf("upsert task for %s: %w", rec.ProductID, err))
	}

	documentsIndexed.WithLabelValues(index.IndexProducts).Inc()
	s.logger.InfoContext(ctx, "document upserted", slog.String("product_id", rec.ProductID))
	return nil
}

func (s *SyncService) applyUpdate(ctx context.Context, rec domain.ProductRecord) error {
	titles, err := s.resolveLookups(ctx, rec)
	if err != nil {
		return apperrors.Upstream(err)
	}

	// Partial document: fields absent from the event payload are left out
	// entirely so the merge keeps whatever the index already holds for them.
	doc := index.Document{"id": rec.ProductID}
	if rec.Title != "" {
		doc["title"] = rec.Title
	}
	if rec.Price != "" {
		doc["price"] = rec.Price
	}
	if rec.ImageURL != "" {
		doc["image"] = rec.ImageURL
	}
	if rec.TitleURL != "" {
		doc["url"] = rec.TitleURL
	}
	if rec.MOQ != "" {
		doc["moq"] = rec.MOQ
	}
	if titles.country != "" {
		doc["country"] = titles.country
	}
	if titles.category != "" {
		doc["category"] = titles.category
	}
	if titles.supplier != "" {
		doc["supplier"] = titles.supplier
	}
	if titles.source != "" {
		doc["source"] = titles.source
	}

	if err := s.store.UpdateDocuments(ctx, index.IndexProducts, []index.Document{doc}); err != nil {
		return apperrors.Upstream(fmt.Errorf("update document %s: %w", rec.ProductID, err))
	}

	s.logger.InfoContext(ctx, "document updated", slog.String("product_id", rec.ProductID))
	return nil
}

func (s *SyncService) applyDelete(ctx context.Context, productID string) error {
	if err := s.store.DeleteDocument(ctx, index.IndexProducts, productID); err != nil {
		return apperrors.Upstream(fmt.Errorf("delete document %s: %w", productID, err))
	}

	s.logger.InfoContext(ctx, "document deleted", slog.String("product_id", productID))
	return nil
}

// lookupTitles holds the resolved display titles for a product record. An
// empty field means the key was absent or dangling.
type lookupTitles struct {
	country  string
	category string
	supplier string
	source   string
}

// resolveLookups resolves the four foreign keys concurrently. A missing row
// resolves to empty; only a real source-store failure is an error.
func (s *SyncService) resolveLookups(ctx context.Context, rec domain.ProductRecord) (lookupTitles, error) {
	var titles lookupTitles

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		titles.country, err = s.lookup(gctx, s.catalog.LookupCountryTitle, rec.CountryID)
		return err
	})
	g.Go(func() (err error) {
		titles.category, err = s.lookup(gctx, s.catalog.LookupCategoryTitle, rec.CategoryID)
		return err
	})
	g.Go(func() (err error) {
		titles.supplier, err = s.lookup(gctx, s.catalog.LookupSupplierTitle, rec.SupplierID)
		return err
	})
	g.Go(func() (err error) {
		titles.source, err = s.lookup(gctx, s.catalog.LookupSourceTitle, rec.SourceID)
		return err
	})

	if err := g.Wait(); err != nil {
		return lookupTitles{}, err
	}
	return titles, nil
}

func (s *SyncService) lookup(
	ctx context.Context,
	fn func(context.Context, string) (string, error),
	id string,
) (string, error) {
	if id == "" {
		return "", nil
	}
	title, err := fn(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return title, nil
}

// EnrichResult summarizes a supplier enrichment run.
type EnrichResult struct {
	Suppliers     int
	TotalProducts int
}

// EnrichSuppliers rebuilds every supplier document with a fresh product count
// and keyword set derived from the current catalog. Suppliers with no
// products get a zeroed aggregate. The write is a single bulk upsert awaited
// to completion.
func (s *SyncService) EnrichSuppliers(ctx context.Context) (EnrichResult, error) {
	var result EnrichResult

	suppliers, err := s.catalog.ListSuppliers(ctx)
	if err != nil {
		return result, apperrors.Upstream(err)
	}

	products, err := s.catalog.ListProductKeywordSources(ctx)
	if err != nil {
		return result, apperrors.Upstream(err)
	}

	aggregates := domain.BuildSupplierAggregates(products)

	docs := make([]index.Document, 0, len(suppliers))
	for _, supplier := range suppliers {
		agg := aggregates[supplier.ID]
		if agg == nil {
			agg = &domain.SupplierAggregate{}
		}
		docs = append(docs, supplier.EnrichedDocument(*agg))
		result.TotalProducts += agg.Count
	}
	result.Suppliers = len(docs)

	if len(docs) == 0 {
		s.logger.WarnContext(ctx, "no suppliers to enrich")
		return result, nil
	}

	taskID, err := s.store.AddDocuments(ctx, index.IndexSuppliers, docs)
	if err != nil {
		err = apperrors.Upstream(fmt.Errorf("upsert supplier documents: %w", err))
		s.audit.Error(ctx, err, map[string]any{"job": "supplier_enrichment"})
		return result, err
	}
	if err := s.store.WaitForTask(ctx, taskID); err != nil {
		err = apperrors.Upstream(fmt.Errorf("supplier upsert task: %w", err))
		s.audit.Error(ctx, err, map[string]any{"job": "supplier_enrichment"})
		return result, err
	}

	documentsIndexed.WithLabelValues(index.IndexSuppliers).Add(float64(len(docs)))
	s.logger.InfoContext(ctx, "supplier enrichment complete",
		slog.Int("suppliers", result.Suppliers),
		slog.Int("total_products", result.TotalProducts),
	)
	return result, nil
}
