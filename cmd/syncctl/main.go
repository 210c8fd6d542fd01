// syncctl runs the catalog synchronization jobs from the command line:
// index setup, full product reindex, and supplier enrichment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ihaney/Alpha.A1/internal/audit"
	"github.com/ihaney/Alpha.A1/internal/config"
	"github.com/ihaney/Alpha.A1/internal/index"
	"github.com/ihaney/Alpha.A1/internal/index/meili"
	"github.com/ihaney/Alpha.A1/internal/repository/postgres"
	"github.com/ihaney/Alpha.A1/internal/service"
	"github.com/ihaney/Alpha.A1/pkg/database"
	"github.com/ihaney/Alpha.A1/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := &cobra.Command{
		Use:           "syncctl",
		Short:         "Catalog search index synchronization jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(setupCmd(), reindexCmd(), enrichCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("job failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the search indexes and apply their settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSyncService(cmd.Context(), func(ctx context.Context, svc *service.SyncService) error {
				return svc.SetupIndexes(ctx)
			})
		},
	}
}

func reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the products index from the catalog database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSyncService(cmd.Context(), func(ctx context.Context, svc *service.SyncService) error {
				result, err := svc.ReindexProducts(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("reindexed %d products in %d batches (index now holds %d documents)\n",
					result.Indexed, result.Batches, result.FinalCount)
				return nil
			})
		},
	}
}

func enrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich-suppliers",
		Short: "Rebuild supplier documents with product counts and keywords",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSyncService(cmd.Context(), func(ctx context.Context, svc *service.SyncService) error {
				result, err := svc.EnrichSuppliers(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("enriched %d suppliers covering %d products\n",
					result.Suppliers, result.TotalProducts)
				return nil
			})
		},
	}
}

// withSyncService wires a sync service from the environment, runs fn, and
// tears the connections down.
func withSyncService(ctx context.Context, fn func(context.Context, *service.SyncService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("syncctl", cfg.LogLevel)

	pgCfg := cfg.PostgresConfig()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect catalog database: %w", err)
	}
	defer pool.Close()

	store := index.WithBreaker(
		meili.New(cfg.MeilisearchHost, cfg.MeilisearchAPIKey, log),
		index.DefaultBreakerConfig("meilisearch"),
	)

	catalogRepo := postgres.NewCatalogRepository(pool)
	auditLogger := audit.NewLogger(postgres.NewAuditRepository(pool), log)

	svc := service.NewSyncService(catalogRepo, store, auditLogger, log, service.SyncConfig{
		BatchSize:  cfg.ReindexBatchSize,
		BatchDelay: cfg.ReindexBatchDelay,
	})

	return fn(ctx, svc)
}
