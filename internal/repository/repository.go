// Package repository defines the data access contracts against the catalog
// source database.
package repository

import (
	"context"

	"github.com/ihaney/Alpha.A1/internal/domain"
)

// CatalogRepository reads catalog rows and lookup tables from the relational
// source.
type CatalogRepository interface {
	// CountProducts returns the exact product row count.
	CountProducts(ctx context.Context) (int, error)

	// ListProductRows returns product rows with their lookup joins resolved,
	// for the inclusive row-index range [from, to], ordered by primary key.
	ListProductRows(ctx context.Context, from, to int) ([]domain.ProductRow, error)

	// Lookup methods resolve one foreign key to its display title. They
	// return apperrors.ErrNotFound for an absent or dangling key.
	LookupCountryTitle(ctx context.Context, id string) (string, error)
	LookupCategoryTitle(ctx context.Context, id string) (string, error)
	LookupSupplierTitle(ctx context.Context, id string) (string, error)
	LookupSourceTitle(ctx context.Context, id string) (string, error)

	// ListSuppliers returns all supplier rows.
	ListSuppliers(ctx context.Context) ([]domain.SupplierRow, error)

	// ListProductKeywordSources returns the supplier id plus searchable text
	// of every product, for the keyword aggregation.
	ListProductKeywordSources(ctx context.Context) ([]domain.ProductKeywordSource, error)
}

// LogEntry is one audit/error record.
type LogEntry struct {
	Message  string
	Stack    string
	Severity string
	UserID   string
	Context  map[string]any
}

// AuditRepository persists audit/error records. Writes are best-effort: the
// caller swallows failures so logging never breaks the primary operation.
type AuditRepository interface {
	Insert(ctx context.Context, entry LogEntry) error
}
