// Package postgres implements the repository contracts against the catalog
// PostgreSQL database. Table and column names follow the source schema,
// which uses quoted mixed-case identifiers.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ihaney/Alpha.A1/internal/domain"
	apperrors "github.com/ihaney/Alpha.A1/pkg/errors"
)

// DB is the subset of pgxpool.Pool the repositories use. pgxmock satisfies
// it for tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CatalogRepository implements repository.CatalogRepository using PostgreSQL.
type CatalogRepository struct {
	db DB
}

// NewCatalogRepository creates a PostgreSQL-backed catalog repository.
func NewCatalogRepository(db DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// CountProducts returns the exact product row count.
func (r *CatalogRepository) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM "Products"`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// ListProductRows returns product rows with lookup joins resolved, for the
// inclusive row-index range [from, to], ordered by primary key so pages are
// stable across queries.
func (r *CatalogRepository) ListProductRows(ctx context.Context, from, to int) ([]domain.ProductRow, error) {
	if to < from {
		return nil, fmt.Errorf("list products: invalid range [%d, %d]", from, to)
	}

	query := `
		SELECT
			p."Product_ID",
			p."Product_Title",
			COALESCE(p."Product_Price", ''),
			COALESCE(p."Product_Image_URL", ''),
			COALESCE(p."Product_Title_URL", ''),
			COALESCE(p."Product_MOQ", ''),
			COALESCE(c."Country_Title", ''),
			COALESCE(cat."Category_Title", ''),
			COALESCE(s."Supplier_Title", ''),
			COALESCE(src."Source_Title", '')
		FROM "Products" p
		LEFT JOIN "Countries" c ON c."Country_ID" = p."Product_Country_ID"
		LEFT JOIN "Categories" cat ON cat."Category_ID" = p."Product_Category_ID"
		LEFT JOIN "Supplier" s ON s."Supplier_ID" = p."Product_Supplier_ID"
		LEFT JOIN "Sources" src ON src."Source_ID" = p."Product_Source_ID"
		ORDER BY p."Product_ID"
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, to-from+1, from)
	if err != nil {
		return nil, fmt.Errorf("list products [%d, %d]: %w", from, to, err)
	}
	defer rows.Close()

	var products []domain.ProductRow
	for rows.Next() {
		var p domain.ProductRow
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Price, &p.ImageURL, &p.URL, &p.MOQ,
			&p.Country, &p.Category, &p.Supplier, &p.Source,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// lookupTitle resolves one foreign key to its display title.
func (r *CatalogRepository) lookupTitle(ctx context.Context, query, resource, id string) (string, error) {
	var title string
	err := r.db.QueryRow(ctx, query, id).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.NotFound(resource, id)
	}
	if err != nil {
		return "", fmt.Errorf("lookup %s %s: %w", resource, id, err)
	}
	return title, nil
}

// LookupCountryTitle resolves a country id to its display title.
func (r *CatalogRepository) LookupCountryTitle(ctx context.Context, id string) (string, error) {
	return r.lookupTitle(ctx,
		`SELECT "Country_Title" FROM "Countries" WHERE "Country_ID" = $1`,
		"country", id)
}

// LookupCategoryTitle resolves a category id to its display title.
func (r *CatalogRepository) LookupCategoryTitle(ctx context.Context, id string) (string, error) {
	return r.lookupTitle(ctx,
		`SELECT "Category_Title" FROM "Categories" WHERE "Category_ID" = $1`,
		"category", id)
}

// LookupSupplierTitle resolves a supplier id to its display title.
func (r *CatalogRepository) LookupSupplierTitle(ctx context.Context, id string) (string, error) {
	return r.lookupTitle(ctx,
		`SELECT "Supplier_Title" FROM "Supplier" WHERE "Supplier_ID" = $1`,
		"supplier", id)
}

// LookupSourceTitle resolves a source id to its display title.
func (r *CatalogRepository) LookupSourceTitle(ctx context.Context, id string) (string, error) {
	return r.lookupTitle(ctx,
		`SELECT "Source_Title" FROM "Sources" WHERE "Source_ID" = $1`,
		"source", id)
}

// ListSuppliers returns all supplier rows. The supplier table is small
// enough for an unbounded read.
func (r *CatalogRepository) ListSuppliers(ctx context.Context) ([]domain.SupplierRow, error) {
	query := `
		SELECT
			"Supplier_ID",
			"Supplier_Title",
			COALESCE("Supplier_Description", ''),
			COALESCE("Supplier_Website", ''),
			COALESCE("Supplier_Email", ''),
			COALESCE("Supplier_Location", ''),
			COALESCE("Supplier_Whatsapp", ''),
			COALESCE("Supplier_Country_Name", ''),
			COALESCE("Supplier_City_Name", ''),
			COALESCE("Supplier_Source_ID", '')
		FROM "Supplier"
		ORDER BY "Supplier_ID"`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []domain.SupplierRow
	for rows.Next() {
		var s domain.SupplierRow
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Description, &s.Website, &s.Email,
			&s.Location, &s.Whatsapp, &s.CountryName, &s.CityName, &s.SourceID,
		); err != nil {
			return nil, fmt.Errorf("scan supplier row: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate supplier rows: %w", err)
	}

	return suppliers, nil
}

// ListProductKeywordSources returns the supplier id and searchable text of
// every product for the keyword aggregation.
func (r *CatalogRepository) ListProductKeywordSources(ctx context.Context) ([]domain.ProductKeywordSource, error) {
	query := `
		SELECT
			COALESCE(p."Product_Supplier_ID", ''),
			p."Product_Title",
			COALESCE(cat."Category_Title", '')
		FROM "Products" p
		LEFT JOIN "Categories" cat ON cat."Category_ID" = p."Product_Category_ID"`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list product keyword sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.ProductKeywordSource
	for rows.Next() {
		var src domain.ProductKeywordSource
		if err := rows.Scan(&src.SupplierID, &src.Title, &src.CategoryName); err != nil {
			return nil, fmt.Errorf("scan product keyword source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product keyword sources: %w", err)
	}

	return sources, nil
}
