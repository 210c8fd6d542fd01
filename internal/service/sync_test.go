package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ihaney/Alpha.A1/internal/audit"
	"github.com/ihaney/Alpha.A1/internal/domain"
	"github.com/ihaney/Alpha.A1/internal/index"
	"github.com/ihaney/Alpha.A1/internal/index/memory"
	apperrors "github.com/ihaney/Alpha.A1/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeCatalog is an in-memory repository.CatalogRepository.
type fakeCatalog struct {
	rows       []domain.ProductRow
	countries  map[string]string
	categories map[string]string
	suppliers  map[string]string
	sources    map[string]string

	supplierRows []domain.SupplierRow
	keywordRows  []domain.ProductKeywordSource

	countErr  error
	listErr   error
	lookupErr error
}

func (f *fakeCatalog) CountProducts(context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.rows), nil
}

func (f *fakeCatalog) ListProductRows(_ context.Context, from, to int) ([]domain.ProductRow, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if from >= len(f.rows) {
		return nil, nil
	}
	if to >= len(f.rows) {
		to = len(f.rows) - 1
	}
	return f.rows[from : to+1], nil
}

func (f *fakeCatalog) lookup(table map[string]string, resource, id string) (string, error) {
	if f.lookupErr != nil {
		return "", f.lookupErr
	}
	title, ok := table[id]
	if !ok {
		return "", apperrors.NotFound(resource, id)
	}
	return title, nil
}

func (f *fakeCatalog) LookupCountryTitle(_ context.Context, id string) (string, error) {
	return f.lookup(f.countries, "country", id)
}

func (f *fakeCatalog) LookupCategoryTitle(_ context.Context, id string) (string, error) {
	return f.lookup(f.categories, "category", id)
}

func (f *fakeCatalog) LookupSupplierTitle(_ context.Context, id string) (string, error) {
	return f.lookup(f.suppliers, "supplier", id)
}

func (f *fakeCatalog) LookupSourceTitle(_ context.Context, id string) (string, error) {
	return f.lookup(f.sources, "source", id)
}

func (f *fakeCatalog) ListSuppliers(context.Context) ([]domain.SupplierRow, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.supplierRows, nil
}

func (f *fakeCatalog) ListProductKeywordSources(context.Context) ([]domain.ProductKeywordSource, error) {
	return f.keywordRows, nil
}

func newTestService(catalog *fakeCatalog, store index.Store, batchSize int) *SyncService {
	log := newTestLogger()
	return NewSyncService(catalog, store, audit.NewLogger(nil, log), log, SyncConfig{
		BatchSize:  batchSize,
		BatchDelay: 0,
	})
}

func productRow(id, title string) domain.ProductRow {
	return domain.ProductRow{
		ID:       id,
		Title:    title,
		Price:    "10.00",
		Country:  "Mexico",
		Category: "Textiles",
		Supplier: "Acme",
		Source:   "Alibaba",
	}
}

func TestReindexProducts_IndexesAllRowsInBatches(t *testing.T) {
	catalog := &fakeCatalog{rows: []domain.ProductRow{
		productRow("p1", "Cotton Shirt"),
		productRow("p2", "Wool Scarf"),
		productRow("p3", "Silk Tie"),
		productRow("p4", "Linen Pants"),
		productRow("p5", "Denim Jacket"),
	}}
	store := memory.New()
	svc := newTestService(catalog, store, 2)

	result, err := svc.ReindexProducts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 5, result.Indexed)
	assert.Equal(t, 3, result.Batches, "5 rows at batch size 2 is 3 bulk writes")
	assert.Equal(t, int64(5), result.FinalCount)
	assert.Equal(t, 3, store.AddCalls)
	assert.Equal(t, 5, store.Count(index.IndexProducts))
}

func TestReindexProducts_ClearsStaleDocumentsFirst(t *testing.T) {
	store := memory.New()
	_, err := store.AddDocuments(context.Background(), index.IndexProducts, []index.Document{
		{"id": "stale", "title": "No Longer In Catalog"},
	})
	require.NoError(t, err)
	store.AddCalls = 0

	catalog := &fakeCatalog{rows: []domain.ProductRow{productRow("p1", "Cotton Shirt")}}
	svc := newTestService(catalog, store, 1000)

	_, err = svc.ReindexProducts(context.Background())
	require.NoError(t, err)

	_, ok := store.Get(index.IndexProducts, "stale")
	assert.False(t, ok, "cleared index must not retain stale documents")
	assert.Equal(t, 1, store.Count(index.IndexProducts))
}

func TestReindexProducts_RewritesUnresolvedLookupsAsUnknown(t *testing.T) {
	catalog := &fakeCatalog{rows: []domain.ProductRow{{
		ID:    "p1",
		Title: "Cotton Shirt",
	}}}
	store := memory.New()
	svc := newTestService(catalog, store, 1000)

	_, err := svc.ReindexProducts(context.Background())
	require.NoError(t, err)

	doc, ok := store.Get(index.IndexProducts, "p1")
	require.True(t, ok)
	assert.Equal(t, "Unknown", doc["country"])
	assert.Equal(t, "Unknown", doc["category"])
	assert.Equal(t, "Unknown", doc["supplier"])
	assert.Equal(t, "Unknown", doc["source"])
}

func TestReindexProducts_AbortsOnSourceFailure(t *testing.T) {
	catalog := &fakeCatalog{
		rows:    []domain.ProductRow{productRow("p1", "Cotton Shirt")},
		listErr: errors.New("connection reset"),
	}
	store := memory.New()
	svc := newTestService(catalog, store, 1000)

	_, err := svc.ReindexProducts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	assert.Equal(t, 0, store.Count(index.IndexProducts))
}

func TestApplyChange_InsertResolvesAllLookups(t *testing.T) {
	catalog := &fakeCatalog{
		countries:  map[string]string{"c1": "Mexico"},
		categories: map[string]string{"cat1": "Textiles"},
		suppliers:  map[string]string{"s1": "Acme Textiles"},
		sources:    map[string]string{"src1": "Alibaba"},
	}
	store := memory.New()
	svc := newTestService(catalog, store, 1000)

	err := svc.ApplyChange(context.Background(), domain.ChangeEvent{
		Type: domain.ChangeInsert,
		Record: &domain.ProductRecord{
			ProductID:  "p1",
			Title:      "Cotton Shirt",
			Price:      "12.50",
			CountryID:  "c1",
			CategoryID: "cat1",
			SupplierID: "s1",
			SourceID:   "src1",
		},
	})
	require.NoError(t, err)

	doc, ok := store.Get(index.IndexProducts, "p1")
	require.True(t, ok)
	assert.Equal(t, "Cotton Shirt", doc["title"])
	assert.Equal(t, "Mexico", doc["country"])
	assert.Equal(t, "Textiles", doc["category"])
	assert.Equal(t, "Acme Textiles", doc["supplier"])
	assert.Equal(t, "Alibaba", doc["source"])
}

func TestApplyChange_InsertDanglingLookupFallsBackToUnknown(t *testing.T) {
	catalog := &fakeCatalog{countries: map[string]string{}}
	store := memory.New()
	svc := newTestService(catalog, store, 1000)

	err := svc.ApplyChange(context.Background(), domain.ChangeEvent{
		Type: domain.ChangeInsert,
		Record: &domain.ProductRecord{
			ProductID: "p1",
			Title:     "Cotton Shirt",
			CountryID: "missing-country",
		},
	})
	require.NoError(t, err)

	doc, ok := store.Get(index.IndexProducts, "p1")
	require.True(t, ok)
	assert.Equal(t, "Unknown", doc["country"])
}

func TestApplyChange_InsertSourceFailureIsUpstream(t *testing.T) {
	catalog := &fakeCatalog{lookupErr: errors.New("connection reset")}
	store := memory.New()
	svc := newTestService(catalog, store, 1000)

	err := svc.ApplyChange(context.Background(), domain.ChangeEvent{
		Type: domain.ChangeInsert,
		Record: &domain.ProductRecord{
			ProductID: "p1",
			Title:     "Cotton Shirt",
			CountryID: "c1",
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	assert.Equal(t, 0, store.Count(index.IndexProducts), "failed lookups must not write")
}

func TestApplyChange_ValidationFailureTouchesNothing(t *testing.T) {
	tests := []struct {
		name  string
		event domain.ChangeEvent
	}{
		{"missing type", domain.ChangeEvent{}},
		{"unknown type", domain.ChangeEvent{Type: "TRUNCATE"}},
		{"insert without record", domain.ChangeEvent{Type: domain.ChangeInsert}},
		{"insert without id", domain.ChangeEvent{
			Type:   domain.ChangeInsert,
			Record: &domain.ProductRecord{Title: "Cotton Shirt"},
		}},
		{"update without title", domain.ChangeEvent{
			Type:   domain.ChangeUpdate,
			Record: &domain.ProductRecord{ProductID: "p1"},
		}},
		{"delete without old record", domain.ChangeEvent{Type: domain.ChangeDelete}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &fakeCatalog{}
			store := memory.New()
			svc := newTestService(catalog, store, 1000)

			err := svc.ApplyChange(context.Background(), tt.event)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			assert.Equal(t, 0, store.AddCalls, "rejected events must not reach the index")
			assert.Equal(t, 0, store.Count(index.IndexProducts))
		})
	}
}

func TestApplyChange_UpdatePreservesUnresolvedFields(t *testing.T) {
	store := memory.New()
	_, err := store.AddDocuments(context.Background(), index.IndexProducts, []index.Document{{
		"id":       "p1",
		"title":    "Cotton Shirt",
		"price":    "12.50",
		"supplier": "Acme Textiles",
		"country":  "Mexico",
	}})
	require.NoError(t, err)

	catalog := &fakeCatalog{countries: map[string]string{"c2": "Peru"}}
	svc := newTestService(catalog, store, 1000)

	err = svc.ApplyChange(context.Background(), domain.ChangeEvent{
		Type: domain.ChangeUpdate,
		Record: &domain.ProductRecord{
			ProductID: "p1",
			Title:     "Cotton Shirt v2",
			Price:     "13.00",
			CountryID: "c2",
			// No SupplierID: the stored supplier must survive the merge.
		},
	})
	require.NoError(t, err)

	doc, ok := store.Get(index.IndexProducts, "p1")
	require.True(t, ok)
	assert.Equal(t, "Cotton Shirt v2", doc["title"])
	assert.Equal(t, "13.00", doc["price"])
	assert.Equal(t, "Peru", doc["country"])
	assert.Equal(t, "Acme Textiles", doc["supplier"], "unresolved fields keep their stored value")
}

func TestApplyChange_UpdatePreservesOmittedScalars(t *testing.T) {
	store := memory.New()
	_, err := store.AddDocuments(context.Background(), index.IndexProducts, []index.Document{{
		"id":    "p1",
		"title": "Cotton Shirt",
		"price": "19.99",
		"moq":   "50",
		"image": "https://img.example/p1.jpg",
	}})
	require.NoError(t, err)

	svc := newTestService(&fakeCatalog{}, store, 1000)

	// Title-only update: the other scalars are absent from the payload and
	// must not be blanked out in the merged document.
	err = svc.ApplyChange(context.Background(), domain.ChangeEvent{
		Type: domain.ChangeUpdate,
		Record: &domain.ProductRecord{
			ProductID: "p1",
			Title:     "Cotton Shirt v2",
		},
	})
	require.NoError(t, err)

	doc, ok := store.Get(index.IndexProducts, "p1")
	require.True(t, ok)
	assert.Equal(t, "Cotton Shirt v2", doc["title"])
	assert.Equal(t, "19.99", doc["price"])
	assert.Equal(t, "50", doc["moq"])
	assert.Equal(t, "https://img.example/p1.jpg", doc["image"])
}

func TestApplyChange_DeleteRemovesDocument(t *testing.T) {
	store := memory.New()
	_, err := store.AddDocuments(context.Background(), index.IndexProducts, []index.Document{
		{"id": "p1", "title": "Cotton Shirt"},
	})
	require.NoError(t, err)

	svc := newTestService(&fakeCatalog{}, store, 1000)

	err = svc.ApplyChange(context.Background(), domain.ChangeEvent{
		Type:      domain.ChangeDelete,
		OldRecord: &domain.DeletedRecord{ProductID: "p1"},
	})
	require.NoError(t, err)

	_, ok := store.Get(index.IndexProducts, "p1")
	assert.False(t, ok)
}

func TestApplyChange_DeleteMissingDocumentSucceeds(t *testing.T) {
	store := memory.New()
	svc := newTestService(&fakeCatalog{}, store, 1000)

	err := svc.ApplyChange(context.Background(), domain.ChangeEvent{
		Type:      domain.ChangeDelete,
		OldRecord: &domain.DeletedRecord{ProductID: "never-indexed"},
	})
	assert.NoError(t, err, "deleting an absent document is not an error")
}

func TestApplyChange_Idempotent(t *testing.T) {
	catalog := &fakeCatalog{countries: map[string]string{"c1": "Mexico"}}
	store := memory.New()
	svc := newTestService(catalog, store, 1000)

	event := domain.ChangeEvent{
		Type: domain.ChangeInsert,
		Record: &domain.ProductRecord{
			ProductID: "p1",
			Title:     "Cotton Shirt",
			CountryID: "c1",
		},
	}

	require.NoError(t, svc.ApplyChange(context.Background(), event))
	require.NoError(t, svc.ApplyChange(context.Background(), event))

	assert.Equal(t, 1, store.Count(index.IndexProducts), "replays converge on one document")
}

func TestEnrichSuppliers_BuildsCountsAndKeywords(t *testing.T) {
	catalog := &fakeCatalog{
		supplierRows: []domain.SupplierRow{
			{ID: "s1", Title: "Acme Textiles", CountryName: "Mexico"},
			{ID: "s2", Title: "Idle Trading Co"},
		},
		keywordRows: []domain.ProductKeywordSource{
			{SupplierID: "s1", Title: "Cotton Shirt", CategoryName: "Textiles"},
			{SupplierID: "s1", Title: "Cotton Scarf", CategoryName: "Textiles"},
		},
	}
	store := memory.New()
	svc := newTestService(catalog, store, 1000)

	result, err := svc.EnrichSuppliers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Suppliers)
	assert.Equal(t, 2, result.TotalProducts)

	doc, ok := store.Get(index.IndexSuppliers, "s1")
	require.True(t, ok)
	assert.Equal(t, 2, doc["product_count"])
	assert.Equal(t, "cotton shirt textiles scarf", doc["product_keywords"],
		"keywords are lowercased, deduplicated, and keep first-seen order")

	// A supplier with no products still gets a zeroed document.
	idle, ok := store.Get(index.IndexSuppliers, "s2")
	require.True(t, ok)
	assert.Equal(t, 0, idle["product_count"])
	assert.Equal(t, "", idle["product_keywords"])
}

func TestEnrichSuppliers_SourceFailureIsUpstream(t *testing.T) {
	catalog := &fakeCatalog{listErr: errors.New("connection reset")}
	store := memory.New()
	svc := newTestService(catalog, store, 1000)

	_, err := svc.EnrichSuppliers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	assert.Equal(t, 0, store.Count(index.IndexSuppliers))
}
