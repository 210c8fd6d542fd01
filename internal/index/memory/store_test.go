package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ihaney/Alpha.A1/internal/index"
)

func TestStore_AddDocumentsUpsertsByPrimaryKey(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.AddDocuments(ctx, index.IndexProducts, []index.Document{
		{"id": "p1", "title": "Shirt"},
		{"id": "p2", "title": "Scarf"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count(index.IndexProducts))

	// Re-adding the same id replaces the whole document.
	_, err = s.AddDocuments(ctx, index.IndexProducts, []index.Document{
		{"id": "p1", "title": "Shirt v2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count(index.IndexProducts))

	doc, ok := s.Get(index.IndexProducts, "p1")
	require.True(t, ok)
	assert.Equal(t, "Shirt v2", doc["title"])
}

func TestStore_AddDocumentsRequiresPrimaryKey(t *testing.T) {
	s := New()

	_, err := s.AddDocuments(context.Background(), index.IndexProducts, []index.Document{
		{"title": "No ID"},
	})
	assert.Error(t, err)
}

func TestStore_SuppliersIndexUsesItsOwnPrimaryKey(t *testing.T) {
	s := New()

	_, err := s.AddDocuments(context.Background(), index.IndexSuppliers, []index.Document{
		{"Supplier_ID": "s1", "Supplier_Title": "Acme"},
	})
	require.NoError(t, err)

	_, ok := s.Get(index.IndexSuppliers, "s1")
	assert.True(t, ok)
}

func TestStore_UpdateDocumentsMergesFields(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.AddDocuments(ctx, index.IndexProducts, []index.Document{
		{"id": "p1", "title": "Shirt", "supplier": "Acme"},
	})
	require.NoError(t, err)

	err = s.UpdateDocuments(ctx, index.IndexProducts, []index.Document{
		{"id": "p1", "title": "Shirt v2"},
	})
	require.NoError(t, err)

	doc, _ := s.Get(index.IndexProducts, "p1")
	assert.Equal(t, "Shirt v2", doc["title"])
	assert.Equal(t, "Acme", doc["supplier"], "fields absent from the update survive")
}

func TestStore_DeleteDocumentMissingIsNoError(t *testing.T) {
	s := New()

	err := s.DeleteDocument(context.Background(), index.IndexProducts, "ghost")
	assert.NoError(t, err)
}

func TestStore_DeleteAllDocuments(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.AddDocuments(ctx, index.IndexProducts, []index.Document{
		{"id": "p1"}, {"id": "p2"},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAllDocuments(ctx, index.IndexProducts))
	assert.Equal(t, 0, s.Count(index.IndexProducts))

	stats, err := s.Stats(ctx, index.IndexProducts)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.NumberOfDocuments)
}

func TestStore_UnknownIndexErrors(t *testing.T) {
	s := New()

	_, err := s.AddDocuments(context.Background(), "nonexistent", []index.Document{{"id": "x"}})
	assert.Error(t, err)
}

func TestStore_MutationDoesNotAliasCallerMap(t *testing.T) {
	s := New()
	input := index.Document{"id": "p1", "title": "Shirt"}

	_, err := s.AddDocuments(context.Background(), index.IndexProducts, []index.Document{input})
	require.NoError(t, err)

	input["title"] = "mutated"
	doc, _ := s.Get(index.IndexProducts, "p1")
	assert.Equal(t, "Shirt", doc["title"])
}
