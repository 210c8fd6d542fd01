// Package index defines the search index store contract and the settings for
// the catalog indexes.
package index

import "context"

// Document is one flattened search document. Keys are index attribute names;
// the primary key attribute must be present.
type Document = map[string]any

// TypoTolerance configures typo thresholds for an index.
type TypoTolerance struct {
	Enabled  bool
	OneTypo  int64
	TwoTypos int64
}

// Settings is the subset of index configuration the sync pipeline manages.
// Applying settings is idempotent.
type Settings struct {
	SearchableAttributes []string
	FilterableAttributes []string
	SortableAttributes   []string
	DisplayedAttributes  []string
	RankingRules         []string
	TypoTolerance        *TypoTolerance
	MaxTotalHits         int64
}

// Stats reports index-level counters.
type Stats struct {
	NumberOfDocuments int64
}

// Store is the capability contract against the search index service: bulk
// and single-document mutations plus settings management and async task
// completion polling.
type Store interface {
	// EnsureIndex creates the index if it does not exist. Idempotent.
	EnsureIndex(ctx context.Context, cfg IndexConfig) error

	// ApplySettings applies the index configuration. Idempotent.
	ApplySettings(ctx context.Context, cfg IndexConfig) error

	// AddDocuments bulk-upserts documents by primary key and returns an
	// async task handle.
	AddDocuments(ctx context.Context, indexName string, docs []Document) (int64, error)

	// UpdateDocuments applies partial updates with merge semantics: fields
	// absent from a document are preserved in the stored document.
	UpdateDocuments(ctx context.Context, indexName string, docs []Document) error

	// DeleteDocument removes one document by id. Deleting an id that is not
	// present is not an error.
	DeleteDocument(ctx context.Context, indexName, id string) error

	// DeleteAllDocuments irrevocably clears the index.
	DeleteAllDocuments(ctx context.Context, indexName string) error

	// WaitForTask blocks until the async task settles, returning an error if
	// it failed.
	WaitForTask(ctx context.Context, taskID int64) error

	// Stats returns index-level counters.
	Stats(ctx context.Context, indexName string) (Stats, error)
}
