// Package memory implements an in-memory index.Store for tests and local
// development. It mirrors the external store's semantics: upsert by primary
// key, merge on partial update, silent delete of missing ids.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ihaney/Alpha.A1/internal/index"
)

type indexState struct {
	primaryKey string
	docs       map[string]index.Document
}

// Store is an in-memory index store. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	indexes  map[string]*indexState
	nextTask int64

	// AddCalls counts bulk upsert invocations, used by call-count assertions
	// in tests.
	AddCalls int
}

// New creates a store preconfigured with the catalog indexes.
func New() *Store {
	s := &Store{indexes: make(map[string]*indexState)}
	for _, cfg := range index.Indexes {
		s.indexes[cfg.Name] = &indexState{
			primaryKey: cfg.PrimaryKey,
			docs:       make(map[string]index.Document),
		}
	}
	return s
}

// EnsureIndex registers the index if it does not exist.
func (s *Store) EnsureIndex(_ context.Context, cfg index.IndexConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[cfg.Name]; !ok {
		s.indexes[cfg.Name] = &indexState{
			primaryKey: cfg.PrimaryKey,
			docs:       make(map[string]index.Document),
		}
	}
	return nil
}

// ApplySettings is a no-op beyond registering the index.
func (s *Store) ApplySettings(ctx context.Context, cfg index.IndexConfig) error {
	return s.EnsureIndex(ctx, cfg)
}

func (s *Store) state(indexName string) (*indexState, error) {
	st, ok := s.indexes[indexName]
	if !ok {
		return nil, fmt.Errorf("index %s does not exist", indexName)
	}
	return st, nil
}

func docID(st *indexState, doc index.Document) (string, error) {
	raw, ok := doc[st.primaryKey]
	if !ok {
		return "", fmt.Errorf("document missing primary key %q", st.primaryKey)
	}
	return fmt.Sprint(raw), nil
}

// AddDocuments upserts whole documents by primary key.
func (s *Store) AddDocuments(_ context.Context, indexName string, docs []index.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.state(indexName)
	if err != nil {
		return 0, err
	}

	s.AddCalls++
	for _, doc := range docs {
		id, err := docID(st, doc)
		if err != nil {
			return 0, err
		}
		copied := make(index.Document, len(doc))
		for k, v := range doc {
			copied[k] = v
		}
		st.docs[id] = copied
	}

	s.nextTask++
	return s.nextTask, nil
}

// UpdateDocuments merges the given fields into existing documents; fields not
// present in the update are preserved. A missing document is created from the
// partial fields, matching the external store.
func (s *Store) UpdateDocuments(_ context.Context, indexName string, docs []index.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.state(indexName)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		id, err := docID(st, doc)
		if err != nil {
			return err
		}
		existing, ok := st.docs[id]
		if !ok {
			existing = make(index.Document)
			st.docs[id] = existing
		}
		for k, v := range doc {
			existing[k] = v
		}
	}
	return nil
}

// DeleteDocument removes one document. A missing id is not an error.
func (s *Store) DeleteDocument(_ context.Context, indexName, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.state(indexName)
	if err != nil {
		return err
	}
	delete(st.docs, id)
	return nil
}

// DeleteAllDocuments clears the index.
func (s *Store) DeleteAllDocuments(_ context.Context, indexName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.state(indexName)
	if err != nil {
		return err
	}
	st.docs = make(map[string]index.Document)
	return nil
}

// WaitForTask settles immediately; in-memory mutations are synchronous.
func (s *Store) WaitForTask(context.Context, int64) error {
	return nil
}

// Stats returns the document count.
func (s *Store) Stats(_ context.Context, indexName string) (index.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := s.state(indexName)
	if err != nil {
		return index.Stats{}, err
	}
	return index.Stats{NumberOfDocuments: int64(len(st.docs))}, nil
}

// Get returns the stored document for id, for test assertions.
func (s *Store) Get(indexName, id string) (index.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.indexes[indexName]
	if !ok {
		return nil, false
	}
	doc, ok := st.docs[id]
	return doc, ok
}

// Count returns the number of documents in the index.
func (s *Store) Count(indexName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.indexes[indexName]
	if !ok {
		return 0
	}
	return len(st.docs)
}

// IDs returns all document ids in the index.
func (s *Store) IDs(indexName string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.indexes[indexName]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(st.docs))
	for id := range st.docs {
		ids = append(ids, id)
	}
	return ids
}
