package index

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails every call and counts how many times it was reached.
type flakyStore struct {
	calls int
	err   error
}

func (f *flakyStore) EnsureIndex(context.Context, IndexConfig) error   { return f.touch() }
func (f *flakyStore) ApplySettings(context.Context, IndexConfig) error { return f.touch() }
func (f *flakyStore) AddDocuments(context.Context, string, []Document) (int64, error) {
	return 7, f.touch()
}
func (f *flakyStore) UpdateDocuments(context.Context, string, []Document) error { return f.touch() }
func (f *flakyStore) DeleteDocument(context.Context, string, string) error      { return f.touch() }
func (f *flakyStore) DeleteAllDocuments(context.Context, string) error          { return f.touch() }
func (f *flakyStore) WaitForTask(context.Context, int64) error                  { return f.touch() }
func (f *flakyStore) Stats(context.Context, string) (Stats, error) {
	return Stats{NumberOfDocuments: 3}, f.touch()
}

func (f *flakyStore) touch() error {
	f.calls++
	return f.err
}

func testBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func TestBreakerStore_PassesThroughWhenHealthy(t *testing.T) {
	inner := &flakyStore{}
	store := WithBreaker(inner, testBreakerConfig("healthy"))
	ctx := context.Background()

	taskID, err := store.AddDocuments(ctx, IndexProducts, []Document{{"id": "p1"}})
	require.NoError(t, err)
	assert.Equal(t, int64(7), taskID)

	stats, err := store.Stats(ctx, IndexProducts)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.NumberOfDocuments)
	assert.Equal(t, 2, inner.calls)
}

func TestBreakerStore_OpensAfterRepeatedFailures(t *testing.T) {
	inner := &flakyStore{err: errors.New("index unavailable")}
	store := WithBreaker(inner, testBreakerConfig("failing"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.DeleteDocument(ctx, IndexProducts, "p1")
		require.Error(t, err)
	}
	reached := inner.calls

	// The breaker is now open: calls fail fast without reaching the store.
	err := store.DeleteDocument(ctx, IndexProducts, "p1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, reached, inner.calls)
}
