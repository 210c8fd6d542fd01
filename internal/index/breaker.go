package index

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "index_store_breaker_state",
		Help: "Circuit breaker state for the index store (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

// BreakerConfig holds circuit breaker tuning for the index store.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns sensible breaker defaults.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// BreakerStore decorates a Store with a circuit breaker so a struggling
// index service sheds load fast instead of queueing webhook requests.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker[any]
}

// WithBreaker wraps the store with a circuit breaker.
func WithBreaker(inner Store, cfg BreakerConfig) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	return &BreakerStore{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[any](settings),
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func (b *BreakerStore) execute(fn func() (any, error)) (any, error) {
	return b.cb.Execute(fn)
}

func (b *BreakerStore) EnsureIndex(ctx context.Context, cfg IndexConfig) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.EnsureIndex(ctx, cfg)
	})
	return err
}

func (b *BreakerStore) ApplySettings(ctx context.Context, cfg IndexConfig) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.ApplySettings(ctx, cfg)
	})
	return err
}

func (b *BreakerStore) AddDocuments(ctx context.Context, indexName string, docs []Document) (int64, error) {
	res, err := b.execute(func() (any, error) {
		return b.inner.AddDocuments(ctx, indexName, docs)
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (b *BreakerStore) UpdateDocuments(ctx context.Context, indexName string, docs []Document) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.UpdateDocuments(ctx, indexName, docs)
	})
	return err
}

func (b *BreakerStore) DeleteDocument(ctx context.Context, indexName, id string) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.DeleteDocument(ctx, indexName, id)
	})
	return err
}

func (b *BreakerStore) DeleteAllDocuments(ctx context.Context, indexName string) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.DeleteAllDocuments(ctx, indexName)
	})
	return err
}

func (b *BreakerStore) WaitForTask(ctx context.Context, taskID int64) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.WaitForTask(ctx, taskID)
	})
	return err
}

func (b *BreakerStore) Stats(ctx context.Context, indexName string) (Stats, error) {
	res, err := b.execute(func() (any, error) {
		return b.inner.Stats(ctx, indexName)
	})
	if err != nil {
		return Stats{}, err
	}
	return res.(Stats), nil
}
