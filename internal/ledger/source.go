package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/insight-ledger/internal/model"
	"github.com/Veraticus/insight-ledger/internal/sample"
)

// Client is the slice of the API client the dashboard needs.
type Client interface {
	VerifyToken(ctx context.Context) bool
	Transactions(ctx context.Context) ([]model.Transaction, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

// Snapshotter is the cache surface used for offline fallback.
type Snapshotter interface {
	SaveSnapshot(ctx context.Context, txns []model.Transaction) error
	LoadSnapshot(ctx context.Context) ([]model.Transaction, error)
}

// LoadResult is what a data source hands the dashboard: a full
// replacement transaction list and the statistics derived from it.
// Stats are never computed against a partially replaced list.
type LoadResult struct {
	Notice       string
	Transactions []model.Transaction
	Stats        model.Stats
	Offline      bool
}

// Source supplies the dashboard's transaction list. Two
// implementations exist: remote (live fetch with cache fallback) and
// sample (generated data, no network).
type Source interface {
	Load(ctx context.Context) (*LoadResult, error)
}

// RemoteSource fetches live data and mirrors successful fetches into
// the snapshot cache. When the fetch fails, it serves the last cached
// snapshot and surfaces the fetch error as a non-fatal notice.
type RemoteSource struct {
	client Client
	cache  Snapshotter
}

// NewRemoteSource creates a remote data source.
func NewRemoteSource(client Client, cache Snapshotter) *RemoteSource {
	return &RemoteSource{client: client, cache: cache}
}

// Load fetches transactions and stats. Fetch errors fall back to the
// cache; a cache miss on top of a fetch error returns the fetch error.
func (s *RemoteSource) Load(ctx context.Context) (*LoadResult, error) {
	txns, err := s.client.Transactions(ctx)
	if err != nil {
		cached, cacheErr := s.cache.LoadSnapshot(ctx)
		if cacheErr != nil {
			slog.Warn("Offline fallback failed", "fetch_error", err, "cache_error", cacheErr)
			return nil, err
		}
		return &LoadResult{
			Transactions: cached,
			Stats:        model.ComputeStats(cached),
			Offline:      true,
			Notice:       fmt.Sprintf("Showing cached data: %v", err),
		}, nil
	}

	if saveErr := s.cache.SaveSnapshot(ctx, txns); saveErr != nil {
		// A failed mirror write must not fail the read path
		slog.Warn("Failed to cache snapshot", "error", saveErr)
	}

	result := &LoadResult{Transactions: txns}
	if stats, statsErr := s.client.Stats(ctx); statsErr == nil {
		result.Stats = *stats
	} else {
		slog.Debug("Falling back to local stats derivation", "error", statsErr)
		result.Stats = model.ComputeStats(txns)
	}
	return result, nil
}

// SampleSource substitutes a fixed generated dataset for the remote
// service and derives statistics locally.
type SampleSource struct {
	now func() time.Time
}

// NewSampleSource creates a sample data source. now may be nil, in
// which case time.Now is used.
func NewSampleSource(now func() time.Time) *SampleSource {
	if now == nil {
		now = time.Now
	}
	return &SampleSource{now: now}
}

// Load generates the fixed catalog and computes its statistics.
func (s *SampleSource) Load(_ context.Context) (*LoadResult, error) {
	backend := sample.Transactions(s.now())
	txns := make([]model.Transaction, 0, len(backend))
	for i, b := range backend {
		t := model.Normalize(b)
		t.ID = fmt.Sprintf("TXN%03d", i+1)
		txns = append(txns, t)
	}

	return &LoadResult{
		Transactions: txns,
		Stats:        model.ComputeStats(txns),
	}, nil
}
