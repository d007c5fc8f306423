package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/insight-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	txns     []model.Transaction
	stats    *model.Stats
	fetchErr error
	statsErr error
	verified bool
}

func (m *mockClient) VerifyToken(_ context.Context) bool { return m.verified }

func (m *mockClient) Transactions(_ context.Context) ([]model.Transaction, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.txns, nil
}

func (m *mockClient) Stats(_ context.Context) (*model.Stats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return m.stats, nil
}

type mockSnapshotter struct {
	saved   []model.Transaction
	loadErr error
	saveErr error
	saves   int
}

func (m *mockSnapshotter) SaveSnapshot(_ context.Context, txns []model.Transaction) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append([]model.Transaction(nil), txns...)
	m.saves++
	return nil
}

func (m *mockSnapshotter) LoadSnapshot(_ context.Context) ([]model.Transaction, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.saved, nil
}

func TestRemoteSourceFetchesAndCaches(t *testing.T) {
	txns := []model.Transaction{
		{ID: "1", Amount: 5000, Type: model.TypeIncome, Category: "Salary"},
		{ID: "2", Amount: 300, Type: model.TypeExpense, Category: "Grocery"},
	}
	client := &mockClient{
		txns:  txns,
		stats: &model.Stats{TotalTransactions: 2, TotalIncome: 5000, TotalExpenses: 300, NetAmount: 4700},
	}
	cache := &mockSnapshotter{}

	result, err := NewRemoteSource(client, cache).Load(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Offline)
	assert.Empty(t, result.Notice)
	assert.Len(t, result.Transactions, 2)
	assert.Equal(t, 4700.0, result.Stats.NetAmount)
	assert.Equal(t, 1, cache.saves, "successful fetch must refresh the snapshot")
	assert.Len(t, cache.saved, 2)
}

func TestRemoteSourceFallsBackToCacheOnFetchError(t *testing.T) {
	cached := []model.Transaction{
		{ID: "1", Amount: 100, Type: model.TypeExpense, Category: "Fees"},
	}
	client := &mockClient{fetchErr: errors.New("connection refused")}
	cache := &mockSnapshotter{saved: cached}

	result, err := NewRemoteSource(client, cache).Load(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Offline)
	assert.Contains(t, result.Notice, "connection refused")
	assert.Len(t, result.Transactions, 1)
	// Stats derived from the cached list, not fetched.
	assert.Equal(t, 1, result.Stats.TotalTransactions)
	assert.Equal(t, 100.0, result.Stats.TotalExpenses)
}

func TestRemoteSourceErrorsWhenFetchAndCacheBothFail(t *testing.T) {
	fetchErr := errors.New("network down")
	client := &mockClient{fetchErr: fetchErr}
	cache := &mockSnapshotter{loadErr: errors.New("disk gone")}

	_, err := NewRemoteSource(client, cache).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, fetchErr, err, "the fetch error is the one surfaced")
}

func TestRemoteSourceDerivesStatsLocallyWhenStatsCallFails(t *testing.T) {
	txns := []model.Transaction{
		{ID: "1", Amount: 200, Type: model.TypeIncome, Category: "Salary"},
	}
	client := &mockClient{txns: txns, statsErr: errors.New("stats unavailable")}
	cache := &mockSnapshotter{}

	result, err := NewRemoteSource(client, cache).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200.0, result.Stats.TotalIncome)
	assert.Equal(t, 1, result.Stats.TotalTransactions)
}

func TestRemoteSourceCacheWriteFailureDoesNotFailRead(t *testing.T) {
	client := &mockClient{txns: []model.Transaction{{ID: "1"}}}
	cache := &mockSnapshotter{saveErr: errors.New("read-only filesystem")}

	result, err := NewRemoteSource(client, cache).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Transactions, 1)
}

func TestSampleSourceGeneratesFixedCatalog(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC) }

	result, err := NewSampleSource(now).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Transactions, 20)
	assert.Equal(t, "TXN001", result.Transactions[0].ID)
	assert.Equal(t, "TXN020", result.Transactions[19].ID)

	// Amounts are normalized: non-negative, sign carried by type.
	for _, tx := range result.Transactions {
		assert.GreaterOrEqual(t, tx.Amount, 0.0)
		assert.Contains(t, []model.TransactionType{model.TypeIncome, model.TypeExpense}, tx.Type)
		assert.NotEmpty(t, tx.Category)
	}

	// Stats derived from the same list.
	assert.Equal(t, 20, result.Stats.TotalTransactions)
	assert.InDelta(t, result.Stats.TotalIncome-result.Stats.TotalExpenses, result.Stats.NetAmount, 0.001)
}

func TestSampleSourceIsDeterministicForAFixedClock(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC) }
	src := NewSampleSource(now)

	first, err := src.Load(context.Background())
	require.NoError(t, err)
	second, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Transactions, second.Transactions)
	assert.Equal(t, first.Stats, second.Stats)
}
