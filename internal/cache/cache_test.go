package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/insight-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func makeTransactions(n int) []model.Transaction {
	txns := make([]model.Transaction, 0, n)
	base := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		txns = append(txns, model.Transaction{
			ID:       fmt.Sprintf("%d", i+1),
			Title:    fmt.Sprintf("Transaction %d", i+1),
			Amount:   float64(100 + i),
			Type:     model.TypeExpense,
			Category: "Grocery",
			Date:     base.Add(time.Duration(i) * time.Hour),
		})
	}
	return txns
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved := makeTransactions(6)
	require.NoError(t, store.SaveSnapshot(ctx, saved))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 6)

	// Newest first.
	assert.Equal(t, "6", loaded[0].ID)
	assert.Equal(t, "1", loaded[5].ID)
	assert.Equal(t, "Transaction 6", loaded[0].Title)
	assert.Equal(t, model.TypeExpense, loaded[0].Type)
	assert.Equal(t, "Grocery", loaded[0].Category)
	assert.Equal(t, 105.0, loaded[0].Amount)
}

func TestSecondSaveFullyReplacesFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, makeTransactions(6)))
	require.NoError(t, store.SaveSnapshot(ctx, makeTransactions(3)))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 3, "second snapshot must replace, not merge")
}

func TestSaveEmptySnapshotClearsCache(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSnapshot(ctx, makeTransactions(4)))
	require.NoError(t, store.SaveSnapshot(ctx, nil))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadWithoutSaveReturnsEmptyList(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.SaveSnapshot(ctx, makeTransactions(5)))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	loaded, err := reopened.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 5)
}
