package store_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/serroba/items-api/internal/item"
	"github.com/serroba/items-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newSQLiteStore(t *testing.T) *store.SQLStore {
	t.Helper()

	ctx := context.Background()

	s, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "items.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Shutdown() })

	require.NoError(t, s.Migrate(ctx, zaptest.NewLogger(t)))

	return s
}

func TestSQLiteStore(t *testing.T) {
	testRepository(t, func(t *testing.T) item.Repository {
		return newSQLiteStore(t)
	})
}

func TestSQLiteStore_MigrateIsIdempotent(t *testing.T) {
	s := newSQLiteStore(t)

	require.NoError(t, s.Migrate(context.Background(), zaptest.NewLogger(t)))
	require.NoError(t, s.Ping(context.Background()))
}

func TestSQLiteStore_ConcurrentCreatesSameName(t *testing.T) {
	s := newSQLiteStore(t)

	const workers = 10

	errs := make([]error, workers)

	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, errs[i] = s.Create(context.Background(), item.NewItem{Name: "race"})
		}()
	}

	wg.Wait()

	succeeded := 0

	for _, err := range errs {
		if err == nil {
			succeeded++

			continue
		}

		require.ErrorIs(t, err, item.ErrConflict)
	}

	assert.Equal(t, 1, succeeded)
}
