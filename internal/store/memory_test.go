package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/serroba/items-api/internal/item"
	"github.com/serroba/items-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	testRepository(t, func(_ *testing.T) item.Repository {
		return store.NewMemoryStore()
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := store.NewMemoryStore()
	desc := "original"

	created, err := s.Create(context.Background(), item.NewItem{Name: "copy", Description: &desc})
	require.NoError(t, err)

	desc = "mutated input"
	created.Name = "mutated output"
	*created.Description = "mutated output"

	got, err := s.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "copy", got.Name)
	assert.Equal(t, "original", *got.Description)
}

func TestMemoryStore_RollsBackOnPanic(t *testing.T) {
	s := store.NewMemoryStore()

	assert.Panics(t, func() {
		_ = s.InTransaction(context.Background(), func(tx item.Queries) error {
			_, _ = tx.Create(context.Background(), item.NewItem{Name: "half"})

			panic("boom")
		})
	})

	items, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	s := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.InTransaction(ctx, func(item.Queries) error {
		called = true

		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMemoryStore_ConcurrentCreatesSameName(t *testing.T) {
	s := store.NewMemoryStore()

	const workers = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := s.Create(context.Background(), item.NewItem{Name: "race"})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, item.ErrConflict):
				conflicts++
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
}
