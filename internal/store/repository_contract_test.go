package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/AlekSi/pointer"
	"github.com/serroba/items-api/internal/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errAbort = errors.New("abort")

// testRepository runs the behaviour every item.Repository must share.
// newRepo must return an empty repository.
func testRepository(t *testing.T, newRepo func(t *testing.T) item.Repository) {
	t.Helper()

	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, item.NewItem{Name: "lamp", Description: pointer.ToString("desk lamp")})
		require.NoError(t, err)
		assert.Positive(t, created.ID)
		assert.Equal(t, "lamp", created.Name)
		assert.Equal(t, pointer.ToString("desk lamp"), created.Description)
		assert.False(t, created.CreatedAt.IsZero())
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, created.Name, got.Name)
		assert.Equal(t, created.Description, got.Description)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("description is optional", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, item.NewItem{Name: "chair"})
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Description)
	})

	t.Run("ids are unique", func(t *testing.T) {
		repo := newRepo(t)

		a, err := repo.Create(ctx, item.NewItem{Name: "a"})
		require.NoError(t, err)
		b, err := repo.Create(ctx, item.NewItem{Name: "b"})
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Create(ctx, item.NewItem{Name: "taken"})
		require.NoError(t, err)

		got, err := repo.Create(ctx, item.NewItem{Name: "taken"})
		assert.Nil(t, got)
		require.ErrorIs(t, err, item.ErrConflict)

		items, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("names differing in case or accents are distinct", func(t *testing.T) {
		repo := newRepo(t)

		for _, name := range []string{"Lamp", "lamp", "LAMP", "café", "cafe"} {
			_, err := repo.Create(ctx, item.NewItem{Name: name})
			require.NoError(t, err, name)
		}

		items, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 5)

		_, err = repo.Create(ctx, item.NewItem{Name: "café"})
		require.ErrorIs(t, err, item.ErrConflict)
	})

	t.Run("renaming to a name differing only in case succeeds", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Create(ctx, item.NewItem{Name: "chair"})
		require.NoError(t, err)

		other, err := repo.Create(ctx, item.NewItem{Name: "stool"})
		require.NoError(t, err)

		renamed, err := repo.Update(ctx, other.ID, item.Patch{Name: pointer.ToString("Chair")})
		require.NoError(t, err)
		assert.Equal(t, "Chair", renamed.Name)
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)

		got, err := repo.Get(ctx, 999999)
		assert.Nil(t, got)
		require.ErrorIs(t, err, item.ErrNotFound)
	})

	t.Run("list is newest first", func(t *testing.T) {
		repo := newRepo(t)

		items, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)

		for _, name := range []string{"first", "second", "third"} {
			_, err = repo.Create(ctx, item.NewItem{Name: name})
			require.NoError(t, err)
		}

		items, err = repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "third", items[0].Name)
		assert.Equal(t, "second", items[1].Name)
		assert.Equal(t, "first", items[2].Name)
	})

	t.Run("update changes only given fields", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, item.NewItem{Name: "old", Description: pointer.ToString("keep me")})
		require.NoError(t, err)

		updated, err := repo.Update(ctx, created.ID, item.Patch{Name: pointer.ToString("new")})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "new", updated.Name)
		assert.Equal(t, pointer.ToString("keep me"), updated.Description)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

		updated, err = repo.Update(ctx, created.ID, item.Patch{Description: pointer.ToString("changed")})
		require.NoError(t, err)
		assert.Equal(t, "new", updated.Name)
		assert.Equal(t, pointer.ToString("changed"), updated.Description)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "new", got.Name)
		assert.Equal(t, pointer.ToString("changed"), got.Description)
	})

	t.Run("update keeping own name succeeds", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, item.NewItem{Name: "same"})
		require.NoError(t, err)

		updated, err := repo.Update(ctx, created.ID, item.Patch{Name: pointer.ToString("same")})
		require.NoError(t, err)
		assert.Equal(t, "same", updated.Name)
	})

	t.Run("update to taken name conflicts", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Create(ctx, item.NewItem{Name: "one"})
		require.NoError(t, err)
		two, err := repo.Create(ctx, item.NewItem{Name: "two"})
		require.NoError(t, err)

		_, err = repo.Update(ctx, two.ID, item.Patch{Name: pointer.ToString("one")})
		require.ErrorIs(t, err, item.ErrConflict)

		got, err := repo.Get(ctx, two.ID)
		require.NoError(t, err)
		assert.Equal(t, "two", got.Name)
	})

	t.Run("update missing returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)

		got, err := repo.Update(ctx, 999999, item.Patch{Name: pointer.ToString("x")})
		assert.Nil(t, got)
		require.ErrorIs(t, err, item.ErrNotFound)
	})

	t.Run("delete removes the item", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, item.NewItem{Name: "gone"})
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, created.ID))

		_, err = repo.Get(ctx, created.ID)
		require.ErrorIs(t, err, item.ErrNotFound)

		require.ErrorIs(t, repo.Delete(ctx, created.ID), item.ErrNotFound)

		_, err = repo.Create(ctx, item.NewItem{Name: "gone"})
		require.NoError(t, err, "deleted names can be reused")
	})

	t.Run("transaction commits", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.InTransaction(ctx, func(tx item.Queries) error {
			if _, err := tx.Create(ctx, item.NewItem{Name: "tx-a"}); err != nil {
				return err
			}

			_, err := tx.Create(ctx, item.NewItem{Name: "tx-b"})

			return err
		})
		require.NoError(t, err)

		items, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("transaction sees its own writes", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.InTransaction(ctx, func(tx item.Queries) error {
			created, err := tx.Create(ctx, item.NewItem{Name: "visible"})
			if err != nil {
				return err
			}

			got, err := tx.Get(ctx, created.ID)
			if err != nil {
				return err
			}

			assert.Equal(t, "visible", got.Name)

			return nil
		})
		require.NoError(t, err)
	})

	t.Run("transaction rolls back and returns the error unwrapped", func(t *testing.T) {
		repo := newRepo(t)

		existing, err := repo.Create(ctx, item.NewItem{Name: "existing"})
		require.NoError(t, err)

		err = repo.InTransaction(ctx, func(tx item.Queries) error {
			if _, err := tx.Create(ctx, item.NewItem{Name: "discarded"}); err != nil {
				return err
			}

			if _, err := tx.Update(ctx, existing.ID, item.Patch{Name: pointer.ToString("renamed")}); err != nil {
				return err
			}

			if err := tx.Delete(ctx, existing.ID); err != nil {
				return err
			}

			return errAbort
		})
		assert.Equal(t, errAbort, err)

		items, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "existing", items[0].Name)
	})

	t.Run("conflict inside transaction rolls back everything", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.InTransaction(ctx, func(tx item.Queries) error {
			if _, err := tx.Create(ctx, item.NewItem{Name: "dup"}); err != nil {
				return err
			}

			_, err := tx.Create(ctx, item.NewItem{Name: "dup"})

			return err
		})
		require.ErrorIs(t, err, item.ErrConflict)

		items, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
