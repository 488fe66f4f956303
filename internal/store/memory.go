package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/serroba/items-api/internal/item"
)

// MemoryStore is an in-memory implementation of item.Repository.
//
// Transactions hold the write lock for their whole duration and restore a
// snapshot on rollback, so they are serializable.
type MemoryStore struct {
	mu    sync.RWMutex
	state memoryState
	now   func() time.Time
}

type memoryState struct {
	items  map[item.ID]item.Item
	names  map[string]item.ID // name -> id, enforces uniqueness
	nextID item.ID
}

// NewMemoryStore creates a new in-memory item store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memoryState{
			items:  make(map[item.ID]item.Item),
			names:  make(map[string]item.ID),
			nextID: 1,
		},
		now: time.Now,
	}
}

func (m *MemoryStore) List(_ context.Context) ([]*item.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.list(), nil
}

func (m *MemoryStore) Get(_ context.Context, id item.ID) (*item.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.get(id)
}

func (m *MemoryStore) Create(_ context.Context, in item.NewItem) (*item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.create(in, m.now())
}

func (m *MemoryStore) Update(_ context.Context, id item.ID, patch item.Patch) (*item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.update(id, patch, m.now())
}

func (m *MemoryStore) Delete(_ context.Context, id item.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.delete(id)
}

// InTransaction implements item.Transactor.
func (m *MemoryStore) InTransaction(ctx context.Context, f func(tx item.Queries) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	done := false

	// Restores the snapshot unless f succeeded, including when f panics.
	defer func() {
		if !done {
			m.state = snapshot
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}

	if err = f(&memoryTx{state: &m.state, now: m.now}); err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	done = true

	return nil
}

// memoryTx is the transaction-scoped handle. The store's write lock is held
// by InTransaction while it is in use.
type memoryTx struct {
	state *memoryState
	now   func() time.Time
}

func (t *memoryTx) List(_ context.Context) ([]*item.Item, error) {
	return t.state.list(), nil
}

func (t *memoryTx) Get(_ context.Context, id item.ID) (*item.Item, error) {
	return t.state.get(id)
}

func (t *memoryTx) Create(_ context.Context, in item.NewItem) (*item.Item, error) {
	return t.state.create(in, t.now())
}

func (t *memoryTx) Update(_ context.Context, id item.ID, patch item.Patch) (*item.Item, error) {
	return t.state.update(id, patch, t.now())
}

func (t *memoryTx) Delete(_ context.Context, id item.ID) error {
	return t.state.delete(id)
}

func (s *memoryState) list() []*item.Item {
	items := make([]*item.Item, 0, len(s.items))

	for _, it := range s.items {
		items = append(items, cloneItem(it))
	}

	slices.SortFunc(items, func(a, b *item.Item) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(b.ID, a.ID)
	})

	return items
}

func (s *memoryState) get(id item.ID) (*item.Item, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, item.ErrNotFound
	}

	return cloneItem(it), nil
}

func (s *memoryState) create(in item.NewItem, now time.Time) (*item.Item, error) {
	if _, taken := s.names[in.Name]; taken {
		return nil, item.ErrConflict
	}

	it := item.Item{
		ID:          s.nextID,
		Name:        in.Name,
		Description: cloneString(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.nextID++
	s.items[it.ID] = it
	s.names[it.Name] = it.ID

	return cloneItem(it), nil
}

func (s *memoryState) update(id item.ID, patch item.Patch, now time.Time) (*item.Item, error) {
	current, ok := s.items[id]
	if !ok {
		return nil, item.ErrNotFound
	}

	updated := patch.Apply(current)
	if updated.Name != current.Name {
		if _, taken := s.names[updated.Name]; taken {
			return nil, item.ErrConflict
		}

		delete(s.names, current.Name)
		s.names[updated.Name] = id
	}

	updated.UpdatedAt = now
	s.items[id] = updated

	return cloneItem(updated), nil
}

func (s *memoryState) delete(id item.ID) error {
	it, ok := s.items[id]
	if !ok {
		return item.ErrNotFound
	}

	delete(s.items, id)
	delete(s.names, it.Name)

	return nil
}

func (s *memoryState) clone() memoryState {
	return memoryState{
		items:  maps.Clone(s.items),
		names:  maps.Clone(s.names),
		nextID: s.nextID,
	}
}

func cloneItem(it item.Item) *item.Item {
	it.Description = cloneString(it.Description)

	return &it
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s

	return &v
}

// Compile-time check.
var _ item.Repository = (*MemoryStore)(nil)
