package item

import (
	"context"
	"fmt"
	"time"
)

const (
	OpList       = "list"
	OpGet        = "get"
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpCreateMany = "create_many"
)

// Observer receives the outcome of every service call.
type Observer interface {
	ObserveOperation(operation, outcome string, elapsed time.Duration)
	ObserveBatchSize(size int)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, time.Duration) {}
func (nopObserver) ObserveBatchSize(int)                           {}

// Service implements the item use cases on top of a Repository.
//
// Name uniqueness is never checked before writing: the store constraint decides,
// so concurrent creates with the same name yield exactly one success.
type Service struct {
	repo     Repository
	observer Observer
}

// NewService creates a new item service. A nil observer discards observations.
func NewService(repo Repository, observer Observer) *Service {
	if observer == nil {
		observer = nopObserver{}
	}

	return &Service{
		repo:     repo,
		observer: observer,
	}
}

// List returns all items, newest created first.
func (s *Service) List(ctx context.Context) (items []*Item, err error) {
	defer s.observe(OpList, time.Now(), &err)

	return s.repo.List(ctx)
}

// Get returns the item with the given id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id ID) (it *Item, err error) {
	defer s.observe(OpGet, time.Now(), &err)

	return s.repo.Get(ctx, id)
}

// Create persists a new item. It fails with ErrConflict when the name is taken.
func (s *Service) Create(ctx context.Context, in NewItem) (it *Item, err error) {
	defer s.observe(OpCreate, time.Now(), &err)

	if err = in.Validate(); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, in)
}

// Update applies a partial update. Omitted fields are left unchanged.
func (s *Service) Update(ctx context.Context, id ID, patch Patch) (it *Item, err error) {
	defer s.observe(OpUpdate, time.Now(), &err)

	if err = patch.Validate(); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, patch)
}

// Delete removes the item with the given id or fails with ErrNotFound.
func (s *Service) Delete(ctx context.Context, id ID) (err error) {
	defer s.observe(OpDelete, time.Now(), &err)

	return s.repo.Delete(ctx, id)
}

// CreateMany creates all items in one transaction, in input order.
// Either every item is persisted or none is.
func (s *Service) CreateMany(ctx context.Context, inputs []NewItem) (items []*Item, err error) {
	defer s.observe(OpCreateMany, time.Now(), &err)

	s.observer.ObserveBatchSize(len(inputs))

	ops := make([]Operation[*Item], 0, len(inputs))

	for i, in := range inputs {
		if err = in.Validate(); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}

		ops = append(ops, func(ctx context.Context, tx Queries) (*Item, error) {
			return tx.Create(ctx, in)
		})
	}

	return ExecuteAll(ctx, s.repo, ops)
}

func (s *Service) observe(op string, start time.Time, err *error) {
	s.observer.ObserveOperation(op, Outcome(*err), time.Since(start))
}
