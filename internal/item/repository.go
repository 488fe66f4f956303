package item

import "context"

// Queries are the item operations available on a store and inside its transactions.
//
// Implementations report missing rows with ErrNotFound and unique name violations
// with ErrConflict. Any other error is a store failure.
type Queries interface {
	// List returns all items, newest created first.
	List(ctx context.Context) ([]*Item, error)
	Get(ctx context.Context, id ID) (*Item, error)
	Create(ctx context.Context, in NewItem) (*Item, error)
	Update(ctx context.Context, id ID, patch Patch) (*Item, error)
	Delete(ctx context.Context, id ID) error
}

// Transactor opens transactional scopes.
type Transactor interface {
	// InTransaction runs f with a transaction-scoped Queries.
	// The transaction is committed when f returns nil and rolled back otherwise.
	// The error returned by f is passed through unwrapped.
	//
	// f must only use the provided handle; calling back into the store may block.
	InTransaction(ctx context.Context, f func(tx Queries) error) error
}

// Repository is the persistence contract the service depends on.
type Repository interface {
	Queries
	Transactor
}
