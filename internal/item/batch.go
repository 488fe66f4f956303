package item

import "context"

// Operation is a single step of an atomic batch.
type Operation[T any] func(ctx context.Context, tx Queries) (T, error)

// ExecuteAll runs ops in order inside one transaction and returns their results
// in the same order. A later operation observes the effects of earlier ones.
//
// If any operation fails the transaction is rolled back and that operation's error
// is returned as is. An empty ops slice succeeds without opening a transaction.
func ExecuteAll[T any](ctx context.Context, t Transactor, ops []Operation[T]) ([]T, error) {
	if len(ops) == 0 {
		return []T{}, nil
	}

	var results []T

	err := t.InTransaction(ctx, func(tx Queries) error {
		results = make([]T, 0, len(ops))

		for _, op := range ops {
			res, err := op(ctx, tx)
			if err != nil {
				return err
			}

			results = append(results, res)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}
