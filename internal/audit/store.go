package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/items-api/internal/messaging"
)

var errUnknownAction = errors.New("unknown action")

// Store defines the interface for persisting audit records.
type Store interface {
	SaveItemChanged(ctx context.Context, event *ItemChanged) error
}

// NewHandler returns a messaging handler that validates events and saves them to store.
// Events with an unknown action are rejected and dropped. Store failures are
// returned as is so the event is redelivered.
func NewHandler(store Store) messaging.Handler[ItemChanged] {
	return func(ctx context.Context, event *ItemChanged) error {
		switch event.Action {
		case ActionCreated, ActionUpdated, ActionDeleted, ActionBatchCreated:
		default:
			return messaging.Reject(fmt.Errorf("%w: %q", errUnknownAction, event.Action))
		}

		return store.SaveItemChanged(ctx, event)
	}
}
