package item

import "errors"

var (
	// ErrNotFound is returned when no item has the requested id.
	ErrNotFound = errors.New("item not found")
	// ErrConflict is returned when a write would duplicate an existing item name.
	ErrConflict = errors.New("item name already exists")
	// ErrInvalid is returned when item fields fail validation.
	ErrInvalid = errors.New("invalid item")
)

// Outcome labels a service result for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	default:
		return "error"
	}
}
