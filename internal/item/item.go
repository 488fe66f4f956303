package item

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxNameLength is the maximum number of characters in an item name.
const MaxNameLength = 255

// ID identifies a persisted item. It is generated by the store on creation.
type ID int64

// Item represents a persisted item.
type Item struct {
	ID          ID
	Name        string
	Description *string // nil when absent
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewItem holds the fields accepted when creating an item.
type NewItem struct {
	Name        string
	Description *string
}

// Validate checks the fields of a new item.
func (n NewItem) Validate() error {
	return validateName(n.Name)
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name        *string
	Description *string
}

// Validate checks the fields present in the patch.
func (p Patch) Validate() error {
	if p.Name == nil {
		return nil
	}

	return validateName(*p.Name)
}

// Apply returns a copy of it with the patch fields replaced.
func (p Patch) Apply(it Item) Item {
	if p.Name != nil {
		it.Name = *p.Name
	}

	if p.Description != nil {
		desc := *p.Description
		it.Description = &desc
	}

	return it
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalid)
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalid, MaxNameLength)
	}

	return nil
}
