package journal

import "errors"

var (
	// ErrMissingEntityID is returned when an entity ID is empty.
	ErrMissingEntityID = errors.New("journal: entity id is required")

	// ErrInvalidRetention is returned when a prune window is not positive.
	ErrInvalidRetention = errors.New("journal: retention must be positive")
)
