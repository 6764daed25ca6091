package hastate

import "errors"

var (
	// ErrMissingEntityID is returned when a push has no entity id.
	ErrMissingEntityID = errors.New("hastate: missing entity_id")

	// ErrStoreFull is returned when a new entity id arrives at capacity.
	ErrStoreFull = errors.New("hastate: max entities reached")
)
