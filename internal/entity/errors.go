package entity

import "errors"

// Domain errors for the entity package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, entity.ErrEntityExists) {
//	    // id already taken in that collection
//	}
var (
	// ErrEntityExists is returned when registering an id that is already
	// used in the same collection.
	ErrEntityExists = errors.New("entity: already exists")

	// ErrInvalidEntity is returned when an entity id or name is empty.
	ErrInvalidEntity = errors.New("entity: invalid")

	// ErrInvalidStateClass is returned for a state class outside
	// measurement, total and total_increasing.
	ErrInvalidStateClass = errors.New("entity: invalid state class")
)
