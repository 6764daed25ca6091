package dispatch

import "errors"

var (
	// ErrMissingEntityID is returned when a command has no entity id.
	ErrMissingEntityID = errors.New("dispatch: missing entity_id")

	// ErrUnknownCommand is returned for a command string other than
	// turn_on, turn_off or toggle.
	ErrUnknownCommand = errors.New("dispatch: unknown command")

	// ErrMissingState is returned when neither a command string nor a
	// boolean state is present.
	ErrMissingState = errors.New("dispatch: missing command or state")

	// ErrSwitchNotFound is returned when no switch has the entity id.
	ErrSwitchNotFound = errors.New("dispatch: switch not found")

	// ErrInvalidCommand is returned when a command body is not a JSON object.
	ErrInvalidCommand = errors.New("dispatch: invalid command")
)
