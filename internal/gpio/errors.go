package gpio

import "errors"

// Domain errors for the gpio package.
var (
	// ErrChipClosed is returned when requesting lines after Close.
	ErrChipClosed = errors.New("gpio: chip closed")

	// ErrInvalidOffset is returned for negative line offsets.
	ErrInvalidOffset = errors.New("gpio: invalid line offset")
)
