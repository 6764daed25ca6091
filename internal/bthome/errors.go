package bthome

import "errors"

// Domain errors for the bthome package.
var (
	// ErrPayloadTooLarge is returned when a record does not fit in the
	// remaining advertisement capacity.
	ErrPayloadTooLarge = errors.New("bthome: payload too large")

	// ErrMalformedAD is returned when an AD structure length runs past the
	// end of the advertisement.
	ErrMalformedAD = errors.New("bthome: malformed advertising data")

	// ErrNotBTHome is returned when an advertisement carries no BTHome
	// service data.
	ErrNotBTHome = errors.New("bthome: no BTHome service data")

	// ErrUnsupportedVersion is returned for a device info byte that is not
	// BTHome v2, or that announces encryption.
	ErrUnsupportedVersion = errors.New("bthome: unsupported version or encryption")

	// ErrUnknownObject is returned when decoding meets an object id whose
	// size is not known, which makes the rest of the packet unreadable.
	ErrUnknownObject = errors.New("bthome: unknown object id")

	// ErrTruncated is returned when a record is cut short.
	ErrTruncated = errors.New("bthome: truncated record")
)
