package identity

import "errors"

var (
	// ErrNoInterface is returned when no usable network interface exists.
	ErrNoInterface = errors.New("identity: no network interface with a hardware address")

	// ErrInvalidMAC is returned for hardware addresses that are not 6 bytes.
	ErrInvalidMAC = errors.New("identity: invalid MAC address")
)
