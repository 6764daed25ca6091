package ble

import "errors"

// Domain errors for the ble package.
var (
	// ErrNotRunning is returned when advertising before Begin succeeded.
	ErrNotRunning = errors.New("ble: not running")

	// ErrTooManySwitches is returned when registering more switches than
	// the one-byte command index can address.
	ErrTooManySwitches = errors.New("ble: too many switches")

	// ErrAdvertisementFull is returned when a sensor could not fit in the
	// advertisement next to the sensors already registered.
	ErrAdvertisementFull = errors.New("ble: advertisement full")

	// ErrSwitchExists is returned when a switch is added twice.
	ErrSwitchExists = errors.New("ble: switch already registered")

	// ErrUnknownCharacteristic is returned by radios for an unsupported
	// characteristic id.
	ErrUnknownCharacteristic = errors.New("ble: unknown characteristic")

	// ErrRadioDisabled is returned by radios used before Enable.
	ErrRadioDisabled = errors.New("ble: radio not enabled")
)
