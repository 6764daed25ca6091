package ble

import "time"

// GATT and advertisement identifiers.
const (
	ControlServiceUUID = "5eed0001-b5a3-f393-e0a9-e50e24dcca9e"
	CommandCharUUID    = "5eed0002-b5a3-f393-e0a9-e50e24dcca9e"
	StateCharUUID      = "5eed0003-b5a3-f393-e0a9-e50e24dcca9e"

	// DefaultAdvertiseInterval is how often Run rebuilds the advertisement.
	DefaultAdvertiseInterval = 5000 * time.Millisecond

	// MaxSwitches is the number of switches the one-byte index can address.
	MaxSwitches = 255
)

// CharacteristicID names a characteristic of the control service.
type CharacteristicID int

// Control service characteristics.
const (
	CommandCharacteristic CharacteristicID = iota + 1
	StateCharacteristic
)

// String returns the characteristic name.
func (c CharacteristicID) String() string {
	switch c {
	case CommandCharacteristic:
		return "command"
	case StateCharacteristic:
		return "state"
	default:
		return "unknown"
	}
}

// RadioConfig is passed to Radio.Enable.
type RadioConfig struct {
	// LocalName is the advertised device name.
	LocalName string

	// Control creates the GATT control service and makes advertising
	// connectable.
	Control bool

	// Interval is the advertising interval hint for the controller.
	Interval time.Duration
}

// EventHandler receives inbound radio events.
//
// Radios may call these from their own goroutines.
type EventHandler interface {
	OnWrite(id CharacteristicID, value []byte)
	OnConnect()
	OnDisconnect()
}

// Radio is the platform BLE capability a Peripheral needs.
type Radio interface {
	// Enable powers the radio, creates the control service when requested
	// and registers events as the target of inbound events.
	Enable(cfg RadioConfig, events EventHandler) error

	// SetAdvertisementPayload replaces the raw advertising data.
	SetAdvertisementPayload(payload []byte) error

	// StartAdvertising starts (or keeps) advertising the current payload.
	StartAdvertising() error

	// WriteCharacteristic sets the readable value of a characteristic.
	WriteCharacteristic(id CharacteristicID, value []byte) error

	// NotifyCharacteristic sets the value and pushes it to a connected,
	// subscribed central.
	NotifyCharacteristic(id CharacteristicID, value []byte) error
}
