package bthome

import (
	"fmt"
	"sync"
)

// Advertisement layout constants.
const (
	// MaxAdvertisementSize is the legacy advertising payload limit.
	MaxAdvertisementSize = 31

	// ServiceUUID is the 16-bit BTHome service UUID.
	ServiceUUID uint16 = 0xFCD2

	// DeviceInfoV2 is the device information byte: version 2, unencrypted,
	// not trigger based.
	DeviceInfoV2 byte = 0x40

	adTypeFlags       byte = 0x01
	adTypeServiceData byte = 0x16

	// flagsGeneralDiscoverable is LE General Discoverable | BR/EDR Not Supported.
	flagsGeneralDiscoverable byte = 0x06

	// flagsSize is the full Flags AD structure: length, type, value.
	flagsSize = 3

	// serviceHeaderSize is length, type, UUID (2) and info byte.
	serviceHeaderSize = 5
)

// Encoder builds BTHome advertisements from an ordered set of sensors.
//
// Sensors are encoded in the order they were added. Sensors sharing an
// object id are all encoded.
type Encoder struct {
	mu      sync.RWMutex
	sensors []*Sensor
}

// NewEncoder creates an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Add appends a sensor to the encode order.
func (e *Encoder) Add(s *Sensor) {
	e.mu.Lock()
	e.sensors = append(e.sensors, s)
	e.mu.Unlock()
}

// Sensors returns the sensors in encode order.
func (e *Encoder) Sensors() []*Sensor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Sensor, len(e.sensors))
	copy(out, e.sensors)
	return out
}

// Capacity returns the bytes left for records if every added sensor had a
// value, which is the worst case the encoder can face.
func (e *Encoder) Capacity() int {
	used := flagsSize + serviceHeaderSize
	for _, s := range e.Sensors() {
		used += 1 + s.ObjectID().DataSize()
	}
	return MaxAdvertisementSize - used
}

// Encode returns the advertisement for the current sensor values.
func (e *Encoder) Encode() ([]byte, error) {
	sensors := e.Sensors()
	readings := make([]Reading, len(sensors))
	for i, s := range sensors {
		readings[i] = s.Reading()
	}
	return Encode(readings)
}

// Encode builds a BTHome v2 advertisement from readings.
//
// Readings without a value are skipped. The result depends only on the
// (object id, raw, has value) tuples, so equal input gives equal bytes.
//
// Returns:
//   - []byte: Flags AD structure followed by the BTHome Service Data structure
//   - error: ErrPayloadTooLarge if the records exceed MaxAdvertisementSize
func Encode(readings []Reading) ([]byte, error) {
	// Service data length: UUID (2) + info (1) + records.
	serviceLen := 3 //nolint:mnd // UUID + device info byte
	for _, r := range readings {
		if r.HasValue {
			serviceLen += 1 + r.ObjectID.DataSize()
		}
	}
	if serviceLen+1 > 0xFF {
		return nil, fmt.Errorf("%w: service data of %d bytes", ErrPayloadTooLarge, serviceLen)
	}

	w := NewWriter(MaxAdvertisementSize)
	header := []byte{
		2, adTypeFlags, flagsGeneralDiscoverable,
		byte(serviceLen + 1), adTypeServiceData,
		byte(ServiceUUID & 0xFF), byte(ServiceUUID >> 8), //nolint:mnd // little-endian UUID
		DeviceInfoV2,
	}
	if _, err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range readings {
		if !r.HasValue {
			continue
		}
		if err := w.WriteByte(byte(r.ObjectID)); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", r.ObjectID, err)
		}
		if err := w.WriteUintLE(uint32(r.Raw), r.ObjectID.DataSize()); err != nil { //nolint:gosec // two's complement is the wire format
			return nil, fmt.Errorf("encoding %s: %w", r.ObjectID, err)
		}
	}

	return w.Bytes(), nil
}
