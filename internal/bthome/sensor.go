package bthome

import (
	"math"
	"sync"
)

// Sensor is a BTHome reading: an object id and its already-scaled raw value.
//
// A Sensor that was never set is skipped by the encoder.
type Sensor struct {
	objectID ObjectID

	mu       sync.RWMutex
	raw      int32
	hasValue bool
}

// Reading is the value of a Sensor at one point in time.
type Reading struct {
	ObjectID ObjectID
	Raw      int32
	HasValue bool
}

// NewSensor creates a sensor for the given object id.
func NewSensor(id ObjectID) *Sensor {
	return &Sensor{objectID: id}
}

// ObjectID returns the object id of the sensor.
func (s *Sensor) ObjectID() ObjectID { return s.objectID }

// SetValue scales v by the object multiplier and truncates it toward zero.
//
// The multiplication is done in single precision, so 21.37 °C stores 2137
// rather than 2136.
//
// NaN and infinities leave the reading unchanged. Scaled values beyond the
// int32 range saturate.
func (s *Sensor) SetValue(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	scaled := float64(float32(float32(v) * s.objectID.Multiplier()))
	switch {
	case scaled >= math.MaxInt32:
		s.SetValueRaw(math.MaxInt32)
	case scaled <= math.MinInt32:
		s.SetValueRaw(math.MinInt32)
	default:
		s.SetValueRaw(int32(scaled))
	}
}

// SetValueRaw stores an already-scaled value.
func (s *Sensor) SetValueRaw(raw int32) {
	s.mu.Lock()
	s.raw = raw
	s.hasValue = true
	s.mu.Unlock()
}

// SetState stores 1 for true and 0 for false. Used by binary objects.
func (s *Sensor) SetState(on bool) {
	var raw int32
	if on {
		raw = 1
	}
	s.SetValueRaw(raw)
}

// TriggerButton stores a button event.
func (s *Sensor) TriggerButton(ev ButtonEvent) {
	s.SetValueRaw(int32(ev))
}

// Reading returns the current reading.
func (s *Sensor) Reading() Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Reading{ObjectID: s.objectID, Raw: s.raw, HasValue: s.hasValue}
}

// Value returns the reading converted back to its physical unit.
func (s *Sensor) Value() (float64, bool) {
	r := s.Reading()
	return ScaleRaw(r.ObjectID, r.Raw), r.HasValue
}

// ScaleRaw divides a raw value by the object multiplier.
func ScaleRaw(id ObjectID, raw int32) float64 {
	return float64(raw) / float64(id.Multiplier())
}
