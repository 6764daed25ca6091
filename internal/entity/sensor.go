package entity

import "sync"

// Sensor is a read-only value exposed to Home Assistant.
//
// A sensor that was never set has HasValue() == false and is left out of
// state payloads, which distinguishes "no reading yet" from a zero reading.
type Sensor struct {
	id          string
	name        string
	deviceClass string
	unit        string
	stateClass  StateClass
	icon        string
	precision   int

	mu       sync.RWMutex
	value    float64
	hasValue bool

	owner *Registry
}

// ID returns the sensor id.
func (s *Sensor) ID() string { return s.id }

// Name returns the display name.
func (s *Sensor) Name() string { return s.name }

// DeviceClass returns the Home Assistant device class, possibly empty.
func (s *Sensor) DeviceClass() string { return s.deviceClass }

// Unit returns the unit of measurement, possibly empty.
func (s *Sensor) Unit() string { return s.unit }

// StateClass returns the state class.
func (s *Sensor) StateClass() StateClass { return s.stateClass }

// Icon returns the icon, possibly empty.
func (s *Sensor) Icon() string { return s.icon }

// Precision returns the displayed number of decimals.
func (s *Sensor) Precision() int { return s.precision }

// SetValue stores v and notifies the registry.
//
// Every call notifies, including repeats of the current value: a sensor
// reading is a sample, not a state transition.
func (s *Sensor) SetValue(v float64) {
	s.mu.Lock()
	s.value = v
	s.hasValue = true
	s.mu.Unlock()

	if s.owner != nil {
		s.owner.sensorChanged(s)
	}
}

// Value returns the last value and whether one was ever set.
func (s *Sensor) Value() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.hasValue
}

// HasValue reports whether SetValue was ever called.
func (s *Sensor) HasValue() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasValue
}

// Snapshot returns a consistent copy of the sensor.
func (s *Sensor) Snapshot() SensorSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SensorSnapshot{
		ID:          s.id,
		Name:        s.name,
		DeviceClass: s.deviceClass,
		Unit:        s.unit,
		StateClass:  s.stateClass,
		Icon:        s.icon,
		Precision:   s.precision,
		Value:       s.value,
		HasValue:    s.hasValue,
	}
}
