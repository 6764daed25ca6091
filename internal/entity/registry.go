package entity

import (
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry owns all sensors and switches of a device.
//
// Sensors and switches are separate namespaces: the same id may be used
// once in each. Both collections keep registration order, which is the
// order used for discovery and for BLE switch indexes.
//
// All public methods are thread-safe.
type Registry struct {
	mu        sync.RWMutex
	sensors   []*Sensor
	switches  []*Switch
	sensorIdx map[string]*Sensor
	switchIdx map[string]*Switch

	listenersMu sync.RWMutex
	listeners   []Listener

	logger Logger
}

// Stats holds registry counters.
type Stats struct {
	Sensors        int
	SensorsWithout int // sensors that never received a value
	Switches       int
	SwitchesOn     int
	Listeners      int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sensorIdx: make(map[string]*Sensor),
		switchIdx: make(map[string]*Switch),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// AddListener subscribes l to all future entity changes.
func (r *Registry) AddListener(l Listener) {
	r.listenersMu.Lock()
	r.listeners = append(r.listeners, l)
	r.listenersMu.Unlock()
}

// AddSensor registers a new sensor.
//
// The sensor starts without a value, with state class "measurement" and
// precision 1 unless overridden by options.
func (r *Registry) AddSensor(id, name string, opts ...SensorOption) (*Sensor, error) {
	if id == "" || name == "" {
		return nil, fmt.Errorf("%w: sensor id and name are required", ErrInvalidEntity)
	}

	s := &Sensor{
		id:         id,
		name:       name,
		stateClass: StateClassMeasurement,
		precision:  DefaultPrecision,
		owner:      r,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.stateClass.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStateClass, s.stateClass)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sensorIdx[id]; exists {
		return nil, fmt.Errorf("%w: sensor %q", ErrEntityExists, id)
	}
	r.sensors = append(r.sensors, s)
	r.sensorIdx[id] = s

	r.logger.Debug("sensor registered", "id", id, "device_class", s.deviceClass)
	return s, nil
}

// AddSwitch registers a new switch, initially off unless WithInitialState
// says otherwise.
func (r *Registry) AddSwitch(id, name string, opts ...SwitchOption) (*Switch, error) {
	if id == "" || name == "" {
		return nil, fmt.Errorf("%w: switch id and name are required", ErrInvalidEntity)
	}

	sw := &Switch{
		id:    id,
		name:  name,
		owner: r,
	}
	for _, opt := range opts {
		opt(sw)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.switchIdx[id]; exists {
		return nil, fmt.Errorf("%w: switch %q", ErrEntityExists, id)
	}
	r.switches = append(r.switches, sw)
	r.switchIdx[id] = sw

	r.logger.Debug("switch registered", "id", id)
	return sw, nil
}

// Sensor returns the sensor with the given id.
func (r *Registry) Sensor(id string) (*Sensor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sensorIdx[id]
	return s, ok
}

// Switch returns the switch with the given id.
func (r *Registry) Switch(id string) (*Switch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sw, ok := r.switchIdx[id]
	return sw, ok
}

// Sensors returns all sensors in registration order.
func (r *Registry) Sensors() []*Sensor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Sensor, len(r.sensors))
	copy(out, r.sensors)
	return out
}

// Switches returns all switches in registration order.
func (r *Registry) Switches() []*Switch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Switch, len(r.switches))
	copy(out, r.switches)
	return out
}

// Stats returns registry counters.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	sensors := make([]*Sensor, len(r.sensors))
	copy(sensors, r.sensors)
	switches := make([]*Switch, len(r.switches))
	copy(switches, r.switches)
	r.mu.RUnlock()

	st := Stats{Sensors: len(sensors), Switches: len(switches)}
	for _, s := range sensors {
		if !s.HasValue() {
			st.SensorsWithout++
		}
	}
	for _, sw := range switches {
		if sw.State() {
			st.SwitchesOn++
		}
	}

	r.listenersMu.RLock()
	st.Listeners = len(r.listeners)
	r.listenersMu.RUnlock()
	return st
}

func (r *Registry) sensorChanged(s *Sensor) {
	for _, l := range r.snapshotListeners() {
		l.SensorChanged(s)
	}
}

func (r *Registry) switchChanged(sw *Switch) {
	for _, l := range r.snapshotListeners() {
		l.SwitchChanged(sw)
	}
}

func (r *Registry) snapshotListeners() []Listener {
	r.listenersMu.RLock()
	defer r.listenersMu.RUnlock()
	out := make([]Listener, len(r.listeners))
	copy(out, r.listeners)
	return out
}
