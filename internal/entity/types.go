package entity

// Kind is the entity family reported to Home Assistant.
type Kind string

// Entity kinds.
const (
	KindSensor Kind = "sensor"
	KindSwitch Kind = "switch"
)

// StateClass is the Home Assistant state class of a sensor.
type StateClass string

// Supported state classes.
const (
	StateClassMeasurement     StateClass = "measurement"
	StateClassTotal           StateClass = "total"
	StateClassTotalIncreasing StateClass = "total_increasing"
)

// DefaultPrecision is the number of decimals shown for a sensor unless
// WithPrecision says otherwise.
const DefaultPrecision = 1

// Valid reports whether the state class is one Home Assistant accepts.
func (c StateClass) Valid() bool {
	switch c {
	case StateClassMeasurement, StateClassTotal, StateClassTotalIncreasing:
		return true
	}
	return false
}

// StateHandler receives the requested state of a switch when a controller
// commands it. Hardware drivers and test harnesses implement it.
type StateHandler interface {
	HandleState(on bool)
}

// StateHandlerFunc adapts a plain function to StateHandler.
type StateHandlerFunc func(on bool)

// HandleState calls f(on).
func (f StateHandlerFunc) HandleState(on bool) { f(on) }

// Listener is notified about observable entity changes.
//
// Implementations must not block: they run on the goroutine that mutated
// the entity.
type Listener interface {
	SensorChanged(s *Sensor)
	SwitchChanged(sw *Switch)
}

// SensorSnapshot is a point-in-time copy of a sensor.
type SensorSnapshot struct {
	ID          string
	Name        string
	DeviceClass string
	Unit        string
	StateClass  StateClass
	Icon        string
	Precision   int
	Value       float64
	HasValue    bool
}

// SwitchSnapshot is a point-in-time copy of a switch.
type SwitchSnapshot struct {
	ID    string
	Name  string
	Icon  string
	State bool
}

// SensorOption configures a sensor at registration.
type SensorOption func(*Sensor)

// WithDeviceClass sets the Home Assistant device class (e.g. "temperature").
func WithDeviceClass(class string) SensorOption {
	return func(s *Sensor) { s.deviceClass = class }
}

// WithUnit sets the unit of measurement.
func WithUnit(unit string) SensorOption {
	return func(s *Sensor) { s.unit = unit }
}

// WithStateClass overrides the default measurement state class.
func WithStateClass(class StateClass) SensorOption {
	return func(s *Sensor) { s.stateClass = class }
}

// WithIcon sets an mdi icon for a sensor.
func WithIcon(icon string) SensorOption {
	return func(s *Sensor) { s.icon = icon }
}

// WithPrecision sets the displayed number of decimals.
func WithPrecision(precision int) SensorOption {
	return func(s *Sensor) { s.precision = precision }
}

// SwitchOption configures a switch at registration.
type SwitchOption func(*Switch)

// WithSwitchIcon sets an mdi icon for a switch.
func WithSwitchIcon(icon string) SwitchOption {
	return func(sw *Switch) { sw.icon = icon }
}

// WithHandler attaches the hardware handler run on inbound commands.
func WithHandler(h StateHandler) SwitchOption {
	return func(sw *Switch) { sw.handler = h }
}

// WithInitialState sets the state a switch starts in. No notification is sent.
func WithInitialState(on bool) SwitchOption {
	return func(sw *Switch) { sw.state = on }
}
