package hastate

import (
	"strconv"
	"strings"
	"time"
)

// State is the mirrored state of one Home Assistant entity.
type State struct {
	EntityID     string    `json:"entity_id"`
	State        string    `json:"state"`
	FriendlyName string    `json:"friendly_name,omitempty"`
	Unit         string    `json:"unit_of_measurement,omitempty"`
	DeviceClass  string    `json:"device_class,omitempty"`
	LastUpdate   time.Time `json:"last_update"`

	hasValue bool
}

// HasValue reports whether a state has been received.
func (s State) HasValue() bool { return s.hasValue }

// Float parses the state as a number. Non-numeric states give 0.
func (s State) Float() float64 {
	if !s.hasValue {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s.State), 64)
	if err != nil {
		return 0
	}
	return v
}

// Int parses the state as an integer, truncating decimals.
// Non-numeric states give 0.
func (s State) Int() int64 {
	if !s.hasValue {
		return 0
	}
	str := strings.TrimSpace(s.State)
	if v, err := strconv.ParseInt(str, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(str, 64); err == nil {
		return int64(f)
	}
	return 0
}

// Bool interprets common Home Assistant "on" states: on, true, 1, home,
// open and yes, case-insensitively. Anything else is false.
func (s State) Bool() bool {
	if !s.hasValue {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(s.State)) {
	case "on", "true", "1", "home", "open", "yes":
		return true
	}
	return false
}
