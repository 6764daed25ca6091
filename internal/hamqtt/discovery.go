package hamqtt

import (
	"math"
	"strconv"

	"github.com/nerrad567/seeed-ha-core/internal/entity"
	"github.com/nerrad567/seeed-ha-core/internal/infrastructure/mqtt"
)

// Switch state payloads.
const (
	PayloadOn  = "ON"
	PayloadOff = "OFF"
)

// Home Assistant MQTT components.
const (
	ComponentSensor = "sensor"
	ComponentSwitch = "switch"
)

// DiscoveryConfig is the retained JSON document Home Assistant reads from a
// discovery config topic.
type DiscoveryConfig struct {
	Device            DiscoveryDevice `json:"device"`
	StateTopic        string          `json:"state_topic"`
	CommandTopic      string          `json:"command_topic,omitempty"`
	AvTopic           string          `json:"availability_topic,omitempty"`
	StateClass        string          `json:"state_class,omitempty"`
	DeviceClass       string          `json:"device_class,omitempty"`
	UnitOfMeasurement string          `json:"unit_of_measurement,omitempty"`
	Precision         *int            `json:"suggested_display_precision,omitempty"`
	Name              string          `json:"name"`
	UniqueID          string          `json:"unique_id"`
	Icon              string          `json:"icon,omitempty"`
	PayloadOn         string          `json:"payload_on,omitempty"`
	PayloadOff        string          `json:"payload_off,omitempty"`
	Platform          string          `json:"platform"`
}

// DiscoveryDevice groups every entity under one Home Assistant device.
type DiscoveryDevice struct {
	ID           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
}

// Device describes the physical device the entities belong to.
type Device struct {
	ID           string
	Name         string
	Model        string
	Version      string
	Manufacturer string
}

func (d Device) discovery() DiscoveryDevice {
	return DiscoveryDevice{
		ID:           []string{"seeed_ha_" + d.ID},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
	}
}

func uniqueID(dev Device, entityID string) string {
	return "seeed_ha_" + dev.ID + "_" + entityID
}

// SensorConfig builds the discovery config for a sensor.
func SensorConfig(topics mqtt.Topics, dev Device, s entity.SensorSnapshot) DiscoveryConfig {
	precision := s.Precision
	return DiscoveryConfig{
		Device:            dev.discovery(),
		StateTopic:        topics.State(s.ID),
		AvTopic:           topics.Availability(),
		StateClass:        string(s.StateClass),
		DeviceClass:       s.DeviceClass,
		UnitOfMeasurement: s.Unit,
		Precision:         &precision,
		Name:              s.Name,
		UniqueID:          uniqueID(dev, s.ID),
		Icon:              s.Icon,
		Platform:          "mqtt",
	}
}

// SwitchConfig builds the discovery config for a switch.
func SwitchConfig(topics mqtt.Topics, dev Device, sw entity.SwitchSnapshot) DiscoveryConfig {
	return DiscoveryConfig{
		Device:       dev.discovery(),
		StateTopic:   topics.State(sw.ID),
		CommandTopic: topics.Command(sw.ID),
		AvTopic:      topics.Availability(),
		Name:         sw.Name,
		UniqueID:     uniqueID(dev, sw.ID),
		Icon:         sw.Icon,
		PayloadOn:    PayloadOn,
		PayloadOff:   PayloadOff,
		Platform:     "mqtt",
	}
}

// SensorPayload formats a sensor value with its display precision.
// It returns false when the sensor has never been set or holds NaN or an
// infinity.
func SensorPayload(s entity.SensorSnapshot) (string, bool) {
	if !s.HasValue || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return "", false
	}
	precision := s.Precision
	if precision < 0 {
		precision = 0
	}
	return strconv.FormatFloat(s.Value, 'f', precision, 64), true
}

// SwitchPayload returns ON or OFF.
func SwitchPayload(on bool) string {
	if on {
		return PayloadOn
	}
	return PayloadOff
}
