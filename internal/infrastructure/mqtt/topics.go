package mqtt

import (
	"fmt"
	"strings"
)

// Home Assistant availability payloads.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Default prefixes used when the config leaves them empty.
const (
	DefaultDiscoveryPrefix = "homeassistant"
	DefaultTopicPrefix     = "seeed_ha"
)

// Topics builds the MQTT topic tree for one device.
//
// Discovery configs live under the Home Assistant discovery prefix; runtime
// traffic lives under the device's own prefix:
//
//	topics := mqtt.NewTopics("homeassistant", "seeed_ha", "AABBCCDDEEFF")
//	topics.Config("sensor", "temperature")
//	// Returns: "homeassistant/sensor/AABBCCDDEEFF/temperature/config"
//	topics.State("temperature")
//	// Returns: "seeed_ha/AABBCCDDEEFF/temperature/state"
type Topics struct {
	Discovery string
	Prefix    string
	DeviceID  string
}

// NewTopics returns a topic builder, filling empty prefixes with defaults.
func NewTopics(discoveryPrefix, topicPrefix, deviceID string) Topics {
	if discoveryPrefix == "" {
		discoveryPrefix = DefaultDiscoveryPrefix
	}
	if topicPrefix == "" {
		topicPrefix = DefaultTopicPrefix
	}
	return Topics{Discovery: discoveryPrefix, Prefix: topicPrefix, DeviceID: deviceID}
}

// Config returns the retained discovery config topic for an entity.
//
// Example: homeassistant/switch/AABBCCDDEEFF/relay/config
func (t Topics) Config(component, entityID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", t.Discovery, component, t.DeviceID, entityID)
}

// State returns the state topic for an entity.
//
// Example: seeed_ha/AABBCCDDEEFF/relay/state
func (t Topics) State(entityID string) string {
	return fmt.Sprintf("%s/%s/%s/state", t.Prefix, t.DeviceID, entityID)
}

// Command returns the command topic for a switch.
//
// Example: seeed_ha/AABBCCDDEEFF/relay/set
func (t Topics) Command(entityID string) string {
	return fmt.Sprintf("%s/%s/%s/set", t.Prefix, t.DeviceID, entityID)
}

// Availability returns the device availability topic carrying the LWT.
//
// Example: seeed_ha/AABBCCDDEEFF/availability
func (t Topics) Availability() string {
	return fmt.Sprintf("%s/%s/availability", t.Prefix, t.DeviceID)
}

// AllCommands returns a pattern matching every switch command topic of the device.
//
// Pattern: seeed_ha/AABBCCDDEEFF/+/set
func (t Topics) AllCommands() string {
	return fmt.Sprintf("%s/%s/+/set", t.Prefix, t.DeviceID)
}

// EntityFromCommand extracts the entity ID from a command topic.
// It returns false if the topic does not belong to this device.
func (t Topics) EntityFromCommand(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/"+t.DeviceID+"/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/set")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
