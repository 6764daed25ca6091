package api

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/nerrad567/seeed-ha-core/internal/entity"
)

// Sync protocol message types.
const (
	MsgTypePing         = "ping"
	MsgTypePong         = "pong"
	MsgTypeDiscovery    = "discovery"
	MsgTypeState        = "state"
	MsgTypeCommand      = "command"
	MsgTypeHAState      = "ha_state"
	MsgTypeHAStateClear = "ha_state_clear"
	MsgTypeSleep        = "sleep"
)

// envelope is the part of every inbound message read before dispatch.
type envelope struct {
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// pongMessage echoes the timestamp of a ping exactly as received.
type pongMessage struct {
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// timedMessage is used for the heartbeat ping and the sleep notice.
type timedMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// DiscoveryEntity describes one entity in a discovery snapshot.
//
// Sensors always carry state_class and precision; device_class, unit and
// icon appear only when set. State is present for switches and for sensors
// that have a value; a non-finite sensor value is sent as null.
type DiscoveryEntity struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        entity.Kind `json:"type"`
	DeviceClass string      `json:"device_class,omitempty"`
	Unit        string      `json:"unit_of_measurement,omitempty"`
	StateClass  string      `json:"state_class,omitempty"`
	Precision   *int        `json:"precision,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	State       any         `json:"state,omitempty"`
}

// discoveryMessage is the full entity snapshot.
type discoveryMessage struct {
	Type     string            `json:"type"`
	Entities []DiscoveryEntity `json:"entities"`
}

// stateAttributes accompany sensor state pushes.
type stateAttributes struct {
	Unit        string `json:"unit_of_measurement"`
	DeviceClass string `json:"device_class"`
}

// stateMessage is a single-entity state push.
type stateMessage struct {
	Type       string           `json:"type"`
	EntityID   string           `json:"entity_id"`
	State      any              `json:"state"`
	Attributes *stateAttributes `json:"attributes,omitempty"`
}

// haStateMessage is an external Home Assistant state push.
type haStateMessage struct {
	EntityID   string          `json:"entity_id"`
	State      json.RawMessage `json:"state"`
	Attributes map[string]any  `json:"attributes"`
}

// sensorEntity builds the discovery entry for a sensor snapshot.
func sensorEntity(snap entity.SensorSnapshot) DiscoveryEntity {
	precision := snap.Precision
	e := DiscoveryEntity{
		ID:          snap.ID,
		Name:        snap.Name,
		Type:        entity.KindSensor,
		DeviceClass: snap.DeviceClass,
		Unit:        snap.Unit,
		StateClass:  string(snap.StateClass),
		Precision:   &precision,
		Icon:        snap.Icon,
	}
	if snap.HasValue {
		e.State = sensorState(snap.Value)
	}
	return e
}

// sensorState returns v, or a JSON null when v is NaN or infinite, which
// encoding/json cannot represent.
func sensorState(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.RawMessage("null")
	}
	return v
}

// switchEntity builds the discovery entry for a switch snapshot.
func switchEntity(snap entity.SwitchSnapshot) DiscoveryEntity {
	return DiscoveryEntity{
		ID:    snap.ID,
		Name:  snap.Name,
		Type:  entity.KindSwitch,
		Icon:  snap.Icon,
		State: snap.State,
	}
}

// Discovery returns the discovery entries of every registered entity,
// sensors first, each in registration order.
func Discovery(reg *entity.Registry) []DiscoveryEntity {
	sensors := reg.Sensors()
	switches := reg.Switches()

	out := make([]DiscoveryEntity, 0, len(sensors)+len(switches))
	for _, s := range sensors {
		out = append(out, sensorEntity(s.Snapshot()))
	}
	for _, sw := range switches {
		out = append(out, switchEntity(sw.Snapshot()))
	}
	return out
}

// encodeDiscovery marshals a discovery message for reg.
func encodeDiscovery(reg *entity.Registry) ([]byte, error) {
	return json.Marshal(discoveryMessage{Type: MsgTypeDiscovery, Entities: Discovery(reg)})
}

// encodeSensorState marshals a state push for a sensor.
func encodeSensorState(snap entity.SensorSnapshot) ([]byte, error) {
	return json.Marshal(stateMessage{
		Type:     MsgTypeState,
		EntityID: snap.ID,
		State:    sensorState(snap.Value),
		Attributes: &stateAttributes{
			Unit:        snap.Unit,
			DeviceClass: snap.DeviceClass,
		},
	})
}

// encodeSwitchState marshals a state push for a switch.
func encodeSwitchState(snap entity.SwitchSnapshot) ([]byte, error) {
	return json.Marshal(stateMessage{
		Type:     MsgTypeState,
		EntityID: snap.ID,
		State:    snap.State,
	})
}

// encodePong echoes ts. A missing timestamp is echoed as null.
func encodePong(ts json.RawMessage) ([]byte, error) {
	if len(ts) == 0 {
		ts = json.RawMessage("null")
	}
	return json.Marshal(pongMessage{Type: MsgTypePong, Timestamp: ts})
}

func encodeTimed(msgType string, ts int64) ([]byte, error) {
	return json.Marshal(timedMessage{Type: msgType, Timestamp: ts})
}

// scalarString returns the string form of a JSON scalar: strings unquoted,
// numbers and booleans as their JSON text. Absent and null give "".
func scalarString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("state must be a scalar, got %s", raw)
	default:
		return string(raw), nil
	}
}
