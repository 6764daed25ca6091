package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Command actions.
const (
	ActionTurnOn  = "turn_on"
	ActionTurnOff = "turn_off"
	ActionToggle  = "toggle"
)

// Command is an inbound request to change a switch.
//
// Action is set only when the wire field was a string, State only when it
// was a boolean. Nil means the field was absent or of another type.
type Command struct {
	EntityID string
	Action   *string
	State    *bool
}

// TurnOn returns a turn_on command for id.
func TurnOn(id string) Command { return withAction(id, ActionTurnOn) }

// TurnOff returns a turn_off command for id.
func TurnOff(id string) Command { return withAction(id, ActionTurnOff) }

// Toggle returns a toggle command for id.
func Toggle(id string) Command { return withAction(id, ActionToggle) }

// SetState returns a command carrying a boolean state for id.
func SetState(id string, on bool) Command {
	return Command{EntityID: id, State: &on}
}

func withAction(id, action string) Command {
	return Command{EntityID: id, Action: &action}
}

// ParseCommand decodes a command message body.
//
// Only a JSON string "command" and a JSON boolean "state" are taken; other
// types are treated as absent. A non-string entity_id counts as missing.
func ParseCommand(data []byte) (Command, error) {
	var raw struct {
		EntityID json.RawMessage `json:"entity_id"`
		Command  json.RawMessage `json:"command"`
		State    json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	var cmd Command
	var id string
	if json.Unmarshal(raw.EntityID, &id) == nil {
		cmd.EntityID = id
	}
	var action string
	if json.Unmarshal(raw.Command, &action) == nil && isJSONString(raw.Command) {
		cmd.Action = &action
	}
	var state bool
	if json.Unmarshal(raw.State, &state) == nil && isJSONBool(raw.State) {
		cmd.State = &state
	}
	return cmd, nil
}

// FromPayload maps an MQTT switch payload (ON, OFF, TOGGLE, any case) to a
// command. Other payloads become an action that Resolve rejects.
func FromPayload(entityID, payload string) Command {
	switch strings.ToUpper(strings.TrimSpace(payload)) {
	case "ON":
		return TurnOn(entityID)
	case "OFF":
		return TurnOff(entityID)
	case "TOGGLE":
		return Toggle(entityID)
	default:
		return withAction(entityID, strings.ToLower(strings.TrimSpace(payload)))
	}
}

func isJSONString(raw json.RawMessage) bool {
	return len(raw) > 0 && raw[0] == '"'
}

func isJSONBool(raw json.RawMessage) bool {
	s := string(raw)
	return s == "true" || s == "false"
}
