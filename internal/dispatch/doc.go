// Package dispatch routes inbound switch commands to entities.
//
// A command names a switch by entity id and requests a state in one of two
// forms:
//
//	{"entity_id": "led", "command": "turn_on"}   // turn_on, turn_off, toggle
//	{"entity_id": "led", "state": true}
//
// When both fields are present the string command wins. The resolved
// state is applied with entity.Switch.HandleCommand, which always echoes
// the state back to every transport. The same Dispatcher serves the
// WebSocket protocol and the MQTT mirror.
package dispatch
