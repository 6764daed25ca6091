// Package hamqtt mirrors the entity registry onto Home Assistant's MQTT
// discovery protocol.
//
// For every sensor and switch it publishes a retained discovery config, keeps
// a retained state topic current, and routes "ON", "OFF" and "TOGGLE"
// payloads from switch command topics through the same command dispatcher the
// WebSocket protocol uses.
package hamqtt
