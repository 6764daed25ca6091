// Package mqtt connects the device to an MQTT broker for Home Assistant's
// MQTT integration.
//
// The WebSocket protocol is the primary link to Home Assistant. MQTT is an
// optional second surface: the device publishes retained discovery configs
// and states, receives switch commands on per-entity "set" topics, and
// reports availability through a retained status topic backed by a Last
// Will.
//
//	client, err := mqtt.Connect(cfg.MQTT, deviceID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.PublishRetained(client.Topics().State("relay"), []byte("ON"))
//
// Subscriptions are remembered and restored after paho reconnects.
package mqtt
