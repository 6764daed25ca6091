// Package entity provides the entity registry for Seeed HA Core.
//
// An entity is a named sensor or switch exposed to Home Assistant. The
// Registry owns both collections, keeps them in registration order and fans
// every observable change out to the registered transports (WebSocket sync
// engine, BLE control channel, MQTT mirror, telemetry, state journal).
//
// # Change notification
//
//   - Sensor.SetValue always notifies, even when the value is unchanged.
//   - Switch.SetState notifies only when the state actually changes.
//   - Switch.HandleCommand stores the value, runs the hardware handler and
//     then always notifies, so the controller receives a confirmation echo.
//
// Listeners are called synchronously on the mutating goroutine, after the
// entity lock has been released.
//
// # Usage
//
//	reg := entity.NewRegistry()
//	temp, _ := reg.AddSensor("temperature", "Temperature",
//	    entity.WithDeviceClass("temperature"),
//	    entity.WithUnit("°C"),
//	)
//	led, _ := reg.AddSwitch("led", "LED", entity.WithHandler(driver))
//	temp.SetValue(21.4)
//	led.Toggle()
package entity
