// Package config loads the seeedha configuration.
//
// Values come from built-in defaults, then the YAML file, then SEEEDHA_*
// environment variables (for example SEEEDHA_MQTT_PASSWORD), and are
// validated last. An empty path skips the file.
//
// The entities section declares the sensors and switches registered at
// startup, in file order, plus BLE-only BTHome objects:
//
//	entities:
//	  sensors:
//	    - id: temperature
//	      name: Temperature
//	      device_class: temperature
//	      unit: "°C"
//	      bthome: temperature
//	  switches:
//	    - id: relay
//	      name: Relay
//
// Keep secrets in the environment rather than the file.
package config
