// Package mdns advertises the device on the local network so the Home
// Assistant integration can discover it.
//
// The service instance carries the WebSocket port and a TXT record with the
// device id, name, model, version, MAC and HTTP port.
package mdns
