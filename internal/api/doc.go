// Package api serves the device's HTTP endpoints and the WebSocket sync
// protocol used by the Home Assistant integration.
//
// This package provides:
//   - The sync Engine: discovery, state pushes, commands, external HA state and heartbeat
//   - A Hub tracking open WebSocket connections
//   - The status page and the /info device endpoint
//   - Read-only REST endpoints for entities, mirrored HA states and history
//
// # Listeners
//
// The HTTP server and the WebSocket server listen on separate ports (80 and
// 81 by default). The integration finds the WebSocket port through mDNS and
// reaches /info on the HTTP port.
//
// # Sync protocol
//
// Every frame is a flat JSON object with a "type" field. A new connection
// receives a discovery snapshot before any other message. Entity changes are
// pushed only while a controller is connected; nothing is queued.
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
