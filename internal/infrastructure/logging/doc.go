// Package logging builds the daemon's structured logger on log/slog.
//
// Text output goes through github.com/lmittmann/tint, coloured only when
// writing to a terminal; json output suits a log shipper. Every record
// carries service and version fields, and subsystems add a component field
// with Component.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Credentials from the mqtt and influxdb sections must never be logged.
package logging
