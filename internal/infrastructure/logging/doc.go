// Package logging provides structured diagnostics logging for the sink.
//
// The sink relays application log records to an MQTT broker; this package
// is NOT that path. It wraps log/slog for the sink's own operational
// output, so connection failures and dropped records remain visible
// locally even when the relay path is down.
//
// # Configuration
//
//	logging:
//	  level: "info"      # trace, debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Warn("publish failed, dropping record", "error", err)
package logging
