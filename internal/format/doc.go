// Package format renders log records into the byte payloads the sink
// publishes.
//
// The sink treats formatting as an opaque collaborator: anything with a
// Format method producing bytes will do, and an empty result means
// "publish nothing". This package supplies the default single-line text
// formatter with timestamp control and target allow/deny filtering.
//
// A record's target is the component or logger name, carried as the
// "target" attribute:
//
//	slog.Info("motor engaged", "target", "drivetrain")
//	// 2026-08-28 12:00:05 [INFO] (drivetrain) motor engaged
package format
