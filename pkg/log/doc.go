// Package log provides protocol capture for R2D7 controller sessions.
//
// This package defines the Logger interface and Event types for recording
// every command written to a controller, every feedback byte drained from
// it, and every connection state change. It is separate from operational
// logging (slog): protocol capture is a complete, machine-readable trace
// intended for diagnosing shade drift and connection problems after the
// fact.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to a capture file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/r2d7/controller.rlog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # Event Categories
//
//   - COMMAND: bytes written to the controller (or dropped while disconnected)
//   - FEEDBACK: bytes received from the controller (recorded, never parsed)
//   - STATE: session connection state transitions
//   - ERROR: transport errors
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys and
// use the .rlog extension. The r2d7-log tool views and summarizes them.
package log
