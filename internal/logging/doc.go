// Package logging provides structured logging for the OCast SDK and the
// ocast command line tool.
//
// This package wraps a zap logger held in a package-global so that the
// discovery engine, the protocol client and the CLI share one sink without
// threading a logger through every constructor.
//
// # Silent by default
//
// Nothing is written until Initialize is called with a level or the
// OCAST_LOG_LEVEL environment variable is set:
//
//	OCAST_LOG_LEVEL=debug ocast scan
//
// Library consumers that already own a zap logger can install it with
// SetLogger.
//
// # Log Levels
//
//   - Debug: datagrams, WebSocket frames, swallowed protocol noise
//   - Info: state changes, devices added and removed
//   - Warn: descriptor fetch failures, unexpected disconnections
//   - Error: socket failures that stop discovery
//
// # Protocol helpers
//
// LogDatagram and LogWebSocketMessage only build their fields when debug
// output is enabled and truncate bodies to keep lines readable.
package logging
