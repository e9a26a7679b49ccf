// Package ui provides terminal UI components for the ocast CLI.
//
// Two kinds of output are supported. One-shot commands (scan, app start,
// media play) go through a Printer, which renders a header box followed by
// a success or failure box. When stdout is not a terminal the Printer
// falls back to plain lines so output can be piped.
//
// The watch command runs a Bubble Tea program, WatchModel, that lists
// receivers as the discovery engine reports them. Discovery callbacks reach
// the program through the channel returned by NewWatchFeed.
//
// # Logging Integration
//
// zap logging is silent unless OCAST_LOG_LEVEL (or --log-level) is set, so
// the curated output is displayed cleanly.
package ui
