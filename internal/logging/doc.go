// Package logging assembles the structured slog loggers used across dropsort.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so worker code automatically
// tags log lines with the file event identifier. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
