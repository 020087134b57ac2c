// Package main hosts the dropsort CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the foreground watcher, organizes files on
// demand, reports preflight and watcher status, and scaffolds configuration.
// It centralizes configuration resolution and structured logging setup so
// subcommands can focus on output instead of wiring.
//
// Keep this package lean: new behaviour belongs in the internal packages first
// and is surfaced here through dedicated commands or flags.
package main
