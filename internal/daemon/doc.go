// Package daemon coordinates the long-running dropsort watcher.
//
// It wires configuration, preflight checks, the watch source, the organize
// pipeline, the dispatcher and the optional metrics server into a single
// lifecycle, with flock-based locking so only one watcher runs per log
// directory.
//
// Keep orchestration logic here: settling, classification and placement live
// in their own packages while the daemon focuses on startup, shutdown and
// status reporting.
package daemon
