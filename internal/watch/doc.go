// Package watch reports entries created directly inside a single directory.
//
// A Source wraps an fsnotify watcher registered on the watch root only;
// subdirectories are not followed. Next blocks until at least one
// notification is available and returns everything already queued as one
// batch. Kernel queue overflows surface as Overflow notifications so callers
// can rescan the directory. Other watcher errors restart the underlying
// watcher with exponential backoff before giving up.
package watch
