// Package fileutil moves files without ever replacing an existing destination.
//
// Move prefers a single atomic rename. When the kernel supports it the rename
// refuses to replace an existing destination; elsewhere the destination is
// checked immediately before renaming. Moves across filesystems fall back to a
// verified copy and only remove the source once the copy has been confirmed.
package fileutil
