// Package config loads, normalizes, and validates dropsort configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the DROPSORT_WATCH_ROOT
// environment fallback. The Config type centralizes every knob the watcher and
// CLI need so the watch root is resolved once and passed explicitly to the
// components that use it.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths, canonical log formats, and clear validation errors.
package config
