// Package services defines shared utilities consumed by the organize pipeline
// and its collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp file event IDs and file names for logging.
//   - Structured error markers plus the Wrap helper that keep failures
//     classifiable (not found, permission or I/O, configuration) after they
//     have been annotated with stage and operation context.
//
// Use these helpers when wiring new pipeline steps so failure reporting stays
// uniform across settling, placement and the watch loop.
package services
