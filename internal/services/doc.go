// Package services defines shared utilities consumed by the pipeline stages
// and the external API clients.
//
// Key responsibilities:
//   - Context helpers that stamp channel and video identifiers plus a run
//     correlation id for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (not found vs transient vs validation) with errors.Is.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across components.
package services
