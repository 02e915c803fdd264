// Package logging assembles structured slog loggers and helpers used across
// tubedigest components.
//
// It owns the configurable text/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can
// automatically tag log lines with channel and video identifiers plus a run
// correlation id. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
package logging
