// Package notifications delivers pipeline events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Run-summary and error events can be toggled independently so
// operators can keep alerting without per-run chatter.
//
// Extend this package if you need alternative transports; pipeline code
// depends only on the simple Service interface.
package notifications
