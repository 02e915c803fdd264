// Package youtube talks to the YouTube Data API v3 for channel metadata,
// recent-upload discovery, and per-video statistics.
package youtube
