// Package config loads, validates, and normalizes tubedigest configuration
// from TOML, applying repository defaults for anything unset.
package config
