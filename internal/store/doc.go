// Package store persists channels, videos, insights, and prompt sets in a
// local SQLite database. Schema changes ship as embedded migrations applied
// on open.
package store
