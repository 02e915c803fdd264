package testsupport

import (
	"path/filepath"
	"testing"

	"tubedigest/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.YouTube.APIKey = "test"
	cfg.Transcript.APIToken = "test"
	cfg.Anthropic.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMaxResolveAttempts overrides the resolve retry budget.
func WithMaxResolveAttempts(attempts int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.MaxResolveAttempts = attempts
	}
}

// WithChannelStalenessHours overrides the per-channel freshness window.
func WithChannelStalenessHours(hours int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.ChannelStalenessHours = hours
	}
}
