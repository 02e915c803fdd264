package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// YouTube contains configuration for the YouTube Data API.
type YouTube struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcript contains configuration for the transcript retrieval API.
type Transcript struct {
	BaseURL            string   `toml:"base_url"`
	APIToken           string   `toml:"api_token"`
	PreferredLanguages []string `toml:"preferred_languages"`
	TimeoutSeconds     int      `toml:"timeout_seconds"`
}

// Anthropic contains configuration for the text-generation backend.
type Anthropic struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Pipeline contains the aggregation windows and pacing knobs.
type Pipeline struct {
	ChannelStalenessHours int     `toml:"channel_staleness_hours"`
	MasterStalenessDays   int     `toml:"master_staleness_days"`
	DiscoveryWindowDays   int     `toml:"discovery_window_days"`
	RequestsPerMinute     float64 `toml:"requests_per_minute"`
	MaxResolveAttempts    int     `toml:"max_resolve_attempts"`
	Schedule              string  `toml:"schedule"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunSummary     bool   `toml:"run_summary"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tubedigest.
type Config struct {
	Paths         Paths         `toml:"paths"`
	YouTube       YouTube       `toml:"youtube"`
	Transcript    Transcript    `toml:"transcript"`
	Anthropic     Anthropic     `toml:"anthropic"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tubedigest/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tubedigest.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the store and loggers depend on.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the sqlite document store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "tubedigest.db")
}

// LogFilePath returns the location of the primary log file.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "tubedigest.log")
}

// LockFilePath returns the location of the single-runner lock file.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.DataDir, "tubedigest.lock")
}

// ChannelStaleness returns the minimum elapsed time before a channel is
// eligible for reprocessing.
func (c *Config) ChannelStaleness() time.Duration {
	return time.Duration(c.Pipeline.ChannelStalenessHours) * time.Hour
}

// MasterStaleness returns the minimum elapsed time before a new master digest
// is generated.
func (c *Config) MasterStaleness() time.Duration {
	return time.Duration(c.Pipeline.MasterStalenessDays) * 24 * time.Hour
}

// DiscoveryWindow returns the trailing window used for item discovery.
func (c *Config) DiscoveryWindow() time.Duration {
	return time.Duration(c.Pipeline.DiscoveryWindowDays) * 24 * time.Hour
}

// YouTubeTimeout returns the per-request timeout for the YouTube API client.
func (c *Config) YouTubeTimeout() time.Duration {
	return time.Duration(c.YouTube.TimeoutSeconds) * time.Second
}

// TranscriptTimeout returns the per-request timeout for the transcript client.
func (c *Config) TranscriptTimeout() time.Duration {
	return time.Duration(c.Transcript.TimeoutSeconds) * time.Second
}

// AnthropicTimeout returns the per-request timeout for the generation backend.
func (c *Config) AnthropicTimeout() time.Duration {
	return time.Duration(c.Anthropic.TimeoutSeconds) * time.Second
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.YouTube.APIKey = strings.TrimSpace(c.YouTube.APIKey)
	c.YouTube.BaseURL = strings.TrimRight(strings.TrimSpace(c.YouTube.BaseURL), "/")
	c.Transcript.BaseURL = strings.TrimRight(strings.TrimSpace(c.Transcript.BaseURL), "/")
	c.Transcript.APIToken = strings.TrimSpace(c.Transcript.APIToken)
	c.Anthropic.APIKey = strings.TrimSpace(c.Anthropic.APIKey)
	c.Anthropic.BaseURL = strings.TrimRight(strings.TrimSpace(c.Anthropic.BaseURL), "/")
	c.Anthropic.Model = strings.TrimSpace(c.Anthropic.Model)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Pipeline.Schedule = strings.TrimSpace(c.Pipeline.Schedule)

	langs := make([]string, 0, len(c.Transcript.PreferredLanguages))
	for _, lang := range c.Transcript.PreferredLanguages {
		if lang = strings.TrimSpace(lang); lang != "" {
			langs = append(langs, lang)
		}
	}
	c.Transcript.PreferredLanguages = langs

	return nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}
	if c.YouTube.BaseURL == "" {
		problems = append(problems, "youtube.base_url must not be empty")
	}
	if c.Anthropic.BaseURL == "" {
		problems = append(problems, "anthropic.base_url must not be empty")
	}
	if c.Anthropic.MaxTokens <= 0 {
		problems = append(problems, "anthropic.max_tokens must be positive")
	}
	if c.Anthropic.Temperature < 0 || c.Anthropic.Temperature > 1 {
		problems = append(problems, "anthropic.temperature must be between 0 and 1")
	}
	if c.Pipeline.ChannelStalenessHours <= 0 {
		problems = append(problems, "pipeline.channel_staleness_hours must be positive")
	}
	if c.Pipeline.MasterStalenessDays <= 0 {
		problems = append(problems, "pipeline.master_staleness_days must be positive")
	}
	if c.Pipeline.DiscoveryWindowDays <= 0 {
		problems = append(problems, "pipeline.discovery_window_days must be positive")
	}
	if c.Pipeline.RequestsPerMinute <= 0 {
		problems = append(problems, "pipeline.requests_per_minute must be positive")
	}
	if c.Pipeline.MaxResolveAttempts <= 0 {
		problems = append(problems, "pipeline.max_resolve_attempts must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
