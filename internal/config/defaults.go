package config

const (
	defaultDataDir              = "~/.local/share/tubedigest"
	defaultLogDir               = "~/.local/share/tubedigest/logs"
	defaultYouTubeBaseURL       = "https://www.googleapis.com/youtube/v3"
	defaultYouTubeTimeout       = 30
	defaultTranscriptBaseURL    = "https://www.youtube-transcript.io/api"
	defaultTranscriptTimeout    = 30
	defaultAnthropicBaseURL     = "https://api.anthropic.com"
	defaultAnthropicModel       = "claude-3-sonnet-20240229"
	defaultAnthropicMaxTokens   = 4096
	defaultAnthropicTemperature = 0.7
	defaultAnthropicTimeout     = 120
	defaultChannelStalenessHrs  = 24
	defaultMasterStalenessDays  = 7
	defaultDiscoveryWindowDays  = 7
	defaultRequestsPerMinute    = 60.0
	defaultMaxResolveAttempts   = 5
	defaultSchedule             = "0 0 * * 1"
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "text"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		YouTube: YouTube{
			BaseURL:        defaultYouTubeBaseURL,
			TimeoutSeconds: defaultYouTubeTimeout,
		},
		Transcript: Transcript{
			BaseURL:            defaultTranscriptBaseURL,
			PreferredLanguages: []string{"en"},
			TimeoutSeconds:     defaultTranscriptTimeout,
		},
		Anthropic: Anthropic{
			BaseURL:        defaultAnthropicBaseURL,
			Model:          defaultAnthropicModel,
			MaxTokens:      defaultAnthropicMaxTokens,
			Temperature:    defaultAnthropicTemperature,
			TimeoutSeconds: defaultAnthropicTimeout,
		},
		Pipeline: Pipeline{
			ChannelStalenessHours: defaultChannelStalenessHrs,
			MasterStalenessDays:   defaultMasterStalenessDays,
			DiscoveryWindowDays:   defaultDiscoveryWindowDays,
			RequestsPerMinute:     defaultRequestsPerMinute,
			MaxResolveAttempts:    defaultMaxResolveAttempts,
			Schedule:              defaultSchedule,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunSummary:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
